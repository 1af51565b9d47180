package utils

import (
	"regexp"
	"strings"
)

var (
	nonDigit   = regexp.MustCompile(`\D`)
	auMobile   = regexp.MustCompile(`^(?:0|61|(?:\+61)?)4\d{8}$`)
	emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	loosePhone = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
)

// DigitsOnly 去掉所有非数字字符
func DigitsOnly(value string) string {
	return nonDigit.ReplaceAllString(value, "")
}

// ValidatePhoneNumber 校验澳洲手机号：可选 0 / 61 / +61 前缀，后接 4 和 8 位数字
func ValidatePhoneNumber(phone string) bool {
	return auMobile.MatchString(DigitsOnly(phone))
}

// ValidateEmail 只校验 local@domain.tld 形状
func ValidateEmail(email string) bool {
	return emailShape.MatchString(email)
}

// ValidateContactPhone 联系表单使用的宽松号码格式
func ValidateContactPhone(phone string) bool {
	return loosePhone.MatchString(strings.TrimSpace(phone))
}
