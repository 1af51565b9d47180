package utils

import (
	"math"
	"strconv"
	"strings"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatPhoneNumber 每次输入都会调用：0 开头改写为 61，补上 +，按固定位置插入空格
func FormatPhoneNumber(value string) string {
	formatted := DigitsOnly(value)
	if strings.HasPrefix(formatted, "0") {
		formatted = "61" + formatted[1:]
	}

	if len(formatted) >= 2 {
		formatted = "+" + formatted
	}
	if len(formatted) >= 5 {
		formatted = formatted[:3] + " " + formatted[3:]
	}
	if len(formatted) >= 9 {
		formatted = formatted[:7] + " " + formatted[7:]
	}
	if len(formatted) >= 13 {
		formatted = formatted[:11] + " " + formatted[11:]
	}

	return formatted
}

// FormatFileSize 按 1024 进制换算到最大整单位，保留两位小数并去掉末尾 0
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	value := float64(bytes)
	i := 0
	for value >= 1024 && i < len(sizeUnits)-1 {
		value /= 1024
		i++
	}
	value = math.Round(value*100) / 100

	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[i]
}
