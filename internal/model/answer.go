package model

import "strings"

// Field 答案集合中的字段名，和前端表单 name 保持一致
type Field string

const (
	FieldFirstName       Field = "firstName"
	FieldLastName        Field = "lastName"
	FieldEmail           Field = "email"
	FieldPhone           Field = "phone"
	FieldAddress         Field = "address"
	FieldHomeOwnership   Field = "homeOwnership"
	FieldElectricityBill Field = "electricityBill"
	FieldAttachment      Field = "attachment"
)

// HomeOwnership 选项值
const (
	HomeOwnershipOwn   = "own"
	HomeOwnershipRent  = "rent"
	HomeOwnershipOther = "other"
)

// DefaultElectricityBill 滑块默认值
const DefaultElectricityBill = "400"

// Attachment 用户选择的账单文件，整个会话期间保存在内存里
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// AnswerSet 一个问卷会话唯一的答案记录，原地修改，只有 reset 时整体替换
type AnswerSet struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Address         string
	HomeOwnership   string
	ElectricityBill string
	Attachment      *Attachment
}

func NewAnswerSet() AnswerSet {
	return AnswerSet{ElectricityBill: DefaultElectricityBill}
}

// FullName 名和姓拼接，去掉首尾空白
func (a AnswerSet) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
}

// Text 返回文本类字段的当前值，attachment 和未知字段返回 false
func (a AnswerSet) Text(field Field) (string, bool) {
	switch field {
	case FieldFirstName:
		return a.FirstName, true
	case FieldLastName:
		return a.LastName, true
	case FieldEmail:
		return a.Email, true
	case FieldPhone:
		return a.Phone, true
	case FieldAddress:
		return a.Address, true
	case FieldHomeOwnership:
		return a.HomeOwnership, true
	case FieldElectricityBill:
		return a.ElectricityBill, true
	}
	return "", false
}

// SetText 写入文本类字段，未知字段返回 false
func (a *AnswerSet) SetText(field Field, value string) bool {
	switch field {
	case FieldFirstName:
		a.FirstName = value
	case FieldLastName:
		a.LastName = value
	case FieldEmail:
		a.Email = value
	case FieldPhone:
		a.Phone = value
	case FieldAddress:
		a.Address = value
	case FieldHomeOwnership:
		a.HomeOwnership = value
	case FieldElectricityBill:
		a.ElectricityBill = value
	default:
		return false
	}
	return true
}
