package model

// InputKind 每个步骤的输入类型，渲染和校验都按它分派
type InputKind string

const (
	InputText    InputKind = "text"
	InputEmail   InputKind = "email"
	InputTel     InputKind = "tel"
	InputAddress InputKind = "address"
	InputSelect  InputKind = "select"
	InputRange   InputKind = "range"
	InputFile    InputKind = "file"
)

type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type RangeSpec struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Step int `json:"step"`
}

// StepDefinition 单个问题的静态定义，启动后不再修改
type StepDefinition struct {
	Question    string     `json:"question"`
	Subtext     string     `json:"subtext,omitempty"`
	Field       Field      `json:"field"`
	Kind        InputKind  `json:"type"`
	Placeholder string     `json:"placeholder,omitempty"`
	Options     []Choice   `json:"options,omitempty"`
	Range       *RangeSpec `json:"range,omitempty"`
}

// Receipt 一次成功提交的回执
type Receipt struct {
	RecordID     string `json:"record_id"`
	SubmissionID int64  `json:"submission_id,string"`
}

type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyError   NotificationLevel = "error"
)

// Notification 一次性的提示消息（toast），读取后即清空
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
}
