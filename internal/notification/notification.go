package notification

import (
	"strings"
	"time"
)

// Type 通知级别。
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// ParseType 解析通知级别，未知值按 info 处理。
func ParseType(s string) Type {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeSuccess, TypeWarning, TypeError:
		return t
	default:
		return TypeInfo
	}
}

// ActionKind 通知按钮触发的行为。
type ActionKind string

const (
	ActionLink        ActionKind = "link"
	ActionShortlisted ActionKind = "shortlisted"
	ActionJobDetail   ActionKind = "job_detail"
	ActionNotFound    ActionKind = "not_found"
	ActionAck         ActionKind = "ack"
)

// Action 通知按钮。Kind 决定点击后的效果，JobID 仅用于 job_detail。
type Action struct {
	Kind  ActionKind `json:"kind"`
	Text  string     `json:"text"`
	Link  string     `json:"link,omitempty"`
	JobID int        `json:"jobId,omitempty"`
}

// Notification 一条站内通知。
type Notification struct {
	ID        int64     `json:"id"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
	Action    *Action   `json:"action,omitempty"`
}

// Draft 新增或编辑通知时的输入。Action.Kind 为空时按链接有无推断。
type Draft struct {
	Type    Type
	Title   string
	Message string
	Action  *Action
}

// Persisted 通知的持久化形式，不含按钮行为。
type Persisted struct {
	ID        int64            `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      string           `json:"type"`
	Timestamp int64            `json:"timestamp"`
	Read      bool             `json:"read,omitempty"`
	Action    *PersistedAction `json:"action,omitempty"`
}

// PersistedAction 按钮的声明式字段。
type PersistedAction struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// EffectKind 执行按钮后调用方需要做的事。
type EffectKind string

const (
	EffectOpenLink EffectKind = "open_link"
	EffectNavigate EffectKind = "navigate"
	EffectNotice   EffectKind = "notice"
)

// 导航目标视图。
const (
	ViewShortlisted = "shortlisted"
	ViewJobDetail   = "job-detail"
)

// Effect 执行按钮的结果。
type Effect struct {
	Kind     EffectKind `json:"kind"`
	URL      string     `json:"url,omitempty"`
	View     string     `json:"view,omitempty"`
	JobID    int        `json:"jobId,omitempty"`
	Message  string     `json:"message,omitempty"`
	Severity Type       `json:"severity,omitempty"`
}
