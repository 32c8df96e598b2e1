package model

import (
	"encoding/json"
	"strings"
	"time"
)

// JobStatus 职位状态。
type JobStatus string

const (
	JobStatusOpen         JobStatus = "Open"
	JobStatusInterviewing JobStatus = "Interviewing"
	JobStatusClosed       JobStatus = "Closed"
)

// ParseJobStatus 不区分大小写解析状态，未知值返回 false。
func ParseJobStatus(s string) (JobStatus, bool) {
	for _, st := range []JobStatus{JobStatusOpen, JobStatusInterviewing, JobStatusClosed} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

// Job 表示一个校招职位
// - ID: 自增整数，取现有最大值加一
// - Deadline: 截止时间，过期后由调度器把 Open 改为 Interviewing
// - Applicants: 报名名单，二维数组形式，首行为表头
type Job struct {
	ID               int       `json:"id"`
	Company          string    `json:"company"`
	Title            string    `json:"title"`
	Status           JobStatus `json:"status"`
	Deadline         time.Time `json:"deadline"`
	Description      string    `json:"description,omitempty"`
	Location         string    `json:"location,omitempty"`
	Salary           string    `json:"salary,omitempty"`
	Eligibility      string    `json:"eligibility,omitempty"`
	Batches          string    `json:"batches,omitempty"`
	Branches         string    `json:"branches,omitempty"`
	SelectionProcess string    `json:"selectionProcess,omitempty"`
	FormLink         string    `json:"formLink,omitempty"`
	Applicants       [][]any   `json:"applicants,omitempty"`
}

// PastDeadline 判断职位是否已过截止时间，未设置截止时间视为未过期。
func (j Job) PastDeadline(now time.Time) bool {
	return !j.Deadline.IsZero() && j.Deadline.Before(now)
}

// deadlineLayouts 兼容表单提交的本地时间格式。
var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// UnmarshalJSON 宽松解析截止时间，无法识别的格式视为未设置。
func (j *Job) UnmarshalJSON(data []byte) error {
	type alias Job
	aux := struct {
		*alias
		Deadline string `json:"deadline"`
	}{alias: (*alias)(j)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	j.Deadline = parseDeadline(aux.Deadline)
	return nil
}

func parseDeadline(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Admin 管理员账号，密码以明文保存。
type Admin struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdDate"`
}
