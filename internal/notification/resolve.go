package notification

import (
	"strings"

	"placement-portal/internal/model"
)

// Resolve 由按钮文字、链接与通知内容推导按钮行为，优先级固定：
// 链接 > 含 shortlisted > 含 details（按公司或职位名查找职位）> 确认。
func Resolve(text, link, title, message string, jobs []model.Job) Action {
	a := Action{Text: text, Link: link}
	lowerText := strings.ToLower(text)
	switch {
	case strings.TrimSpace(link) != "":
		a.Kind = ActionLink
	case containsFold(text, "shortlisted") || containsFold(title, "shortlisted") || containsFold(message, "shortlisted"):
		a.Kind = ActionShortlisted
	case strings.Contains(lowerText, "view details") || strings.Contains(lowerText, "details"):
		if job, ok := matchJob(title, message, jobs); ok {
			a.Kind = ActionJobDetail
			a.JobID = job.ID
		} else {
			a.Kind = ActionNotFound
		}
	default:
		a.Kind = ActionAck
	}
	return a
}

// matchJob 返回第一个公司名或职位名出现在标题或正文中的职位。
func matchJob(title, message string, jobs []model.Job) (model.Job, bool) {
	for _, j := range jobs {
		for _, needle := range []string{j.Company, j.Title} {
			if needle == "" {
				continue
			}
			if strings.Contains(title, needle) || strings.Contains(message, needle) {
				return j, true
			}
		}
	}
	return model.Job{}, false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
