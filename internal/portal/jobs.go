package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"placement-portal/internal/apperr"
	"placement-portal/internal/model"
	"placement-portal/internal/notification"

	"go.uber.org/zap"
)

// deadlineDisplay 通知正文中截止时间的格式。
const deadlineDisplay = "2 Jan 2006, 03:04 PM"

// Jobs 返回全部职位副本。
func (s *State) Jobs() []model.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneJobs(s.jobs)
}

// Job 按 ID 查找职位。
func (s *State) Job(id int) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.jobIndex(id)
	if i < 0 {
		return model.Job{}, apperr.NotFound("Job not found", nil)
	}
	return cloneJob(s.jobs[i]), nil
}

// SearchJobs 按公司、职位名或地点过滤，term 为空时返回全部。
func (s *State) SearchJobs(term string) []model.Job {
	needle := strings.ToLower(strings.TrimSpace(term))
	s.mu.Lock()
	defer s.mu.Unlock()
	if needle == "" {
		return cloneJobs(s.jobs)
	}
	out := make([]model.Job, 0)
	for _, j := range s.jobs {
		if strings.Contains(strings.ToLower(j.Company), needle) ||
			strings.Contains(strings.ToLower(j.Title), needle) ||
			strings.Contains(strings.ToLower(j.Location), needle) {
			out = append(out, cloneJob(j))
		}
	}
	return out
}

// CompanyNames 返回职位中出现过的公司名，按首次出现顺序。
func (s *State) CompanyNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(s.jobs))
	out := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		if _, ok := seen[j.Company]; ok || j.Company == "" {
			continue
		}
		seen[j.Company] = struct{}{}
		out = append(out, j.Company)
	}
	return out
}

// CreateJob 新增职位，ID 取现有最大值加一，并发布“New Job Opening”通知。
func (s *State) CreateJob(ctx context.Context, input model.Job) (model.Job, error) {
	job, err := normalizeJob(input)
	if err != nil {
		return model.Job{}, err
	}
	err = s.mutate(ctx, func(t *turn) error {
		job.ID = s.nextJobID()
		job.Applicants = nil
		s.jobs = append(s.jobs, job)
		s.shortlists.SyncJobs(s.jobs)
		t.announce(s.addNote(notification.Draft{
			Type:    notification.TypeSuccess,
			Title:   "New Job Opening: " + job.Title,
			Message: jobOpeningMessage(job),
			Action: &notification.Action{
				Kind:  notification.ActionJobDetail,
				Text:  "View Details",
				JobID: job.ID,
			},
		}))
		return nil
	})
	if err != nil {
		return model.Job{}, err
	}
	return cloneJob(job), nil
}

// UpdateJob 用表单字段覆盖职位，保留 ID 与报名名单。
func (s *State) UpdateJob(ctx context.Context, id int, input model.Job) (model.Job, error) {
	job, err := normalizeJob(input)
	if err != nil {
		return model.Job{}, err
	}
	err = s.mutate(ctx, func(*turn) error {
		i := s.jobIndex(id)
		if i < 0 {
			return apperr.NotFound("Job not found", nil)
		}
		job.ID = id
		job.Applicants = s.jobs[i].Applicants
		s.jobs[i] = job
		s.shortlists.SyncJobs(s.jobs)
		return nil
	})
	if err != nil {
		return model.Job{}, err
	}
	return cloneJob(job), nil
}

// SetJobStatus 修改职位状态。
func (s *State) SetJobStatus(ctx context.Context, id int, status string) (model.Job, error) {
	st, ok := model.ParseJobStatus(status)
	if !ok {
		return model.Job{}, apperr.InvalidInput(fmt.Sprintf("unknown job status %q", status), nil)
	}
	var out model.Job
	err := s.mutate(ctx, func(*turn) error {
		i := s.jobIndex(id)
		if i < 0 {
			return apperr.NotFound("Job not found", nil)
		}
		s.jobs[i].Status = st
		out = cloneJob(s.jobs[i])
		return nil
	})
	return out, err
}

// DeleteJob 删除职位并级联删除其名单。
func (s *State) DeleteJob(ctx context.Context, id int) error {
	return s.mutate(ctx, func(*turn) error {
		i := s.jobIndex(id)
		if i < 0 {
			return apperr.NotFound("Job not found", nil)
		}
		s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
		s.shortlists.ClearForJob(id)
		s.shortlists.SyncJobs(s.jobs)
		return nil
	})
}

// SweepDeadlines 把截止时间早于 now 的 Open 职位改为 Interviewing，返回改动数量。
// 没有改动时不保存也不产生通知。
func (s *State) SweepDeadlines(ctx context.Context, now time.Time) (int, error) {
	changed := 0
	err := s.mutate(ctx, func(t *turn) error {
		changed = s.sweepLocked(now)
		if changed == 0 {
			t.unchanged()
			return nil
		}
		s.addNote(notification.Draft{
			Type:    notification.TypeInfo,
			Title:   "Some jobs have been automatically moved to Interviewing status (deadlines passed)",
			Message: fmt.Sprintf("%d job(s) moved to Interviewing.", changed),
		})
		return nil
	})
	return changed, err
}

func (s *State) sweepLocked(now time.Time) int {
	changed := 0
	for i := range s.jobs {
		if s.jobs[i].Status == model.JobStatusOpen && s.jobs[i].PastDeadline(now) {
			s.jobs[i].Status = model.JobStatusInterviewing
			changed++
			s.logger.Info("job moved to interviewing, deadline passed",
				zap.Int("job_id", s.jobs[i].ID),
				zap.String("company", s.jobs[i].Company),
				zap.String("title", s.jobs[i].Title))
		}
	}
	return changed
}

func (s *State) jobIndex(id int) int {
	for i, j := range s.jobs {
		if j.ID == id {
			return i
		}
	}
	return -1
}

func (s *State) nextJobID() int {
	maxID := 0
	for _, j := range s.jobs {
		if j.ID > maxID {
			maxID = j.ID
		}
	}
	return maxID + 1
}

func (s *State) jobByID(id int) (model.Job, bool) {
	i := s.jobIndex(id)
	if i < 0 {
		return model.Job{}, false
	}
	return s.jobs[i], true
}

func normalizeJob(in model.Job) (model.Job, error) {
	in.Company = strings.TrimSpace(in.Company)
	in.Title = strings.TrimSpace(in.Title)
	if in.Company == "" || in.Title == "" {
		return model.Job{}, apperr.InvalidInput("company and title are required", nil)
	}
	if in.Status == "" {
		in.Status = model.JobStatusOpen
	} else {
		st, ok := model.ParseJobStatus(string(in.Status))
		if !ok {
			return model.Job{}, apperr.InvalidInput(fmt.Sprintf("unknown job status %q", in.Status), nil)
		}
		in.Status = st
	}
	return in, nil
}

func jobOpeningMessage(j model.Job) string {
	msg := fmt.Sprintf("%s is hiring for %s position.", j.Company, j.Title)
	if !j.Deadline.IsZero() {
		msg += " Application deadline: " + j.Deadline.Format(deadlineDisplay)
	}
	return msg
}

func cloneJob(j model.Job) model.Job {
	if j.Applicants != nil {
		rows := make([][]any, len(j.Applicants))
		for i, r := range j.Applicants {
			rows[i] = append([]any(nil), r...)
		}
		j.Applicants = rows
	}
	return j
}

func cloneJobs(jobs []model.Job) []model.Job {
	out := make([]model.Job, len(jobs))
	for i, j := range jobs {
		out[i] = cloneJob(j)
	}
	return out
}
