package portal

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"placement-portal/internal/apperr"
	"placement-portal/internal/archive"
	"placement-portal/internal/dataset"
	"placement-portal/internal/metrics"
	"placement-portal/internal/model"
	"placement-portal/internal/notification"
	"placement-portal/internal/shortlist"

	"go.uber.org/zap"
)

// GlobalExportName 全局名单导出文件名。
const GlobalExportName = "shortlisted_candidates.csv"

// UploadResult 名单上传结果。
type UploadResult struct {
	JobID      int    `json:"jobId"`
	Rows       int    `json:"rows"`
	ArchiveKey string `json:"archiveKey,omitempty"`
}

// UploadShortlist 解析上传文件并替换职位名单。格式错误时不修改任何状态。
func (s *State) UploadShortlist(ctx context.Context, jobID int, fileName string, data []byte) (UploadResult, error) {
	ds, err := dataset.Decode(fileName, data)
	if err != nil {
		return UploadResult{}, err
	}

	var job model.Job
	err = s.mutate(ctx, func(t *turn) error {
		var ok bool
		job, ok = s.jobByID(jobID)
		if !ok {
			return apperr.NotFound("Job not found. Please try again.", nil)
		}
		s.shortlists.SetForJob(jobID, ds)
		t.announce(s.addNote(notification.Draft{
			Type:    notification.TypeSuccess,
			Title:   job.Company + " Shortlist Updated!",
			Message: fmt.Sprintf("%d candidates shortlisted for %s position.", ds.Len(), job.Title),
			Action: &notification.Action{
				Kind: notification.ActionShortlisted,
				Text: "View Shortlist",
			},
		}))
		return nil
	})
	if err != nil {
		return UploadResult{}, err
	}
	metrics.IncreaseUploadsTotal(strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), "."))

	res := UploadResult{JobID: jobID, Rows: ds.Len()}
	res.ArchiveKey = s.archiveUpload(ctx, jobID, fileName, data)
	if s.uploads != nil {
		rec := &model.UploadRecord{JobID: jobID, FileName: fileName, Rows: res.Rows, ArchiveKey: res.ArchiveKey}
		if err := s.uploads.RecordUpload(ctx, rec); err != nil {
			s.logger.Warn("record upload", zap.Int("job_id", jobID), zap.Error(err))
		}
	}
	return res, nil
}

// archiveUpload 把原始文件复制到归档，失败时只记录日志并返回空 key。
func (s *State) archiveUpload(ctx context.Context, jobID int, fileName string, data []byte) string {
	if _, ok := s.archive.(archive.Nop); ok {
		return ""
	}
	key := archive.Key(jobID, fileName, s.now())
	if err := s.archive.Put(ctx, key, data, archive.ContentType(fileName)); err != nil {
		s.logger.Warn("archive upload", zap.String("key", key), zap.Error(err))
		return ""
	}
	return key
}

// ClearShortlist 删除职位名单。
func (s *State) ClearShortlist(ctx context.Context, jobID int) error {
	return s.mutate(ctx, func(*turn) error {
		if _, ok := s.jobByID(jobID); !ok {
			return apperr.NotFound("Job not found", nil)
		}
		if !s.shortlists.ClearForJob(jobID) {
			return apperr.NotFound("No shortlisted candidates to delete for this job", nil)
		}
		return nil
	})
}

// JobShortlist 返回职位名单，term 非空时按关键字过滤。
func (s *State) JobShortlist(jobID int, term string) (*dataset.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds := s.shortlists.ForJob(jobID)
	if ds == nil {
		return nil, apperr.NotFound("No shortlist data found for this job", nil)
	}
	return dataset.Search(ds, term), nil
}

// GlobalShortlist 返回合并名单，没有任何名单时为 nil。
func (s *State) GlobalShortlist(term string) *dataset.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dataset.Search(s.shortlists.Global(), term)
}

// Companies 返回公司入围人数，按首次出现顺序。
func (s *State) Companies() []shortlist.CompanyCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shortlists.Companies()
}

// CompanyCandidates 返回某公司的全部入围者，公司名区分大小写。
func (s *State) CompanyCandidates(name, term string) (*dataset.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds := s.shortlists.CandidatesForCompany(name)
	if ds == nil {
		return nil, apperr.NotFound(fmt.Sprintf("No shortlisted candidates found for %s", name), nil)
	}
	return dataset.Search(ds, term), nil
}

// ExportJobShortlist 导出职位名单，文件名为 {company}_{title}_shortlisted.csv。
func (s *State) ExportJobShortlist(jobID int) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobByID(jobID)
	ds := s.shortlists.ForJob(jobID)
	if !ok || ds == nil {
		return "", "", apperr.NotFound("No data to export", nil)
	}
	return fmt.Sprintf("%s_%s_shortlisted.csv", job.Company, job.Title), ds.ToDelimitedText(), nil
}

// ExportGlobalShortlist 导出（过滤后的）合并名单。
func (s *State) ExportGlobalShortlist(term string) (string, string, error) {
	ds := s.GlobalShortlist(term)
	if ds == nil {
		return "", "", apperr.NotFound("No data to export", nil)
	}
	return GlobalExportName, ds.ToDelimitedText(), nil
}

// ExportCompanyShortlist 导出某公司的完整名单，文件名为 {company}_all_shortlisted.csv。
func (s *State) ExportCompanyShortlist(name string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds := s.shortlists.CandidatesForCompany(name)
	if ds == nil {
		return "", "", apperr.NotFound("No data to export", nil)
	}
	return name + "_all_shortlisted.csv", ds.ToDelimitedText(), nil
}
