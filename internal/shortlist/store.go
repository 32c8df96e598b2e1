package shortlist

import (
	"sort"

	"placement-portal/internal/dataset"
	"placement-portal/internal/model"
)

// UnknownCompany 职位已不存在时填入合成 Company 列的值。
const UnknownCompany = "Unknown Company"

// companyKeywords 用于识别表头中的公司列。
var companyKeywords = []string{"company", "organization"}

// CompanyCount 某公司的入围人数。
type CompanyCount struct {
	Company    string `json:"company"`
	Candidates int    `json:"candidates"`
}

// Store 保存每个职位的入围名单，并在每次变更后同步重算全局名单与公司统计。
// 非并发安全，由调用方串行化访问。
type Store struct {
	perJob  map[int]*dataset.Dataset
	jobs    map[int]model.Job
	legacy  *dataset.Dataset
	global  *dataset.Dataset
	counts  map[string]int
	order   []string
	banner  bool
	version uint64
}

// NewStore 创建空的名单存储。
func NewStore() *Store {
	s := &Store{perJob: map[int]*dataset.Dataset{}, jobs: map[int]model.Job{}}
	s.recompute()
	return s
}

// SetForJob 替换职位名单并点亮横幅提示。ds 为 nil 时等同于 ClearForJob。
func (s *Store) SetForJob(jobID int, ds *dataset.Dataset) {
	if ds == nil {
		s.ClearForJob(jobID)
		return
	}
	s.perJob[jobID] = ds.Clone()
	s.legacy = nil
	s.banner = true
	s.recompute()
}

// ClearForJob 删除职位名单，不存在时返回 false。
func (s *Store) ClearForJob(jobID int) bool {
	if _, ok := s.perJob[jobID]; !ok {
		return false
	}
	delete(s.perJob, jobID)
	s.legacy = nil
	s.recompute()
	return true
}

// SyncJobs 替换用于查询公司名的职位索引。
func (s *Store) SyncJobs(jobs []model.Job) {
	index := make(map[int]model.Job, len(jobs))
	for _, j := range jobs {
		index[j.ID] = j
	}
	s.jobs = index
	s.recompute()
}

// Restore 从快照恢复。legacy 仅在 perJob 为空时作为全局名单使用。
func (s *Store) Restore(perJob map[int]*dataset.Dataset, legacy *dataset.Dataset) {
	s.perJob = make(map[int]*dataset.Dataset, len(perJob))
	for id, ds := range perJob {
		if ds != nil {
			s.perJob[id] = ds.Clone()
		}
	}
	s.legacy = nil
	if len(s.perJob) == 0 {
		s.legacy = legacy.Clone()
	}
	s.recompute()
}

// ForJob 返回职位名单副本，没有上传时为 nil。
func (s *Store) ForJob(jobID int) *dataset.Dataset {
	return s.perJob[jobID].Clone()
}

// PerJob 返回全部职位名单的副本。
func (s *Store) PerJob() map[int]*dataset.Dataset {
	out := make(map[int]*dataset.Dataset, len(s.perJob))
	for id, ds := range s.perJob {
		out[id] = ds.Clone()
	}
	return out
}

// Global 返回合并后的全局名单，没有任何名单时为 nil。
func (s *Store) Global() *dataset.Dataset {
	return s.global.Clone()
}

// CompanyAggregates 返回公司到入围人数的映射。
func (s *Store) CompanyAggregates() map[string]int {
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Companies 按首次出现顺序返回公司统计。
func (s *Store) Companies() []CompanyCount {
	out := make([]CompanyCount, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, CompanyCount{Company: name, Candidates: s.counts[name]})
	}
	return out
}

// CandidatesForCompany 合并公司名完全相同（区分大小写）的所有职位名单；
// 没有匹配时退回到按公司列过滤全局名单。都没有结果时返回 nil。
func (s *Store) CandidatesForCompany(name string) *dataset.Dataset {
	var out *dataset.Dataset
	for _, id := range s.jobIDs() {
		ds := s.perJob[id]
		job, ok := s.jobs[id]
		if !ok || job.Company != name || len(ds.Headers) == 0 {
			continue
		}
		if out == nil {
			out = dataset.New(ds.Headers)
		}
		out.Append(ds.Rows...)
	}
	if out != nil {
		return out
	}

	if s.global == nil {
		return nil
	}
	col := s.global.ColumnIndex(companyKeywords...)
	if col < 0 {
		return nil
	}
	return s.global.Filter(func(row []any) bool {
		return dataset.CellString(row[col]) == name
	})
}

// Banner 表示是否展示“名单已更新”横幅。
func (s *Store) Banner() bool { return s.banner }

// DismissBanner 关闭横幅。
func (s *Store) DismissBanner() { s.banner = false }

// Version 每次重算加一。
func (s *Store) Version() uint64 { return s.version }

func (s *Store) jobIDs() []int {
	ids := make([]int, 0, len(s.perJob))
	for id := range s.perJob {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Store) recompute() {
	s.version++
	s.counts = map[string]int{}
	s.order = nil

	ids := s.jobIDs()
	if len(ids) == 0 {
		s.global = s.legacy.Clone()
		s.countByColumn()
		return
	}

	var (
		global *dataset.Dataset
		inject bool
	)
	for _, id := range ids {
		ds := s.perJob[id]
		if len(ds.Headers) == 0 {
			continue
		}
		job, known := s.jobs[id]
		if global == nil {
			headers := ds.Headers
			inject = ds.ColumnIndex("company") < 0
			if inject {
				headers = append([]string{"Company"}, headers...)
			}
			global = dataset.New(headers)
		}

		company := UnknownCompany
		if known {
			company = job.Company
		}
		for _, row := range ds.Rows {
			if inject {
				row = append([]any{company}, row...)
			}
			global.Append(row)
		}
		if known {
			s.add(job.Company, ds.Len())
		}
	}
	s.global = global
}

func (s *Store) countByColumn() {
	col := s.global.ColumnIndex(companyKeywords...)
	if col < 0 {
		return
	}
	for _, row := range s.global.Rows {
		name := dataset.CellString(row[col])
		if name == "" {
			name = UnknownCompany
		}
		s.add(name, 1)
	}
}

func (s *Store) add(company string, n int) {
	if _, ok := s.counts[company]; !ok {
		s.order = append(s.order, company)
	}
	s.counts[company] += n
}
