package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Stats 门户当前状态的统计。
type Stats struct {
	JobsByStatus        map[string]int
	ShortlistedTotal    int
	Companies           int
	UnreadNotifications int
	Admins              int
}

// StatsSource 提供统计数据。
type StatsSource interface {
	Stats() Stats
}

type portalCollector struct {
	source      StatsSource
	jobs        *prometheus.Desc
	shortlisted *prometheus.Desc
	companies   *prometheus.Desc
	unread      *prometheus.Desc
	admins      *prometheus.Desc
}

// NewPortalCollector 创建按抓取时读取状态的 Collector。
func NewPortalCollector(src StatsSource) prometheus.Collector {
	fqName := func(name string) string {
		return prometheus.BuildFQName(namespace, "", name)
	}
	return &portalCollector{
		source:      src,
		jobs:        prometheus.NewDesc(fqName("jobs"), "Jobs by status.", []string{"status"}, nil),
		shortlisted: prometheus.NewDesc(fqName("shortlisted_candidates"), "Rows in the merged shortlist.", nil, nil),
		companies:   prometheus.NewDesc(fqName("shortlist_companies"), "Companies with at least one shortlist.", nil, nil),
		unread:      prometheus.NewDesc(fqName("unread_notifications"), "Unread notifications in the registry.", nil, nil),
		admins:      prometheus.NewDesc(fqName("admins"), "Admin accounts excluding the built-in one.", nil, nil),
	}
}

// RegisterPortalCollector 在注册表上注册门户统计。
func RegisterPortalCollector(reg prometheus.Registerer, src StatsSource) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return reg.Register(NewPortalCollector(src))
}

func (c *portalCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.jobs
	ch <- c.shortlisted
	ch <- c.companies
	ch <- c.unread
	ch <- c.admins
}

func (c *portalCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()
	for status, n := range stats.JobsByStatus {
		ch <- prometheus.MustNewConstMetric(c.jobs, prometheus.GaugeValue, float64(n), status)
	}
	ch <- prometheus.MustNewConstMetric(c.shortlisted, prometheus.GaugeValue, float64(stats.ShortlistedTotal))
	ch <- prometheus.MustNewConstMetric(c.companies, prometheus.GaugeValue, float64(stats.Companies))
	ch <- prometheus.MustNewConstMetric(c.unread, prometheus.GaugeValue, float64(stats.UnreadNotifications))
	ch <- prometheus.MustNewConstMetric(c.admins, prometheus.GaugeValue, float64(stats.Admins))
}
