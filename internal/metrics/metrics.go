package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "placement_portal"

	formatLabel = "format"
	targetLabel = "target"
	typeLabel   = "type"
)

var uploadsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shortlist_uploads_total",
		Help:      "number of accepted shortlist uploads",
	},
	[]string{formatLabel},
)

var notificationsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "number of notifications added to the registry",
	},
	[]string{typeLabel},
)

var saveFailuresTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshot_save_failures_total",
		Help:      "number of failed snapshot writes by target",
	},
	[]string{targetLabel},
)

var sweptJobsTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "swept_jobs_total",
		Help:      "number of jobs moved to Interviewing after their deadline",
	},
)

func IncreaseUploadsTotal(format string) {
	uploadsTotalMetric.With(prometheus.Labels{formatLabel: format}).Inc()
}

func IncreaseNotificationsTotal(notificationType string) {
	notificationsTotalMetric.With(prometheus.Labels{typeLabel: notificationType}).Inc()
}

func IncreaseSaveFailures(target string) {
	saveFailuresTotalMetric.With(prometheus.Labels{targetLabel: target}).Inc()
}

func AddSweptJobs(n int) {
	if n > 0 {
		sweptJobsTotalMetric.Add(float64(n))
	}
}

// Handler 暴露默认注册表。
func Handler() http.Handler {
	return promhttp.Handler()
}

func init() {
	prometheus.MustRegister(uploadsTotalMetric)
	prometheus.MustRegister(notificationsTotalMetric)
	prometheus.MustRegister(saveFailuresTotalMetric)
	prometheus.MustRegister(sweptJobsTotalMetric)
}
