package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	collectDuration prom.Histogram
	pageResults     *prom.CounterVec
	sectionResults  *prom.CounterVec
	loaderFetches   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers collection metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		collectDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitetree",
			Name:      "collect_duration_seconds",
			Help:      "Total duration of one collection run",
			Buckets:   prom.DefBuckets,
		}),
		pageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitetree",
			Name:      "page_results_total",
			Help:      "Page build results by outcome",
		}, []string{"result"}),
		sectionResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitetree",
			Name:      "section_results_total",
			Help:      "Section build results by outcome",
		}, []string{"result"}),
		loaderFetches: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitetree",
			Name:      "loader_fetches_total",
			Help:      "Data loader network fetches by outcome",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.collectDuration, pr.pageResults, pr.sectionResults, pr.loaderFetches)
	return pr
}

func (p *PrometheusRecorder) ObserveCollectDuration(d time.Duration) {
	if p == nil || p.collectDuration == nil {
		return
	}
	p.collectDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageResult(result ResultLabel) {
	if p == nil || p.pageResults == nil {
		return
	}
	p.pageResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncSectionResult(result ResultLabel) {
	if p == nil || p.sectionResults == nil {
		return
	}
	p.sectionResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncLoaderFetch(success bool) {
	if p == nil || p.loaderFetches == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.loaderFetches.WithLabelValues(res).Inc()
}
