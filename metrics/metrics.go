package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelComuna = "comuna"
	labelKind   = "kind"
	labelStage  = "stage"
)

// Recorder holds the scrape counters. A nil *Recorder records nothing, so
// callers never need to check whether metrics are enabled.
type Recorder struct {
	registry *prometheus.Registry

	searchPages  *prometheus.CounterVec
	links        *prometheus.CounterVec
	records      *prometheus.CounterVec
	errors       *prometheus.CounterVec
	loopsExpired *prometheus.CounterVec
	pageDuration *prometheus.SummaryVec
}

// NewRecorder registers the scrape metrics on a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		searchPages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_search_pages_total",
			Help: "search result pages visited",
		}, []string{labelComuna}),
		links: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_links_total",
			Help: "distinct listing links collected",
		}, []string{labelComuna}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_records_total",
			Help: "apartment records extracted",
		}, []string{labelComuna}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_errors_total",
			Help: "recoverable errors by kind",
		}, []string{labelKind}),
		loopsExpired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_loops_expired_total",
			Help: "bounded loops cut short by their time budget",
		}, []string{labelStage}),
		pageDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "portal_page_duration_seconds",
			Help:       "time spent loading and reading one page",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{labelStage}),
	}
	r.registry.MustRegister(
		r.searchPages,
		r.links,
		r.records,
		r.errors,
		r.loopsExpired,
		r.pageDuration,
	)
	return r
}

// Registry exposes the underlying registry for the HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) SearchPage(comuna string) {
	if r == nil {
		return
	}
	r.searchPages.WithLabelValues(comuna).Inc()
}

func (r *Recorder) Links(comuna string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.links.WithLabelValues(comuna).Add(float64(n))
}

func (r *Recorder) Record(comuna string) {
	if r == nil {
		return
	}
	r.records.WithLabelValues(comuna).Inc()
}

// Error counts one recoverable error. kind is the scraper error kind name.
func (r *Recorder) Error(kind string) {
	if r == nil {
		return
	}
	r.errors.WithLabelValues(kind).Inc()
}

func (r *Recorder) LoopExpired(stage string) {
	if r == nil {
		return
	}
	r.loopsExpired.WithLabelValues(stage).Inc()
}

// ObservePage records how long a page took since start.
func (r *Recorder) ObservePage(stage string, start time.Time) {
	if r == nil {
		return
	}
	r.pageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
