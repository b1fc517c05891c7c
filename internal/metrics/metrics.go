// Package metrics counts pipeline outcomes. There is no listener: the registry is
// flushed to a node-exporter style textfile when the process is done.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Recorder struct {
	reg           *prometheus.Registry
	generations   *prometheus.CounterVec
	regenerations *prometheus.CounterVec
	images        *prometheus.CounterVec
	exports       *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deckgen",
			Name:      "generations_total",
			Help:      "Full generation requests by document type and outcome.",
		}, []string{"doc_type", "outcome"}),
		regenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deckgen",
			Name:      "regenerations_total",
			Help:      "Single item regenerations by media request and outcome.",
		}, []string{"media", "outcome"}),
		images: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deckgen",
			Name:      "images_total",
			Help:      "Image synthesis calls by outcome.",
		}, []string{"outcome"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deckgen",
			Name:      "exports_total",
			Help:      "Exports by format and outcome.",
		}, []string{"format", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "deckgen",
			Name:      "generation_duration_seconds",
			Help:      "Wall time of a full generation including the image phase.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"doc_type"}),
	}
	r.reg.MustRegister(r.generations, r.regenerations, r.images, r.exports, r.duration)
	return r
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// A nil *Recorder is valid and records nothing.

func (r *Recorder) Generation(docType string, took time.Duration, err error) {
	if r == nil {
		return
	}
	r.generations.WithLabelValues(docType, outcome(err)).Inc()
	r.duration.WithLabelValues(docType).Observe(took.Seconds())
}

func (r *Recorder) Regeneration(media string, err error) {
	if r == nil {
		return
	}
	r.regenerations.WithLabelValues(media, outcome(err)).Inc()
}

func (r *Recorder) Image(err error) {
	if r == nil {
		return
	}
	r.images.WithLabelValues(outcome(err)).Inc()
}

func (r *Recorder) Export(format string, err error) {
	if r == nil {
		return
	}
	r.exports.WithLabelValues(format, outcome(err)).Inc()
}

func (r *Recorder) Gatherer() prometheus.Gatherer { return r.reg }

// WriteTextfile flushes the registry to path. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
