package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exports upload pipeline metrics. A nil Recorder is a no-op.
type Recorder struct {
	uploads  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	bytes    prometheus.Counter
}

// New registers the upload collectors on reg, reusing already registered ones.
func New(namespace string, reg prometheus.Registerer) (*Recorder, error) {
	if namespace == "" {
		namespace = "fileflow"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload pipeline runs by MIME family and outcome.",
		}, []string{"family", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Upload pipeline latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"family"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes written to object storage across all artifacts.",
		}),
	}

	var err error
	if r.uploads, err = register(reg, r.uploads); err != nil {
		return nil, fmt.Errorf("register uploads counter: %w", err)
	}
	if r.duration, err = register(reg, r.duration); err != nil {
		return nil, fmt.Errorf("register duration histogram: %w", err)
	}
	if r.bytes, err = register(reg, r.bytes); err != nil {
		return nil, fmt.Errorf("register bytes counter: %w", err)
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveUpload records one pipeline run.
func (r *Recorder) ObserveUpload(family string, d time.Duration, written int64, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.uploads.WithLabelValues(family, status).Inc()
	r.duration.WithLabelValues(family).Observe(d.Seconds())
	if err == nil && written > 0 {
		r.bytes.Add(float64(written))
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
