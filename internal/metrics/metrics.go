// Package metrics collects run statistics in Prometheus format. There is no
// HTTP listener; the registry is written to a textfile for node_exporter's
// textfile collector when the CLI is asked to.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector owns a private registry and the noteclean collectors on it.
// It satisfies ocr.Observer and pipeline.BatchObserver.
type Collector struct {
	registry *prometheus.Registry

	batchItems         *prometheus.CounterVec
	itemDuration       prometheus.Histogram
	engineInits        *prometheus.CounterVec
	engineInitDuration prometheus.Histogram
	ocrRequests        *prometheus.CounterVec
	ocrDuration        prometheus.Histogram
	cleanedImages      prometheus.Counter
}

// New creates a collector with a fresh registry. Go runtime collectors are
// included when withRuntime is set.
func New(withRuntime bool) *Collector {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector())
	}
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		batchItems: f.NewCounterVec(prometheus.CounterOpts{
			Name: "noteclean_batch_items_total",
			Help: "Batch items processed, by status",
		}, []string{"status"}),
		itemDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "noteclean_batch_item_duration_seconds",
			Help:    "Time to decode, clean and write one batch item",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		engineInits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "noteclean_ocr_engine_inits_total",
			Help: "OCR engine constructions, by language set and status",
		}, []string{"languages", "status"}),
		engineInitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "noteclean_ocr_engine_init_duration_seconds",
			Help:    "Time to construct an OCR engine",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		ocrRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "noteclean_ocr_requests_total",
			Help: "OCR extractions, by result status",
		}, []string{"status"}),
		ocrDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "noteclean_ocr_duration_seconds",
			Help:    "End-to-end OCR extraction time",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50},
		}),
		cleanedImages: f.NewCounter(prometheus.CounterOpts{
			Name: "noteclean_clean_images_total",
			Help: "Single images cleaned outside of batch runs",
		}),
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// BatchItem records one processed batch item.
func (c *Collector) BatchItem(status string, d time.Duration) {
	c.batchItems.WithLabelValues(status).Inc()
	c.itemDuration.Observe(d.Seconds())
}

// EngineConstructed records an OCR engine construction attempt.
func (c *Collector) EngineConstructed(languages string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.engineInits.WithLabelValues(languages, status).Inc()
	c.engineInitDuration.Observe(d.Seconds())
}

// Extraction records one OCR request.
func (c *Collector) Extraction(status string, d time.Duration) {
	c.ocrRequests.WithLabelValues(status).Inc()
	c.ocrDuration.Observe(d.Seconds())
}

// ImageCleaned counts a single-image clean.
func (c *Collector) ImageCleaned() { c.cleanedImages.Inc() }

// WriteTextfile writes the registry in text exposition format. The write is
// atomic, as required by the textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
