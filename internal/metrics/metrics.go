// Package metrics exposes Prometheus collectors for HTTP traffic and the file
// sharing lifecycle.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload results.
const (
	UploadSucceeded    = "success"
	UploadFailed       = "failed"
	UploadInconsistent = "inconsistent"
	UploadRejected     = "rejected"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamshare_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "teamshare_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamshare_uploads_total",
		Help: "File uploads by result",
	}, []string{"result"})

	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamshare_upload_bytes_total",
		Help: "Bytes written to the blob store by successful uploads",
	})

	uploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "teamshare_upload_duration_seconds",
		Help:    "Time from upload start to metadata write",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	activeUploads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "teamshare_active_uploads",
		Help: "Uploads currently transferring",
	})

	deletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamshare_deletes_total",
		Help: "File deletions by terminal outcome",
	}, []string{"outcome"})
)

func UploadStarted() {
	activeUploads.Inc()
}

// UploadFinished records one upload attempt that got past the identity check.
func UploadFinished(result string, bytes int64, elapsed time.Duration) {
	activeUploads.Dec()
	uploadsTotal.WithLabelValues(result).Inc()
	if result == UploadSucceeded {
		uploadBytesTotal.Add(float64(bytes))
		uploadDuration.Observe(elapsed.Seconds())
	}
}

func UploadRejectedBeforeStart() {
	uploadsTotal.WithLabelValues(UploadRejected).Inc()
}

func DeleteFinished(outcome string) {
	deletesTotal.WithLabelValues(outcome).Inc()
}

// Middleware labels requests with the matched route pattern so path
// parameters do not inflate cardinality.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = "unmatched"
		}
		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		// Label values are retained by the collectors.
		method := utils.CopyString(c.Method())
		httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
