package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/tcontctl/internal/protocol"
	"github.com/danmuck/tcontctl/internal/protocol/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registerOnce sync.Once

	// Registry holds every tcontctl collector.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcontctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tcontctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	decodeRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcontctl",
			Subsystem: "decode",
			Name:      "records_total",
			Help:      "Message records decoded, by direction and result.",
		},
		[]string{"direction", "result"},
	)
	decodeFields = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcontctl",
			Subsystem: "decode",
			Name:      "fields_total",
			Help:      "Fields rendered, by encoding.",
		},
		[]string{"encoding"},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcontctl",
			Subsystem: "decode",
			Name:      "errors_total",
			Help:      "Record decode failures, by error kind.",
		},
		[]string{"kind"},
	)
	decodeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tcontctl",
			Subsystem: "decode",
			Name:      "record_duration_seconds",
			Help:      "Time spent decoding one record.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		Registry.MustRegister(
			collectors.NewGoCollector(),
			httpRequests,
			httpDuration,
			decodeRecords,
			decodeFields,
			decodeErrors,
			decodeDuration,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// DecodeMetrics records per-record decode outcomes.
type DecodeMetrics struct{}

var decodeMetrics = &DecodeMetrics{}

// Decode returns the process-wide decode metrics recorder.
func Decode() *DecodeMetrics {
	RegisterMetrics()
	return decodeMetrics
}

// ObserveRecord accounts one decoded record. A nil receiver is a no-op.
func (m *DecodeMetrics) ObserveRecord(direction string, duration time.Duration, decoded *message.Decoded, err error) {
	if m == nil {
		return
	}
	decodeDuration.Observe(duration.Seconds())
	if err != nil {
		decodeRecords.WithLabelValues(direction, "error").Inc()
		decodeErrors.WithLabelValues(protocol.KindOf(err).String()).Inc()
		return
	}
	decodeRecords.WithLabelValues(direction, "ok").Inc()
	if decoded == nil {
		return
	}
	for _, f := range decoded.Fields {
		decodeFields.WithLabelValues(f.Value.Encoding.String()).Inc()
	}
}

// WriteTextfile dumps the registry in the text exposition format.
func WriteTextfile(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, Registry)
}
