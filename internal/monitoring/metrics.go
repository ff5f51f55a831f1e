package monitoring

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Kubernetes metadata attached to every metric when present
var (
	kubernetesNamespace = os.Getenv("KUBERNETES_NAMESPACE")
	kubernetesPodName   = os.Getenv("KUBERNETES_POD_NAME")
	helmReleaseName     = os.Getenv("HELM_RELEASE_NAME")
)

// getKubernetesLabels returns the Kubernetes labels for metrics
func getKubernetesLabels() prometheus.Labels {
	labels := prometheus.Labels{}

	if kubernetesNamespace != "" {
		labels["kubernetes_namespace"] = kubernetesNamespace
	}
	if kubernetesPodName != "" {
		labels["kubernetes_pod_name"] = kubernetesPodName
	}
	if helmReleaseName != "" {
		labels["helm_release"] = helmReleaseName
	}

	return labels
}

// Registry holds every metric exported by the service
var (
	Registry = prometheus.NewRegistry()
	factory  = promauto.With(prometheus.WrapRegistererWith(getKubernetesLabels(), Registry))
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

var (
	// HTTP Request metrics
	RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fmtl_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fmtl_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	ActiveRequests = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "fmtl_active_requests",
			Help: "Number of requests currently being served",
		},
	)

	// Listener metrics
	FormatResolutionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fmtl_format_resolutions_total",
			Help: "Resolved request formats by the tier that produced them",
		},
		[]string{"source", "format"},
	)

	BodyDecodesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fmtl_body_decodes_total",
			Help: "Request body decode attempts by outcome",
		},
		[]string{"format", "outcome"},
	)

	DecodedBodyBytes = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fmtl_decoded_body_bytes",
			Help:    "Size of request bodies handed to a decoder",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"format"},
	)

	// Server metrics
	ServerInfo = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fmtl_server_info",
			Help: "Server build information",
		},
		[]string{"version", "commit", "build_time"},
	)
)

// SetServerInfo sets server build information
func SetServerInfo(version, commit, buildTime string) {
	ServerInfo.WithLabelValues(version, commit, buildTime).Set(1)
}

// RecordFormatResolution counts a resolved format. An empty format is
// reported as "none".
func RecordFormatResolution(source, format string) {
	if format == "" {
		format = "none"
	}
	FormatResolutionsTotal.WithLabelValues(source, format).Inc()
}

// RecordBodyDecode counts a decode attempt and, for bodies that reached a
// decoder, their size
func RecordBodyDecode(format, outcome string, bodySize int) {
	if format == "" {
		format = "none"
	}
	BodyDecodesTotal.WithLabelValues(format, outcome).Inc()
	if outcome == "decoded" || outcome == "failed" {
		DecodedBodyBytes.WithLabelValues(format).Observe(float64(bodySize))
	}
}
