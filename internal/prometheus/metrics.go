package prometheus

import "github.com/prometheus/client_golang/prometheus"

const (
	webhookDurationBucketStart  = 0.005
	webhookDurationBucketFactor = 2.0
	webhookDurationBucketCount  = 14
)

const (
	objectStoreBucketStart  = 0.05
	objectStoreBucketFactor = 2.0
	objectStoreBucketCount  = 12
)

var WebhookEventDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "webhook_event_duration_seconds",
		Help: "Time taken to apply a voice provider webhook event",
		Buckets: prometheus.ExponentialBuckets(
			webhookDurationBucketStart,
			webhookDurationBucketFactor,
			webhookDurationBucketCount,
		),
	},
	[]string{"event_type"},
)

var WebhookEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Voice provider webhook events by type and outcome",
	},
	[]string{"event_type", "outcome"},
)

var ObjectStoreOperationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "object_store_operation_duration_seconds",
		Help: "Time taken by object store operations",
		Buckets: prometheus.ExponentialBuckets(
			objectStoreBucketStart,
			objectStoreBucketFactor,
			objectStoreBucketCount,
		),
	},
	[]string{"operation"},
)

func init() {
	prometheus.MustRegister(WebhookEventDuration)
	prometheus.MustRegister(WebhookEventsTotal)
	prometheus.MustRegister(ObjectStoreOperationDuration)
}
