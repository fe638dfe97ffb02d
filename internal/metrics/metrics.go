package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OTP
	OTPSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "otp_sent_total",
			Help: "Total OTP codes dispatched",
		},
	)
	OTPVerifyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_verify_failures_total",
			Help: "Failed OTP verifications by reason",
		},
		[]string{"reason"}, // no_code|expired|exhausted|mismatch
	)

	// Payments
	PaymentsInitiated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_initiated_total",
			Help: "Gateway payment sessions opened",
		},
	)
	WebhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhooks_total",
			Help: "Gateway webhook deliveries by outcome",
		},
		[]string{"status"}, // successful|failed|ignored|unknown_order
	)

	// Ledger
	ApprovalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transactions_approved_total",
			Help: "Approved transactions by type",
		},
		[]string{"type"}, // deposit|withdrawal
	)
	RejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transactions_rejected_total",
			Help: "Rejected transactions",
		},
	)

	// Feed
	FeedSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_subscribers",
			Help: "Active transaction feed subscriptions",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(OTPSent)
	prometheus.MustRegister(OTPVerifyFailures)
	prometheus.MustRegister(PaymentsInitiated)
	prometheus.MustRegister(WebhooksTotal)
	prometheus.MustRegister(ApprovalsTotal)
	prometheus.MustRegister(RejectionsTotal)
	prometheus.MustRegister(FeedSubscribers)
	prometheus.MustRegister(WorkerQueueDepth)
}
