// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm_messaging"

var (
	// DispatchAttempts counts per-recipient sends. status: sent, failed.
	DispatchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_attempts_total",
			Help:      "Per-recipient campaign send attempts.",
		},
		[]string{"status"},
	)

	// CampaignsFinished counts campaigns leaving SENDING. outcome: all_sent, partial, all_failed.
	CampaignsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "campaigns_finished_total",
			Help:      "Campaign send loops that reached a terminal state.",
		},
		[]string{"outcome"},
	)

	CampaignDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "campaign_send_duration_seconds",
			Help:      "Wall time of a full campaign send loop.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Duration of HTTP requests to the messaging provider.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "outcome"},
	)

	// WebhookEvents counts decoded inbound events. kind: status, message, unrecognized.
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Inbound webhook events by kind.",
		},
		[]string{"kind"},
	)

	// WebhookFailures counts processing errors swallowed after acknowledging the provider.
	WebhookFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_failures_total",
			Help:      "Inbound webhook processing failures by stage.",
		},
		[]string{"stage"},
	)

	StatusRowsUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_status_rows_updated_total",
			Help:      "Delivery log rows updated by status webhooks.",
		},
	)

	OptOuts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "opt_outs_total",
			Help:      "Inbound opt-out keyword matches.",
		},
	)

	// LeadsResolved counts lead resolutions. result: updated, adopted, created.
	LeadsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_resolved_total",
			Help:      "Inbound contacts resolved to a lead.",
		},
		[]string{"result"},
	)
)
