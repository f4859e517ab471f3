package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_downloads_total",
		Help: "Download requests by outcome.",
	}, []string{"outcome"})

	loginRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_login_requests_total",
		Help: "Login link requests and verifications by outcome.",
	}, []string{"stage", "outcome"})

	webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_webhook_events_total",
		Help: "Payment webhook events by type and outcome.",
	}, []string{"event_type", "outcome"})

	purchasesExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_purchases_expired_total",
		Help: "Purchases moved to expired by the sweep job.",
	})
)
