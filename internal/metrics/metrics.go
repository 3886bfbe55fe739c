package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// アプリ全体のカウンタ。/metrics でdefault registryごと公開する。
var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shop",
		Name:      "orders_created_total",
		Help:      "Number of orders successfully created from carts.",
	})

	PaymentIntentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shop",
		Name:      "payment_intents_created_total",
		Help:      "Number of payment intents requested from the provider.",
	})

	// result: applied / replayed / ignored / unknown_intent
	PaymentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Name:      "payment_events_total",
		Help:      "Provider webhook events by type and handling result.",
	}, []string{"type", "result"})
)
