package credential

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var acquisitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "credential_acquisitions_total",
	Help: "Credential acquisitions by provider and result",
}, []string{"provider", "result"})

func observe(provider string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	acquisitionsTotal.WithLabelValues(provider, result).Inc()
}
