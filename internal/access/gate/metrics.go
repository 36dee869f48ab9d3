package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeAllow        = "allow"
	outcomePublic       = "allow_public"
	outcomeAuthRequired = "auth_required"
	outcomeForbidden    = "forbidden"
)

var decisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "trustcore",
	Subsystem: "gate",
	Name:      "decisions_total",
	Help:      "Authorization gate decisions by outcome.",
}, []string{"outcome"})
