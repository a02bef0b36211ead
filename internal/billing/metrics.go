package billing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var recordsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "billing_records_ingested_total",
	Help: "Billing provider records written to the record store.",
}, []string{"kind"})
