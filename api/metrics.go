package api

import (
	"errors"

	"github.com/aqlanhadi/statex/extractor"
	"github.com/aqlanhadi/statex/extractor/common"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	extractions     *prometheus.CounterVec
	transactions    prometheus.Counter
	discontinuities prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statex_extractions_total",
			Help: "Statements processed, by outcome.",
		}, []string{"outcome"}),
		transactions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statex_transactions_extracted_total",
			Help: "Transaction records extracted across all statements.",
		}),
		discontinuities: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statex_balance_discontinuities_total",
			Help: "Rows whose balance does not follow from the previous row.",
		}),
	}
	reg.MustRegister(m.extractions, m.transactions, m.discontinuities)
	return m
}

func (m *metrics) observe(statement common.Statement, err error) {
	m.extractions.WithLabelValues(outcome(err)).Inc()
	m.transactions.Add(float64(len(statement.Transactions)))
	m.discontinuities.Add(float64(statement.Discontinuities))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, extractor.ErrNoTransactions):
		return "no_transactions"
	case errors.Is(err, extractor.ErrInputTooLarge):
		return "too_large"
	case errors.Is(err, extractor.ErrMalformedInput):
		return "malformed"
	default:
		return "error"
	}
}
