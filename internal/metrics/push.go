// Package metrics reports a run summary to a Prometheus Pushgateway.
// This tool is a one-shot batch job, so metrics are pushed at exit rather
// than scraped.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"lecca.io/olas-staker/internal/logger"
)

// RunSummary is what one invocation reports.
type RunSummary struct {
	ServiceID    int64
	Outcome      string
	TxsSubmitted int
	TxsConfirmed int
	Duration     time.Duration
	Failed       bool
}

// Push sends the summary to the Pushgateway at url. Push failures are
// logged and swallowed; metrics must never fail a staking run.
func Push(url string, s RunSummary) {
	if url == "" {
		return
	}

	registry := prometheus.NewRegistry()

	outcome := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "olas_staker_run_outcome",
		Help: "Outcome of the last staking run (1 for the outcome label that applies)",
	}, []string{"outcome"})
	submitted := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "olas_staker_txs_submitted_total",
		Help: "Transactions broadcast during the last run",
	})
	confirmed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "olas_staker_txs_confirmed_total",
		Help: "Transactions confirmed during the last run",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "olas_staker_run_duration_seconds",
		Help: "Wall-clock duration of the last run",
	})
	failed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "olas_staker_run_failed",
		Help: "1 if the last run ended in a failure",
	})

	registry.MustRegister(outcome, submitted, confirmed, duration, failed)

	outcome.WithLabelValues(s.Outcome).Set(1)
	submitted.Set(float64(s.TxsSubmitted))
	confirmed.Set(float64(s.TxsConfirmed))
	duration.Set(s.Duration.Seconds())
	if s.Failed {
		failed.Set(1)
	}

	err := push.New(url, "olas_staker").
		Grouping("service_id", fmt.Sprintf("%d", s.ServiceID)).
		Gatherer(registry).
		Push()
	if err != nil {
		logger.Warn("METRICS", "Failed to push run summary: %v", err)
		return
	}
	logger.Debug("METRICS", "Pushed run summary to %s", url)
}
