// Package observability records engine and ingest metrics in Prometheus.
package observability

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/InyerM/spends-assistant-web-sub000/internal/automation"
	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

// Resolution outcomes.
const (
	OutcomeUnmatched = "unmatched"
	OutcomeApplied   = "applied"
	OutcomeLinked    = "linked"
)

var outcomes = []string{OutcomeUnmatched, OutcomeApplied, OutcomeLinked}

// Metrics holds the Prometheus collectors for the spends engine. It satisfies
// automation.Reporter.
type Metrics struct {
	// Registry owns every collector below.
	Registry *prometheus.Registry

	rulesSkipped *prometheus.CounterVec
	linksSkipped *prometheus.CounterVec
	resolutions  *prometheus.CounterVec
	rulesApplied prometheus.Histogram
}

// NewMetrics registers the collectors in a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		rulesSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spends_rules_skipped_total",
				Help: "Malformed automation rules skipped during resolution.",
			},
			[]string{"reason"},
		),
		linksSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spends_transfer_links_skipped_total",
				Help: "Transfer pairings that could not be created.",
			},
			[]string{"reason"},
		),
		resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spends_resolutions_total",
				Help: "Candidate resolutions by outcome.",
			},
			[]string{"outcome"},
		),
		rulesApplied: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spends_rules_applied",
				Help:    "Rules credited per resolution.",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
			},
		),
	}
}

var _ automation.Reporter = (*Metrics)(nil)

// RuleSkipped counts a malformed rule by its reason.
func (m *Metrics) RuleSkipped(_ model.AutomationRule, err error) {
	reason := "unknown"
	var ruleErr *automation.RuleError
	if errors.As(err, &ruleErr) && ruleErr.Reason != "" {
		reason = ruleErr.Reason
	}
	m.rulesSkipped.WithLabelValues(reason).Inc()
}

// LinkSkipped counts a skipped transfer pairing.
func (m *Metrics) LinkSkipped(reason, _ string) {
	m.linksSkipped.WithLabelValues(reason).Inc()
}

// Resolved counts a finished resolution.
func (m *Metrics) Resolved(res *model.Resolved) {
	m.resolutions.WithLabelValues(Outcome(res)).Inc()
	m.rulesApplied.Observe(float64(len(res.AppliedRules)))
}

// Outcome classifies a resolution for the resolutions counter.
func Outcome(res *model.Resolved) string {
	switch {
	case res.Transfer != nil:
		return OutcomeLinked
	case len(res.AppliedRules) > 0:
		return OutcomeApplied
	default:
		return OutcomeUnmatched
	}
}

// Snapshot is a point-in-time summary of the counters.
type Snapshot struct {
	Resolutions  map[string]float64
	RulesSkipped float64
	LinksSkipped float64
}

// Total returns the number of resolutions across all outcomes.
func (s Snapshot) Total() float64 {
	var total float64
	for _, v := range s.Resolutions {
		total += v
	}
	return total
}

// Snapshot gathers current counter values.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Resolutions: make(map[string]float64, len(outcomes))}
	for _, outcome := range outcomes {
		snap.Resolutions[outcome] = getCounterValue(m.resolutions, outcome)
	}
	snap.RulesSkipped = sumCounterVec(m.rulesSkipped)
	snap.LinksSkipped = sumCounterVec(m.linksSkipped)
	return snap
}

// getCounterValue extracts the current value of cv for a single label value.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// sumCounterVec adds up every labelled child of cv.
func sumCounterVec(cv *prometheus.CounterVec) float64 {
	ch := make(chan prometheus.Metric, 16)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var total float64
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil {
			continue
		}
		if m.Counter != nil && m.Counter.Value != nil {
			total += *m.Counter.Value
		}
	}
	return total
}
