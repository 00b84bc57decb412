package llm

import (
	"sync"
)

// Metric keys shared by the per-call Metrics and the lifetime Accumulator.
const (
	MetricInputTokens      = "input_tokens"
	MetricOutputTokens     = "output_tokens"
	MetricTotalTokens      = "total_tokens"
	MetricPromptTime       = "prompt_time"
	MetricQueueTime        = "queue_time"
	MetricCompletionTime   = "completion_time"
	MetricTotalTime        = "total_time"
	MetricTimeToFirstToken = "time_to_first_token"
)

// Metrics holds the counters for a single model invocation. Every field is
// optional: a nil pointer means the vendor did not report the value, which is
// distinct from a reported zero. Only reported fields are folded into the
// lifetime accumulator, so a missing value never resets a running total.
type Metrics struct {
	InputTokens      *int64
	OutputTokens     *int64
	TotalTokens      *int64
	PromptTime       *float64
	QueueTime        *float64
	CompletionTime   *float64
	TotalTime        *float64
	TimeToFirstToken *float64
}

// Int64Ptr returns a pointer to v. Convenience for populating Metrics.
func Int64Ptr(v int64) *int64 { return &v }

// Float64Ptr returns a pointer to v. Convenience for populating Metrics.
func Float64Ptr(v float64) *float64 { return &v }

// ToMap returns the reported counters keyed by metric name. Absent fields are
// omitted entirely.
func (m Metrics) ToMap() map[string]float64 {
	out := make(map[string]float64)
	if m.InputTokens != nil {
		out[MetricInputTokens] = float64(*m.InputTokens)
	}
	if m.OutputTokens != nil {
		out[MetricOutputTokens] = float64(*m.OutputTokens)
	}
	if m.TotalTokens != nil {
		out[MetricTotalTokens] = float64(*m.TotalTokens)
	}
	if m.PromptTime != nil {
		out[MetricPromptTime] = *m.PromptTime
	}
	if m.QueueTime != nil {
		out[MetricQueueTime] = *m.QueueTime
	}
	if m.CompletionTime != nil {
		out[MetricCompletionTime] = *m.CompletionTime
	}
	if m.TotalTime != nil {
		out[MetricTotalTime] = *m.TotalTime
	}
	if m.TimeToFirstToken != nil {
		out[MetricTimeToFirstToken] = *m.TimeToFirstToken
	}
	return out
}

// Accumulator sums reported metric fields across every call made through one
// adapter instance. It is safe for concurrent use.
type Accumulator struct {
	mu     sync.Mutex
	totals map[string]float64
}

// NewAccumulator creates an empty lifetime accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{totals: make(map[string]float64)}
}

// Add folds one call's reported metrics into the running totals.
func (a *Accumulator) Add(m Metrics) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, v := range m.ToMap() {
		a.totals[k] += v
	}
}

// Totals returns a copy of the running totals.
func (a *Accumulator) Totals() map[string]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]float64, len(a.totals))
	for k, v := range a.totals {
		out[k] = v
	}
	return out
}
