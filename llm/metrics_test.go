package llm

import (
	"sync"
	"testing"
)

func TestMetricsToMapOmitsAbsentFields(t *testing.T) {
	m := Metrics{
		InputTokens:  Int64Ptr(10),
		OutputTokens: Int64Ptr(0),
		QueueTime:    Float64Ptr(0.25),
	}

	got := m.ToMap()
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d: %v", len(got), got)
	}
	if got[MetricInputTokens] != 10 {
		t.Errorf("expected input_tokens 10, got %v", got[MetricInputTokens])
	}
	// A reported zero must survive; it is not the same as absent.
	if v, ok := got[MetricOutputTokens]; !ok || v != 0 {
		t.Errorf("expected output_tokens 0 present, got %v (present=%v)", v, ok)
	}
	if _, ok := got[MetricTotalTokens]; ok {
		t.Error("expected total_tokens to be absent")
	}
}

func TestAccumulatorSumsAcrossCalls(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(Metrics{InputTokens: Int64Ptr(5), TotalTime: Float64Ptr(0.5)})
	acc.Add(Metrics{InputTokens: Int64Ptr(7)})

	totals := acc.Totals()
	if totals[MetricInputTokens] != 12 {
		t.Errorf("expected input_tokens 12, got %v", totals[MetricInputTokens])
	}
	// The second call reported no total_time; the running total must not reset.
	if totals[MetricTotalTime] != 0.5 {
		t.Errorf("expected total_time 0.5, got %v", totals[MetricTotalTime])
	}
}

func TestAccumulatorConcurrentAdd(t *testing.T) {
	acc := NewAccumulator()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc.Add(Metrics{OutputTokens: Int64Ptr(2)})
		}()
	}
	wg.Wait()

	if got := acc.Totals()[MetricOutputTokens]; got != 100 {
		t.Errorf("expected output_tokens 100, got %v", got)
	}
}

func TestTotalsReturnsCopy(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(Metrics{InputTokens: Int64Ptr(1)})

	totals := acc.Totals()
	totals[MetricInputTokens] = 999

	if got := acc.Totals()[MetricInputTokens]; got != 1 {
		t.Errorf("mutating the returned map changed internal state: got %v", got)
	}
}
