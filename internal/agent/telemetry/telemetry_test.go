package telemetry

import (
	"testing"
	"time"

	"github.com/DGFellow/product-research-agent/config"
)

func TestRecordEvents(t *testing.T) {
	tel := NewTelemetry(config.TelemetryConfig{Enabled: true})

	tel.RecordToolEvent(ToolEvent{Tool: "alibaba_scraper", Source: "wholesale", Success: true, Records: 5})
	tel.RecordToolEvent(ToolEvent{Tool: "amazon_scraper", Success: false, Error: "search failed"})
	tel.RecordLLMEvent(LLMEvent{Operation: "plan", Success: true})
	tel.RecordLLMEvent(LLMEvent{Operation: "summarize", Success: false})
	tel.RecordRunEvent(RunEvent{ID: "r1", StartTime: time.Now(), EndTime: time.Now().Add(time.Second), Success: true, Records: 5})

	m := tel.GetMetrics()
	if m.TotalRuns != 1 || m.SuccessfulRuns != 1 || m.FailedRuns != 0 {
		t.Fatalf("run counters: %+v", m)
	}
	if m.ToolExecutions["alibaba_scraper"] != 1 || m.ToolExecutions["amazon_scraper"] != 1 {
		t.Fatalf("tool executions: %v", m.ToolExecutions)
	}
	if m.ToolFailures["amazon_scraper"] != 1 || m.ToolFailures["alibaba_scraper"] != 0 {
		t.Fatalf("tool failures: %v", m.ToolFailures)
	}
	if m.RecordsBySource["wholesale"] != 5 {
		t.Fatalf("records by source: %v", m.RecordsBySource)
	}
	if m.LLMRequests["plan"] != 1 || m.LLMFailures["summarize"] != 1 {
		t.Fatalf("llm counters: %v %v", m.LLMRequests, m.LLMFailures)
	}
}

func TestDisabledTelemetryIsQuiet(t *testing.T) {
	tel := NewTelemetry(config.TelemetryConfig{Enabled: false})
	tel.RecordToolEvent(ToolEvent{Tool: "alibaba_scraper", Success: true, Records: 3})
	tel.RecordRunEvent(RunEvent{ID: "r1", Success: true})

	m := tel.GetMetrics()
	if m.TotalRuns != 0 || len(m.ToolExecutions) != 0 {
		t.Fatalf("disabled telemetry recorded events: %+v", m)
	}
}

func TestGetMetricsReturnsCopy(t *testing.T) {
	tel := NewTelemetry(config.TelemetryConfig{Enabled: true})
	tel.RecordToolEvent(ToolEvent{Tool: "alibaba_scraper", Success: true})

	m := tel.GetMetrics()
	m.ToolExecutions["alibaba_scraper"] = 99

	if tel.GetMetrics().ToolExecutions["alibaba_scraper"] != 1 {
		t.Fatalf("GetMetrics leaked internal state")
	}
}
