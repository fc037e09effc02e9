package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/DGFellow/product-research-agent/config"
)

var (
	toolExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "researcher_tool_executions_total",
		Help: "Scraper tool executions by tool and outcome",
	}, []string{"tool", "outcome"})
	recordsScraped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "researcher_records_scraped_total",
		Help: "Product records emitted by source",
	}, []string{"source"})
	llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "researcher_llm_requests_total",
		Help: "LLM requests by operation and outcome",
	}, []string{"operation", "outcome"})
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "researcher_run_duration_seconds",
		Help:    "Wall time of complete research runs",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
)

// Telemetry records run, tool and LLM events and keeps aggregate metrics.
type Telemetry struct {
	config  config.TelemetryConfig
	logger  *log.Logger
	metrics *Metrics
	mu      sync.RWMutex
}

// Metrics holds aggregate counters for the process lifetime.
type Metrics struct {
	TotalRuns      int64
	SuccessfulRuns int64
	FailedRuns     int64

	ToolExecutions  map[string]int64
	ToolFailures    map[string]int64
	RecordsBySource map[string]int64

	LLMRequests map[string]int64
	LLMFailures map[string]int64
}

// RunEvent captures one complete research run.
type RunEvent struct {
	ID        string
	Query     string
	StartTime time.Time
	EndTime   time.Time
	Success   bool
	Error     string
	Records   int
}

// ToolEvent captures one tool execution inside a run.
type ToolEvent struct {
	RunID    string
	Tool     string
	Source   string
	Duration time.Duration
	Success  bool
	Error    string
	Records  int
}

// LLMEvent captures one call to the completion service.
type LLMEvent struct {
	RunID     string
	Operation string // plan, summarize
	Duration  time.Duration
	Success   bool
}

// NewTelemetry creates a telemetry instance.
func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	return &Telemetry{
		config: cfg,
		logger: log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		metrics: &Metrics{
			ToolExecutions:  make(map[string]int64),
			ToolFailures:    make(map[string]int64),
			RecordsBySource: make(map[string]int64),
			LLMRequests:     make(map[string]int64),
			LLMFailures:     make(map[string]int64),
		},
	}
}

// RecordRunEvent records the outcome of a whole run.
func (t *Telemetry) RecordRunEvent(ev RunEvent) {
	if !t.config.Enabled {
		return
	}
	t.mu.Lock()
	t.metrics.TotalRuns++
	if ev.Success {
		t.metrics.SuccessfulRuns++
	} else {
		t.metrics.FailedRuns++
	}
	t.mu.Unlock()

	runDuration.Observe(ev.EndTime.Sub(ev.StartTime).Seconds())
	t.logger.Printf("run %s: success=%v records=%d in %v", ev.ID, ev.Success, ev.Records, ev.EndTime.Sub(ev.StartTime))
}

// RecordToolEvent records one tool execution.
func (t *Telemetry) RecordToolEvent(ev ToolEvent) {
	if !t.config.Enabled {
		return
	}
	t.mu.Lock()
	t.metrics.ToolExecutions[ev.Tool]++
	if !ev.Success {
		t.metrics.ToolFailures[ev.Tool]++
	}
	if ev.Source != "" {
		t.metrics.RecordsBySource[ev.Source] += int64(ev.Records)
	}
	t.mu.Unlock()

	outcome := "success"
	if !ev.Success {
		outcome = "failure"
	}
	toolExecutions.WithLabelValues(ev.Tool, outcome).Inc()
	if ev.Source != "" {
		recordsScraped.WithLabelValues(ev.Source).Add(float64(ev.Records))
	}
}

// RecordLLMEvent records one completion-service call.
func (t *Telemetry) RecordLLMEvent(ev LLMEvent) {
	if !t.config.Enabled {
		return
	}
	t.mu.Lock()
	t.metrics.LLMRequests[ev.Operation]++
	if !ev.Success {
		t.metrics.LLMFailures[ev.Operation]++
	}
	t.mu.Unlock()

	outcome := "success"
	if !ev.Success {
		outcome = "failure"
	}
	llmRequests.WithLabelValues(ev.Operation, outcome).Inc()
}

// GetMetrics returns a copy of the aggregate counters.
func (t *Telemetry) GetMetrics() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := Metrics{
		TotalRuns:       t.metrics.TotalRuns,
		SuccessfulRuns:  t.metrics.SuccessfulRuns,
		FailedRuns:      t.metrics.FailedRuns,
		ToolExecutions:  make(map[string]int64, len(t.metrics.ToolExecutions)),
		ToolFailures:    make(map[string]int64, len(t.metrics.ToolFailures)),
		RecordsBySource: make(map[string]int64, len(t.metrics.RecordsBySource)),
		LLMRequests:     make(map[string]int64, len(t.metrics.LLMRequests)),
		LLMFailures:     make(map[string]int64, len(t.metrics.LLMFailures)),
	}
	for k, v := range t.metrics.ToolExecutions {
		out.ToolExecutions[k] = v
	}
	for k, v := range t.metrics.ToolFailures {
		out.ToolFailures[k] = v
	}
	for k, v := range t.metrics.RecordsBySource {
		out.RecordsBySource[k] = v
	}
	for k, v := range t.metrics.LLMRequests {
		out.LLMRequests[k] = v
	}
	for k, v := range t.metrics.LLMFailures {
		out.LLMFailures[k] = v
	}
	return out
}
