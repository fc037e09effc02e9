package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/DGFellow/product-research-agent/internal/agent/telemetry"
	"github.com/DGFellow/product-research-agent/internal/browse"
	"github.com/DGFellow/product-research-agent/models"
	"github.com/DGFellow/product-research-agent/tools"
)

// State tracks where the agent is in its lifecycle.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateReady         State = "ready"
	StatePlanning      State = "planning"
	StateCollecting    State = "collecting"
	StateAnalyzing     State = "analyzing"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// ErrNotInitialized is returned when Research is called before a successful
// Initialize.
var ErrNotInitialized = errors.New("agent not initialized")

var agentTracer trace.Tracer = otel.Tracer("product-research-agent/internal/agent")

// Result is the outcome of one research run: the full record aggregate plus
// the plan that drove it and the analysis text (may be empty).
type Result struct {
	RunID    string                 `json:"run_id"`
	Query    string                 `json:"query"`
	Plan     models.ResearchPlan    `json:"plan"`
	Records  []models.ProductRecord `json:"records"`
	Analysis string                 `json:"analysis,omitempty"`
	Started  time.Time              `json:"started"`
	Finished time.Time              `json:"finished"`
}

// CountsBySource tallies the aggregate per marketplace.
func (r Result) CountsBySource() map[models.Source]int {
	counts := make(map[models.Source]int)
	for _, rec := range r.Records {
		counts[rec.Source]++
	}
	return counts
}

// Agent drives the plan -> collect -> analyze sequence. It owns the shared
// browser session for the duration of a run; registered tools borrow it one
// at a time, which is why collection is strictly sequential.
type Agent struct {
	session   *browse.Session
	planner   *Planner
	tools     []tools.Tool
	telemetry *telemetry.Telemetry
	logger    *log.Logger
	state     State
}

// New builds an agent over the given session, planner and tool set. The
// session must not be shared with another agent.
func New(session *browse.Session, planner *Planner, toolset []tools.Tool, tel *telemetry.Telemetry) *Agent {
	return &Agent{
		session:   session,
		planner:   planner,
		tools:     toolset,
		telemetry: tel,
		logger:    log.New(log.Writer(), "[AGENT] ", log.LstdFlags),
		state:     StateUninitialized,
	}
}

// State returns the agent's current lifecycle state.
func (a *Agent) State() State { return a.state }

// Initialize acquires the browser session. Bring-up failure is fatal: the
// agent moves to StateFailed and the error surfaces to the caller.
func (a *Agent) Initialize(ctx context.Context) error {
	a.logger.Printf("initializing browser session")
	if err := a.session.Start(ctx); err != nil {
		a.state = StateFailed
		return fmt.Errorf("initialize: %w", err)
	}
	a.state = StateReady
	return nil
}

// Close releases the browser session unconditionally. Idempotent, and safe
// even when Initialize never succeeded.
func (a *Agent) Close() {
	a.session.Close()
	if a.state != StateFailed {
		a.state = StateUninitialized
	}
}

// Research runs the full phase sequence for one criteria and returns the
// aggregate record list. Partial failures never surface as errors: a failed
// plan degrades to the fallback, a failed tool contributes zero records, and
// zero total records is a valid successful outcome. It errors only when the
// agent was never initialized or the criteria are invalid.
func (a *Agent) Research(ctx context.Context, criteria models.SearchCriteria) (Result, error) {
	if a.state == StateUninitialized || a.state == StateFailed {
		return Result{}, ErrNotInitialized
	}
	if err := criteria.Validate(); err != nil {
		return Result{}, err
	}

	runID := uuid.New().String()
	started := time.Now()
	ctx, span := agentTracer.Start(ctx, "agent.research",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.query", criteria.Query),
		))
	defer span.End()

	a.logger.Printf("research %s: %q", runID, criteria.Query)

	if !a.planner.IsAvailable(ctx) {
		a.logger.Printf("completion service unavailable, continuing with fallback planning")
	}

	// Phase 1: planning. Never fatal; the planner guarantees a plan.
	a.state = StatePlanning
	planCtx, planSpan := agentTracer.Start(ctx, "agent.plan")
	plan := a.planner.PlanResearch(planCtx, criteria.Query, a.tools)
	planSpan.SetAttributes(attribute.Int("plan.steps", len(plan.Steps)))
	planSpan.SetStatus(codes.Ok, "completed")
	planSpan.End()
	a.logger.Printf("goal: %s (%d steps)", plan.Goal, len(plan.Steps))

	// Phase 2: collection. Tools run one at a time over the shared
	// session; a failing tool is noted and skipped, never fatal.
	a.state = StateCollecting
	var records []models.ProductRecord
	for _, tool := range a.tools {
		toolStart := time.Now()
		toolCtx, toolSpan := agentTracer.Start(ctx, "agent.collect",
			trace.WithAttributes(attribute.String("tool.name", tool.Name())))

		res := tool.Execute(toolCtx, criteria)

		source := ""
		if len(res.Records) > 0 {
			source = string(res.Records[0].Source)
		}
		if a.telemetry != nil {
			a.telemetry.RecordToolEvent(telemetry.ToolEvent{
				RunID:    runID,
				Tool:     tool.Name(),
				Source:   source,
				Duration: time.Since(toolStart),
				Success:  res.Success,
				Error:    res.Error,
				Records:  len(res.Records),
			})
		}
		if !res.Success {
			a.logger.Printf("tool %s failed: %s", tool.Name(), res.Error)
			toolSpan.SetStatus(codes.Error, res.Error)
			toolSpan.End()
			continue
		}
		records = append(records, res.Records...)
		toolSpan.SetAttributes(attribute.Int("tool.records", len(res.Records)))
		toolSpan.SetStatus(codes.Ok, "completed")
		toolSpan.End()
	}

	result := Result{
		RunID:   runID,
		Query:   criteria.Query,
		Plan:    plan,
		Records: records,
		Started: started,
	}

	// Phase 3: analysis, skipped when nothing was collected. "No products
	// found" is a successful empty run, not an error.
	a.state = StateAnalyzing
	if len(records) > 0 {
		analyzeCtx, analyzeSpan := agentTracer.Start(ctx, "agent.analyze")
		result.Analysis = a.planner.Summarize(analyzeCtx, result.CountsBySource(), criteria.Query)
		analyzeSpan.SetStatus(codes.Ok, "completed")
		analyzeSpan.End()
	} else {
		a.logger.Printf("no records collected, skipping analysis")
	}

	a.state = StateDone
	result.Finished = time.Now()
	if a.telemetry != nil {
		a.telemetry.RecordRunEvent(telemetry.RunEvent{
			ID:        runID,
			Query:     criteria.Query,
			StartTime: started,
			EndTime:   result.Finished,
			Success:   true,
			Records:   len(records),
		})
	}
	span.SetAttributes(attribute.Int("run.records", len(records)))
	span.SetStatus(codes.Ok, "completed")
	a.logger.Printf("research %s complete: %d records in %v", runID, len(records), result.Finished.Sub(started))
	return result, nil
}
