package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/DGFellow/product-research-agent/config"
	"github.com/DGFellow/product-research-agent/internal/agent/telemetry"
	"github.com/DGFellow/product-research-agent/models"
	"github.com/DGFellow/product-research-agent/provider"
	"github.com/DGFellow/product-research-agent/tools"
)

// Planner wraps the completion service with the two operations the agent
// needs: turning a goal into a step plan and turning counts into an insight.
type Planner struct {
	cfg       config.LLMConfig
	llm       provider.Provider
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// NewPlanner creates a planner instance.
func NewPlanner(cfg config.LLMConfig, llm provider.Provider, tel *telemetry.Telemetry) *Planner {
	return &Planner{
		cfg:       cfg,
		llm:       llm,
		telemetry: tel,
		logger:    log.New(log.Writer(), "[PLANNER] ", log.LstdFlags),
	}
}

// IsAvailable reports whether the completion service answers its health
// probe. Callers use it to log degraded-mode runs; planning itself already
// degrades without it.
func (p *Planner) IsAvailable(ctx context.Context) bool {
	return p.llm.IsAvailable(ctx)
}

// PlanResearch asks the service for a structured plan over the given tools.
// The contract is strictly two-outcome: either the response parses into a
// complete plan, or the fixed fallback plan covering every registered tool
// is returned. It never returns an error and never returns an empty plan.
func (p *Planner) PlanResearch(ctx context.Context, query string, registered []tools.Tool) models.ResearchPlan {
	start := time.Now()
	prompt := p.planningPrompt(query, registered)

	response, err := p.llm.Query(ctx, "You are a research planner. Always respond with valid JSON.",
		prompt, p.cfg.PlanningTemperature, p.cfg.PlanningMaxTokens)
	if p.telemetry != nil {
		p.telemetry.RecordLLMEvent(telemetry.LLMEvent{Operation: "plan", Duration: time.Since(start), Success: err == nil})
	}
	if err != nil {
		p.logger.Printf("planning request failed: %v, using fallback plan", err)
		return p.fallbackPlan(query, registered)
	}

	plan, err := parsePlanResponse(response)
	if err != nil {
		p.logger.Printf("plan parsing failed: %v, using fallback plan", err)
		return p.fallbackPlan(query, registered)
	}
	p.logger.Printf("plan ready: %d steps", len(plan.Steps))
	return plan
}

// Summarize asks for a short natural-language analysis of the aggregated
// counts. The raw text is returned verbatim; any failure degrades to an
// empty string rather than an error.
func (p *Planner) Summarize(ctx context.Context, countsBySource map[models.Source]int, query string) string {
	start := time.Now()

	var lines []string
	for source, count := range countsBySource {
		lines = append(lines, fmt.Sprintf("%s: %d products", source, count))
	}
	prompt := fmt.Sprintf(`Analyze these results:

Search: %s
%s

Provide 2-3 sentence analysis with one key insight.`, query, strings.Join(lines, "\n"))

	response, err := p.llm.Query(ctx, "You are a product analyst. Be concise.",
		prompt, p.cfg.AnalysisTemperature, p.cfg.AnalysisMaxTokens)
	if p.telemetry != nil {
		p.telemetry.RecordLLMEvent(telemetry.LLMEvent{Operation: "summarize", Duration: time.Since(start), Success: err == nil})
	}
	if err != nil {
		p.logger.Printf("analysis request failed: %v", err)
		return ""
	}
	return strings.TrimSpace(response)
}

// planningPrompt lists the registered tools by name and description so the
// service plans only over capabilities that actually exist.
func (p *Planner) planningPrompt(query string, registered []tools.Tool) string {
	var toolLines []string
	for _, t := range registered {
		toolLines = append(toolLines, fmt.Sprintf("- %s: %s", t.Name(), t.Description()))
	}
	return fmt.Sprintf(`Create a research plan for: %q

Available tools:
%s

Respond in JSON:
{
  "goal": "research objective",
  "steps": [
    {"tool_name": "name", "rationale": "why"}
  ],
  "success_criteria": "what a good outcome looks like"
}`, query, strings.Join(toolLines, "\n"))
}

// fallbackPlan is the fixed deterministic plan used whenever the service's
// output is unusable: every registered tool, in registration order, with a
// generic rationale.
func (p *Planner) fallbackPlan(query string, registered []tools.Tool) models.ResearchPlan {
	plan := models.ResearchPlan{
		Goal:            fmt.Sprintf("Research %s", query),
		SuccessCriteria: "collect product listings from every available source",
	}
	for _, t := range registered {
		plan.Steps = append(plan.Steps, models.PlanStep{
			ToolName:  t.Name(),
			Rationale: t.Description(),
		})
	}
	return plan
}

// parsePlanResponse scans the response for the first balanced brace-delimited
// substring and parses it strictly. A plan missing its goal or steps is
// rejected whole; callers substitute the fallback instead of salvaging
// fields.
func parsePlanResponse(response string) (models.ResearchPlan, error) {
	jsonStr := firstBalancedObject(response)
	if jsonStr == "" {
		return models.ResearchPlan{}, fmt.Errorf("no JSON found in response")
	}

	var plan models.ResearchPlan
	if err := json.Unmarshal([]byte(jsonStr), &plan); err != nil {
		return models.ResearchPlan{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if plan.Goal == "" {
		return models.ResearchPlan{}, fmt.Errorf("plan has no goal")
	}
	if len(plan.Steps) == 0 {
		return models.ResearchPlan{}, fmt.Errorf("plan has no steps")
	}
	for i, step := range plan.Steps {
		if step.ToolName == "" {
			return models.ResearchPlan{}, fmt.Errorf("plan step %d has no tool name", i)
		}
	}
	return plan, nil
}

// firstBalancedObject returns the first {...} substring with balanced
// braces, or "" when none exists.
func firstBalancedObject(s string) string {
	start := -1
	depth := 0
	for i, ch := range s {
		if ch == '{' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == '}' {
			if depth > 0 {
				depth--
			}
			if depth == 0 && start != -1 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
