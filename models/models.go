package models

import (
	"fmt"
	"time"
)

// Source identifies which marketplace a record was scraped from.
type Source string

const (
	SourceWholesale Source = "wholesale"
	SourceRetail    Source = "retail"
)

// UnknownField is the sentinel stored when a secondary attribute could not
// be extracted. Secondary fields are never left empty silently.
const UnknownField = "unknown"

// SearchCriteria carries the query and limits for one research invocation.
// It is built once from configuration/CLI defaults and consumed read-only
// by every scraper tool.
type SearchCriteria struct {
	Query                string `json:"query"`
	MinMOQ               int    `json:"min_moq"`
	MinSellerTenureYears int    `json:"min_seller_tenure_years"`
	MaxResultsPerTool    int    `json:"max_results_per_tool"`
}

// Validate checks the invariants required before a research run starts.
func (c SearchCriteria) Validate() error {
	if c.Query == "" {
		return fmt.Errorf("criteria: query is required")
	}
	if c.MinMOQ < 0 {
		return fmt.Errorf("criteria: min_moq must be >= 0")
	}
	if c.MinSellerTenureYears < 0 {
		return fmt.Errorf("criteria: min_seller_tenure_years must be >= 0")
	}
	if c.MaxResultsPerTool < 1 {
		return fmt.Errorf("criteria: max_results_per_tool must be >= 1")
	}
	return nil
}

func (c SearchCriteria) String() string {
	return fmt.Sprintf("SearchCriteria(query=%q, max_per_tool=%d)", c.Query, c.MaxResultsPerTool)
}

// ProductRecord is one normalized scraped item with provenance. Records are
// constructed exclusively inside a scraper tool at extraction time and are
// immutable afterwards.
type ProductRecord struct {
	Source       Source    `json:"source"`
	Title        string    `json:"title"`
	PriceDisplay string    `json:"price_display"`
	PriceNumeric *float64  `json:"price_numeric,omitempty"`
	URL          string    `json:"url,omitempty"`
	MOQ          string    `json:"moq,omitempty"`
	SellerName   string    `json:"seller_name,omitempty"`
	SellerTenure string    `json:"seller_tenure,omitempty"`
	Category     string    `json:"category,omitempty"`
	Description  string    `json:"description,omitempty"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

// ToolResult is what every tool returns from Execute. A tool that fails
// internally reports Success=false with Error populated; it never lets a
// panic or error escape to the orchestrator.
type ToolResult struct {
	Success bool            `json:"success"`
	Records []ProductRecord `json:"records"`
	Error   string          `json:"error,omitempty"`
}

// PlanStep is a single planned tool invocation with its rationale.
type PlanStep struct {
	ToolName  string `json:"tool_name"`
	Rationale string `json:"rationale"`
}

// ResearchPlan is the structured output of the planning phase. It is either
// parsed whole from the planner response or replaced whole by the fixed
// fallback plan; partial plans are never assembled field by field.
type ResearchPlan struct {
	Goal            string     `json:"goal"`
	Steps           []PlanStep `json:"steps"`
	SuccessCriteria string     `json:"success_criteria,omitempty"`
}
