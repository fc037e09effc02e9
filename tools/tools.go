package tools

import (
	"context"
	"time"

	"github.com/DGFellow/product-research-agent/internal/browse"
	"github.com/DGFellow/product-research-agent/models"
)

// Navigator is the slice of the browser session that scraper tools borrow.
// One session backs every tool, so callers must not run Execute concurrently
// against the same Navigator.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
	AwaitSelector(ctx context.Context, selector string, timeout time.Duration) error
	PageMetadata(ctx context.Context) browse.PageMeta
	Evaluate(ctx context.Context, expr string, out interface{}) error
}

// Tool is the polymorphic contract every capability implements. The
// orchestrator dispatches through this interface only; it never special-cases
// a tool by name. Execute converts every internal failure into the returned
// ToolResult and never lets an error or panic cross its boundary.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, criteria models.SearchCriteria) models.ToolResult
}
