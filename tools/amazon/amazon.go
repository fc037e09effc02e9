package amazon

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/DGFellow/product-research-agent/models"
	"github.com/DGFellow/product-research-agent/tools"
	"github.com/DGFellow/product-research-agent/utils"
)

const (
	resultContainerSelector = `[data-component-type="s-search-result"]`
	titleSelector           = "h2 a span"
	priceSelector           = ".a-price-whole"
	linkSelector            = "h2 a"
)

// Scraper searches the retail marketplace search results.
type Scraper struct {
	nav             tools.Navigator
	baseURL         string
	selectorTimeout time.Duration
	logger          *log.Logger
}

// New builds the retail scraper tool on top of the shared session.
func New(nav tools.Navigator, baseURL string, selectorTimeout time.Duration) *Scraper {
	return &Scraper{
		nav:             nav,
		baseURL:         baseURL,
		selectorTimeout: selectorTimeout,
		logger:          log.New(log.Writer(), "[AMAZON] ", log.LstdFlags),
	}
}

func (s *Scraper) Name() string        { return "amazon_scraper" }
func (s *Scraper) Description() string { return "Search Amazon for retail product listings" }

// Execute runs one bounded search against the retail site. Search-level
// failures yield Success=false; card-level failures only shrink the list.
func (s *Scraper) Execute(ctx context.Context, criteria models.SearchCriteria) (res models.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("recovered: %v", r)
			res = models.ToolResult{Success: false, Error: fmt.Sprintf("search failed: %v", r)}
		}
	}()

	s.logger.Printf("searching for: %s", criteria.Query)

	searchURL := fmt.Sprintf("%s/s?k=%s", s.baseURL, utils.UrlQuery(criteria.Query))
	if err := s.nav.Navigate(ctx, searchURL); err != nil {
		s.logger.Printf("search failed: %v", err)
		return models.ToolResult{Success: false, Error: "search failed: " + err.Error()}
	}
	if err := s.nav.AwaitSelector(ctx, resultContainerSelector, s.selectorTimeout); err != nil {
		meta := s.nav.PageMetadata(ctx)
		s.logger.Printf("search failed on %q (%s): %v", meta.Title, meta.URL, err)
		return models.ToolResult{Success: false, Error: "search failed: " + err.Error()}
	}

	script := tools.CardScript(resultContainerSelector, titleSelector, priceSelector, linkSelector, "", criteria.MaxResultsPerTool)
	var cards []tools.Card
	if err := s.nav.Evaluate(ctx, script, &cards); err != nil {
		s.logger.Printf("card extraction failed: %v", err)
		return models.ToolResult{Success: false, Error: "search failed: " + err.Error()}
	}

	// the retail site shows bare whole-dollar figures; normalize the
	// display price the way a shopper would read it
	for i := range cards {
		if p := strings.TrimSpace(cards[i].Price); p != "" && !strings.HasPrefix(p, "$") {
			cards[i].Price = "$" + p
		}
	}

	records := tools.BuildRecords(s.logger, models.SourceRetail, s.baseURL, cards, criteria.MaxResultsPerTool, tools.Sentinels{})

	s.logger.Printf("found %d products", len(records))
	return models.ToolResult{Success: true, Records: records}
}
