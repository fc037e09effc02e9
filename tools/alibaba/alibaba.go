package alibaba

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/DGFellow/product-research-agent/models"
	"github.com/DGFellow/product-research-agent/tools"
	"github.com/DGFellow/product-research-agent/utils"
)

// Selectors for the wholesale search-result page. Site redesigns break these
// first; a broken selector degrades to an empty result set, never a crash.
const (
	resultContainerSelector = ".organic-list-offer"
	titleSelector           = ".organic-list-offer-title"
	priceSelector           = ".organic-list-offer-price"
	linkSelector            = "a"
)

// Scraper searches the wholesale marketplace and extracts product cards from
// its organic result list.
type Scraper struct {
	nav             tools.Navigator
	baseURL         string
	selectorTimeout time.Duration
	logger          *log.Logger
}

// New builds the wholesale scraper tool on top of the shared session.
func New(nav tools.Navigator, baseURL string, selectorTimeout time.Duration) *Scraper {
	return &Scraper{
		nav:             nav,
		baseURL:         baseURL,
		selectorTimeout: selectorTimeout,
		logger:          log.New(log.Writer(), "[ALIBABA] ", log.LstdFlags),
	}
}

func (s *Scraper) Name() string        { return "alibaba_scraper" }
func (s *Scraper) Description() string { return "Search Alibaba for wholesale product listings" }

// Execute runs one bounded search. Failures of the search itself (navigation,
// missing result container) yield Success=false; failures of individual cards
// only shrink the record list.
func (s *Scraper) Execute(ctx context.Context, criteria models.SearchCriteria) (res models.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("recovered: %v", r)
			res = models.ToolResult{Success: false, Error: fmt.Sprintf("search failed: %v", r)}
		}
	}()

	s.logger.Printf("searching for: %s", criteria.Query)

	searchURL := fmt.Sprintf("%s/trade/search?SearchText=%s", s.baseURL, utils.UrlQuery(criteria.Query))
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

	// MOQ and tenure live on supplier detail pages the search card does
	// not expose; they are recorded as sentinels.
	records := tools.BuildRecords(s.logger, models.SourceWholesale, s.baseURL, cards, criteria.MaxResultsPerTool, tools.Sentinels{
		MOQ:          "Contact supplier",
		SellerTenure: models.UnknownField,
	})

	s.logger.Printf("found %d products", len(records))
	return models.ToolResult{Success: true, Records: records}
}
