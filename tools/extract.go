package tools

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/DGFellow/product-research-agent/models"
	"github.com/DGFellow/product-research-agent/utils"
)

// Card is one raw candidate pulled from a search-result container. The
// in-page extraction script fills whichever fields its sub-selectors could
// reach and reports a per-card error instead of aborting the batch.
type Card struct {
	Title  string `json:"title"`
	Price  string `json:"price"`
	Href   string `json:"href"`
	Seller string `json:"seller"`
	Err    string `json:"err,omitempty"`
}

// Sentinels are the site-specific placeholder values stored on secondary
// fields that the search card does not carry.
type Sentinels struct {
	MOQ          string
	SellerTenure string
}

// BuildRecords turns raw cards into validated ProductRecords, preserving DOM
// order and capping at max. Per-item isolation: a card that reported an
// extraction error, or that has no extractable title, is logged and skipped
// without affecting its neighbours. Missing secondary fields get explicit
// sentinels, never silently-absent values.
func BuildRecords(logger *log.Logger, source models.Source, baseURL string, cards []Card, max int, s Sentinels) []models.ProductRecord {
	var records []models.ProductRecord
	for i, card := range cards {
		if len(records) >= max {
			break
		}
		if card.Err != "" {
			logger.Printf("card %d: extraction error: %s", i, card.Err)
			continue
		}
		title := strings.TrimSpace(card.Title)
		price := strings.TrimSpace(card.Price)
		if title == "" {
			// a candidate we cannot title is not worth emitting, with or
			// without a price
			logger.Printf("card %d: no extractable title, dropping", i)
			continue
		}
		if price == "" {
			price = models.UnknownField
		}

		rec := models.ProductRecord{
			Source:       source,
			Title:        title,
			PriceDisplay: price,
			URL:          utils.AbsoluteURL(baseURL, card.Href),
			MOQ:          s.MOQ,
			SellerTenure: s.SellerTenure,
			ScrapedAt:    time.Now(),
		}
		if seller := strings.TrimSpace(card.Seller); seller != "" {
			rec.SellerName = seller
		}
		if n, ok := utils.ParsePrice(price); ok {
			rec.PriceNumeric = &n
		}
		records = append(records, rec)
		logger.Printf("  -> %s", utils.Truncate(title, 50))
	}
	return records
}

// CardScript builds the in-page extraction expression for a result page.
// Each card is extracted inside its own try/catch so one broken node cannot
// abort the rest of the batch.
func CardScript(containerSel, titleSel, priceSel, linkSel, sellerSel string, max int) string {
	return fmt.Sprintf(`
(() => {
	const cards = Array.from(document.querySelectorAll(%q)).slice(0, %d);
	return cards.map(card => {
		try {
			const pick = sel => {
				if (!sel) return '';
				const el = card.querySelector(sel);
				return el ? el.textContent.trim() : '';
			};
			const linkEl = %q ? card.querySelector(%q) : null;
			const anchor = linkEl && linkEl.tagName === 'A' ? linkEl
				: (linkEl ? linkEl.closest('a[href]') : card.querySelector('a[href]'));
			return {
				title: pick(%q),
				price: pick(%q),
				href: anchor ? (anchor.getAttribute('href') || '') : '',
				seller: pick(%q),
			};
		} catch (e) {
			return { title: '', price: '', href: '', seller: '', err: String(e) };
		}
	});
})()`, containerSel, max, linkSel, linkSel, titleSel, priceSel, sellerSel)
}
