package analysis

import (
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/DGFellow/product-research-agent/models"
)

func priced(source models.Source, title string, price float64) models.ProductRecord {
	return models.ProductRecord{
		Source: source, Title: title, PriceDisplay: "$x", PriceNumeric: &price,
		ScrapedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSummarize(t *testing.T) {
	records := []models.ProductRecord{
		priced(models.SourceWholesale, "A", 2),
		priced(models.SourceWholesale, "B", 4),
		{Source: models.SourceRetail, Title: "C", PriceDisplay: models.UnknownField},
		priced(models.SourceRetail, "D", 12),
	}
	stats := Summarize(records)
	if stats.Total != 4 {
		t.Fatalf("total = %d", stats.Total)
	}
	if stats.BySource[models.SourceWholesale] != 2 || stats.BySource[models.SourceRetail] != 2 {
		t.Fatalf("by source = %v", stats.BySource)
	}
	if stats.Prices == nil {
		t.Fatalf("expected price stats")
	}
	if stats.Prices.Count != 3 || stats.Prices.Min != 2 || stats.Prices.Max != 12 || stats.Prices.Mean != 6 {
		t.Fatalf("price stats = %+v", stats.Prices)
	}
}

func TestSummarizeNoParseablePrices(t *testing.T) {
	records := []models.ProductRecord{
		{Source: models.SourceRetail, Title: "A", PriceDisplay: models.UnknownField},
	}
	stats := Summarize(records)
	if stats.Total != 1 || stats.Prices != nil {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil)
	if stats.Total != 0 || stats.Prices != nil {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	records := []models.ProductRecord{
		priced(models.SourceWholesale, "Widget", 1.5),
		{Source: models.SourceRetail, Title: "Gadget", PriceDisplay: models.UnknownField,
			ScrapedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	path, err := ExportCSV(dir, records)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening export: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "source" || rows[0][1] != "title" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][3] != "1.50" {
		t.Fatalf("numeric price formatting: %q", rows[1][3])
	}
	if rows[2][3] != "" {
		t.Fatalf("missing numeric price should export empty, got %q", rows[2][3])
	}
}
