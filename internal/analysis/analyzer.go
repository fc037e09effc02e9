package analysis

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DGFellow/product-research-agent/models"
)

// PriceStats summarizes the numeric prices that could be parsed out of the
// aggregate. Records without a parseable price are excluded from the stats
// but still counted in Total.
type PriceStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// SummaryStats is the numeric roll-up of one research run.
type SummaryStats struct {
	Total    int                   `json:"total"`
	BySource map[models.Source]int `json:"by_source"`
	Prices   *PriceStats           `json:"price_stats,omitempty"`
}

// Summarize computes counts and price statistics over an aggregate.
func Summarize(records []models.ProductRecord) SummaryStats {
	stats := SummaryStats{
		Total:    len(records),
		BySource: make(map[models.Source]int),
	}
	var prices []float64
	for _, rec := range records {
		stats.BySource[rec.Source]++
		if rec.PriceNumeric != nil {
			prices = append(prices, *rec.PriceNumeric)
		}
	}
	if len(prices) == 0 {
		return stats
	}
	ps := &PriceStats{Count: len(prices), Min: prices[0], Max: prices[0]}
	var sum float64
	for _, p := range prices {
		sum += p
		if p < ps.Min {
			ps.Min = p
		}
		if p > ps.Max {
			ps.Max = p
		}
	}
	ps.Mean = sum / float64(len(prices))
	stats.Prices = ps
	return stats
}

var csvHeader = []string{
	"source", "title", "price_display", "price_numeric", "url",
	"moq", "seller_name", "seller_tenure", "category", "description", "scraped_at",
}

// ExportCSV writes the aggregate to dir/product_research.csv, creating dir
// if needed, and returns the written path.
func ExportCSV(dir string, records []models.ProductRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(dir, "product_research.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, rec := range records {
		numeric := ""
		if rec.PriceNumeric != nil {
			numeric = fmt.Sprintf("%.2f", *rec.PriceNumeric)
		}
		row := []string{
			string(rec.Source), rec.Title, rec.PriceDisplay, numeric, rec.URL,
			rec.MOQ, rec.SellerName, rec.SellerTenure, rec.Category, rec.Description,
			rec.ScrapedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}
