package tools

import (
	"io"
	"log"
	"strings"
	"testing"

	"github.com/DGFellow/product-research-agent/models"
)

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func TestBuildRecordsDropsUntitledCards(t *testing.T) {
	cards := []Card{
		{Title: "USB Hub", Price: "$19.99", Href: "/dp/1"},
		{Title: "", Price: "$5.00", Href: "/dp/2"}, // price alone does not save it
		{Title: "Cable", Price: "", Href: "/dp/3"},
	}
	records := BuildRecords(discard(), models.SourceRetail, "https://www.example.com", cards, 10, Sentinels{})
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Title != "USB Hub" || records[1].Title != "Cable" {
		t.Fatalf("unexpected titles: %q, %q", records[0].Title, records[1].Title)
	}
	if records[1].PriceDisplay != models.UnknownField {
		t.Fatalf("missing price should be %q, got %q", models.UnknownField, records[1].PriceDisplay)
	}
	if records[1].PriceNumeric != nil {
		t.Fatalf("unparseable price should leave PriceNumeric nil")
	}
}

func TestBuildRecordsIsolatesCardErrors(t *testing.T) {
	cards := []Card{
		{Title: "First", Price: "$1"},
		{Err: "TypeError: null node"},
		{Title: "Third", Price: "$3"},
	}
	records := BuildRecords(discard(), models.SourceWholesale, "https://w.example.com", cards, 10, Sentinels{MOQ: "Contact supplier"})
	if len(records) != 2 {
		t.Fatalf("expected the broken card skipped, got %d records", len(records))
	}
	if records[0].Title != "First" || records[1].Title != "Third" {
		t.Fatalf("DOM order not preserved: %q, %q", records[0].Title, records[1].Title)
	}
	for _, rec := range records {
		if rec.MOQ != "Contact supplier" {
			t.Fatalf("sentinel MOQ not applied: %q", rec.MOQ)
		}
	}
}

func TestBuildRecordsCapsAtMax(t *testing.T) {
	var cards []Card
	for i := 0; i < 20; i++ {
		cards = append(cards, Card{Title: "Item", Price: "$1"})
	}
	records := BuildRecords(discard(), models.SourceRetail, "https://r.example.com", cards, 5, Sentinels{})
	if len(records) != 5 {
		t.Fatalf("expected cap at 5, got %d", len(records))
	}
}

func TestBuildRecordsResolvesURLsAndPrices(t *testing.T) {
	cards := []Card{{Title: "Widget", Price: "US$2.50-4.00 / piece", Href: "/product/42.html"}}
	records := BuildRecords(discard(), models.SourceWholesale, "https://w.example.com", cards, 10, Sentinels{})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.URL != "https://w.example.com/product/42.html" {
		t.Fatalf("unexpected URL %q", rec.URL)
	}
	if rec.PriceNumeric == nil || *rec.PriceNumeric != 2.50 {
		t.Fatalf("expected numeric price 2.50, got %v", rec.PriceNumeric)
	}
	if rec.ScrapedAt.IsZero() {
		t.Fatalf("ScrapedAt not set")
	}
}

func TestCardScriptEmbedsSelectors(t *testing.T) {
	script := CardScript(".card", ".title", ".price", "a", "", 7)
	for _, want := range []string{`".card"`, `".title"`, `".price"`, "slice(0, 7)", "try {", "catch"} {
		if !strings.Contains(script, want) {
			t.Fatalf("script missing %q:\n%s", want, script)
		}
	}
}
