package browse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DGFellow/product-research-agent/config"
)

func testConfig() config.BrowserConfig {
	return config.BrowserConfig{Headless: true, NavTimeout: time.Second, SettleDelay: 0}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := NewSession(testConfig())
	// closing a session that never started must not panic, repeatedly
	s.Close()
	s.Close()
}

func TestNavigateBeforeStartFailsFast(t *testing.T) {
	s := NewSession(testConfig())
	start := time.Now()
	err := s.Navigate(context.Background(), "https://example.com")
	if err == nil {
		t.Fatalf("expected failure without a started session")
	}
	var navErr *NavigationError
	if !errors.As(err, &navErr) {
		t.Fatalf("expected NavigationError, got %T: %v", err, err)
	}
	if navErr.URL != "https://example.com" {
		t.Fatalf("error URL = %q", navErr.URL)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("unstarted session should fail fast, took %v", time.Since(start))
	}
}

func TestErrorUnwrapping(t *testing.T) {
	inner := errors.New("boom")
	cases := []error{
		&SessionInitError{Err: inner},
		&NavigationError{URL: "u", Err: inner},
		&ElementNotFoundError{Selector: ".x", Err: inner},
	}
	for _, err := range cases {
		if !errors.Is(err, inner) {
			t.Fatalf("%T does not unwrap to its cause", err)
		}
		if err.Error() == "" {
			t.Fatalf("%T has empty message", err)
		}
	}
}
