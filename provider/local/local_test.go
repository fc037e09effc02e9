package local_provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func completionServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/chat/completions":
			if r.Method != http.MethodPost {
				t.Errorf("completion called with %s", r.Method)
			}
			var body request
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("invalid request body: %v", err)
			}
			if len(body.Messages) == 0 {
				t.Errorf("no messages in request")
			}
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"content": content}},
				},
			})
		case "/health":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestQuery(t *testing.T) {
	srv := completionServer(t, `{"goal": "g"}`, http.StatusOK)
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, time.Second)
	got, err := c.Query(context.Background(), "system", "prompt", 0.3, 500)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if got != `{"goal": "g"}` {
		t.Fatalf("got %q", got)
	}
}

func TestQueryNon2xx(t *testing.T) {
	srv := completionServer(t, "", http.StatusInternalServerError)
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, time.Second)
	if _, err := c.Query(context.Background(), "", "prompt", 0.3, 0); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestQueryNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, time.Second)
	if _, err := c.Query(context.Background(), "", "prompt", 0.3, 0); err == nil {
		t.Fatalf("expected error on empty choices")
	}
}

func TestIsAvailable(t *testing.T) {
	srv := completionServer(t, "", http.StatusOK)
	c := NewClient(srv.URL, 5*time.Second, time.Second)
	if !c.IsAvailable(context.Background()) {
		t.Fatalf("healthy service reported unavailable")
	}

	srv.Close()
	if c.IsAvailable(context.Background()) {
		t.Fatalf("closed service reported available")
	}
}

func TestHealthTimeoutClamp(t *testing.T) {
	c := NewClient("http://localhost:1", time.Second, time.Minute)
	if c.healthTimeout != 5*time.Second {
		t.Fatalf("health timeout not clamped: %v", c.healthTimeout)
	}
	c = NewClient("http://localhost:1", time.Second, 0)
	if c.healthTimeout != 5*time.Second {
		t.Fatalf("zero health timeout not defaulted: %v", c.healthTimeout)
	}
}
