package utils

import "testing"

func TestUrlQuery(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"wireless earbuds", "wireless+earbuds"},
		{"  padded  ", "padded"},
		{"usb c hub 7 in 1", "usb+c+hub+7+in+1"},
		{"single", "single"},
	}
	for _, c := range cases {
		if got := UrlQuery(c.in); got != c.want {
			t.Fatalf("UrlQuery(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAbsoluteURL(t *testing.T) {
	base := "https://www.example.com"
	cases := []struct {
		href, want string
	}{
		{"", ""},
		{"https://other.com/p/1", "https://other.com/p/1"},
		{"http://other.com/p/1", "http://other.com/p/1"},
		{"//cdn.example.com/p/1", "https://cdn.example.com/p/1"},
		{"/dp/B000", "https://www.example.com/dp/B000"},
		{"dp/B000", "https://www.example.com/dp/B000"},
	}
	for _, c := range cases {
		if got := AbsoluteURL(base, c.href); got != c.want {
			t.Fatalf("AbsoluteURL(%q) = %q, want %q", c.href, got, c.want)
		}
	}
	// trailing slash on base must not double up
	if got := AbsoluteURL("https://www.example.com/", "/x"); got != "https://www.example.com/x" {
		t.Fatalf("got %q", got)
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$12.99", 12.99, true},
		{"US$1.20-3.50 / piece", 1.20, true},
		{"1,299", 1299, true},
		{"$45", 45, true},
		{"12.", 12, true},
		{"unknown", 0, false},
		{"", 0, false},
		{"Contact supplier", 0, false},
	}
	for _, c := range cases {
		got, ok := ParsePrice(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("ParsePrice(%q) = (%v, %v), want (%v, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("abcdefghij", 4); got != "abcd..." {
		t.Fatalf("got %q", got)
	}
}
