package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != UserAgent {
			t.Errorf("Expected User-Agent %q, got %q", UserAgent, r.Header.Get("User-Agent"))
		}
		switch r.URL.Path {
		case "/ok":
			fmt.Fprint(w, `{"price":"1.5"}`)
		case "/busy":
			http.Error(w, "slow down", http.StatusTooManyRequests)
		case "/broken":
			fmt.Fprint(w, `{"price":`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var out struct {
		Price string `json:"price"`
	}
	if err := GetJSON(context.Background(), srv.Client(), srv.URL+"/ok", &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Price != "1.5" {
		t.Errorf("Expected price 1.5, got %q", out.Price)
	}

	err := GetJSON(context.Background(), srv.Client(), srv.URL+"/missing", &out)
	var se *HTTPStatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound || !se.Permanent() {
		t.Errorf("Expected permanent 404 HTTPStatusError, got %v", err)
	}

	err = GetJSON(context.Background(), srv.Client(), srv.URL+"/busy", &out)
	if !errors.As(err, &se) || se.Permanent() {
		t.Errorf("Expected retryable 429 HTTPStatusError, got %v", err)
	}

	if err := GetJSON(context.Background(), srv.Client(), srv.URL+"/broken", &out); err == nil {
		t.Error("Expected decode error for truncated body")
	}
}

func TestReadEnvelopeInput(t *testing.T) {
	got, err := ReadEnvelopeInput(strings.NewReader("  ENC[abc]\n"))
	if err != nil {
		t.Fatalf("ReadEnvelopeInput failed: %v", err)
	}
	if got != "ENC[abc]" {
		t.Errorf("Expected trimmed envelope, got %q", got)
	}

	if _, err := ReadEnvelopeInput(strings.NewReader(" \n\t")); err == nil {
		t.Error("Expected error for whitespace-only input")
	}
	if _, err := ReadAll(strings.NewReader("")); err == nil {
		t.Error("Expected error for empty input")
	}
}

func TestEllipsize(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"ENC[abcdefgh]", 8, "ENC[a..."},
		{"short", 10, "short"},
		{"short", 0, "short"},
		{"abcdef", 3, "abc"},
		{"ünïcødé", 5, "ün..."},
	}
	for _, tt := range tests {
		if got := Ellipsize(tt.in, tt.n); got != tt.want {
			t.Errorf("Ellipsize(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestFormatList(t *testing.T) {
	got := FormatList([]string{"a", "b"})
	if got != "\n    - a\n    - b\n" {
		t.Errorf("Unexpected list formatting: %q", got)
	}
}
