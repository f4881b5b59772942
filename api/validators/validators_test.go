package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
)

type windowPayload struct {
	Fee       int64     `json:"fee" validate:"gt=0"`
	StartDate time.Time `json:"start_date" validate:"required"`
	DueDate   time.Time `json:"due_date" validate:"required,gtefield=StartDate"`
}

func decode(t *testing.T, body string) error {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dest windowPayload
	return DecodeJSONBody(req, &dest)
}

func detailsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, _ := typed.Details().(map[string]string)
	return details
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	err := decode(t, `{"fee":500,"start_date":"2026-03-01T00:00:00Z","due_date":"2026-03-03T00:00:00Z"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	err := decode(t, `{"fee":0,"start_date":"2026-03-03T00:00:00Z","due_date":"2026-03-01T00:00:00Z"}`)
	details := detailsOf(t, err)
	if details["fee"] != "must be greater than 0" {
		t.Fatalf("unexpected fee message %q", details["fee"])
	}
	if details["due_date"] != "must not be before start_date" {
		t.Fatalf("unexpected due_date message %q", details["due_date"])
	}
}

func TestDecodeJSONBodyRejectsMalformedBodies(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"unknown field": `{"fee":1,"surprise":true}`,
		"trailing":      `{"fee":1} {"fee":2}`,
		"too large":     `{"fee":1,"pad":"` + strings.Repeat("x", MaxBodyBytes) + `"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			detailsOf(t, decode(t, body))
		})
	}
}

func TestParseQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?available=true&bad=maybe", nil)

	got, err := ParseQueryBool(req, "available")
	if err != nil || got == nil || !*got {
		t.Fatalf("expected true, got %v err=%v", got, err)
	}
	if got, err := ParseQueryBool(req, "missing"); err != nil || got != nil {
		t.Fatalf("expected nil for absent key, got %v err=%v", got, err)
	}
	if _, err := ParseQueryBool(req, "bad"); err == nil {
		t.Fatal("expected error for non-boolean value")
	}
}

func TestParseQueryIntBounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	if _, err := ParseQueryInt(req, "limit", 25, 1, 100); err == nil {
		t.Fatal("expected out of range error")
	}
	if v, err := ParseQueryInt(httptest.NewRequest(http.MethodGet, "/", nil), "limit", 25, 1, 100); err != nil || v != 25 {
		t.Fatalf("expected default 25, got %d err=%v", v, err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  returns/ab\x00c.jpg \n", 0); got != "returns/abc.jpg" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
	if got := SanitizeString("héllo", 2); got != "h" {
		t.Fatalf("expected truncation on rune boundary, got %q", got)
	}
}
