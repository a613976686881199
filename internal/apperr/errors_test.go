package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/mpavlovic/newsstack/internal/apperr"
)

func TestNewValidation(t *testing.T) {
	err := apperr.NewValidation("field is required")

	if err.Error() != "field is required" {
		t.Errorf("expected 'field is required', got %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Errorf("expected nil unwrap, got %v", err.Unwrap())
	}
}

func TestNewValidationWrap(t *testing.T) {
	inner := fmt.Errorf("parse failed")
	err := apperr.NewValidationWrap("invalid published_at", inner)

	if err.Error() != "invalid published_at: parse failed" {
		t.Errorf("expected 'invalid published_at: parse failed', got %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to return inner error")
	}
}

func TestValidationError_SurvivesFmtWrapping(t *testing.T) {
	original := apperr.NewValidation("missing url")

	wrapped := fmt.Errorf("failed to normalize: %w", original)
	doubleWrapped := fmt.Errorf("record error: %w", wrapped)

	var ve *apperr.ValidationError
	if !errors.As(doubleWrapped, &ve) {
		t.Fatal("errors.As should find ValidationError through double wrapping")
	}
	if ve.Message != "missing url" {
		t.Errorf("expected 'missing url', got %q", ve.Message)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"transport", apperr.NewTransport(fmt.Errorf("dial tcp: timeout")), true},
		{"http 500", apperr.NewHTTP(500), true},
		{"http 429", apperr.NewHTTP(429), true},
		{"api envelope", apperr.NewAPI("invalid_access_key", "invalid key"), false},
		{"wrapped transport", fmt.Errorf("fetch failed: %w", apperr.NewTransport(fmt.Errorf("refused"))), true},
		{"plain", fmt.Errorf("boom"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := apperr.IsRetryable(tc.err); got != tc.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	if !apperr.IsRateLimited(apperr.NewHTTP(http.StatusTooManyRequests)) {
		t.Error("HTTP 429 should be rate limited")
	}
	if !apperr.IsRateLimited(apperr.NewAPI(apperr.CodeUsageLimitReached, "monthly quota exceeded")) {
		t.Error("usage_limit_reached should be rate limited")
	}
	if apperr.IsRateLimited(apperr.NewHTTP(500)) {
		t.Error("HTTP 500 should not be rate limited")
	}
	if apperr.IsRateLimited(apperr.NewAPI("invalid_access_key", "invalid key")) {
		t.Error("invalid key should not be rate limited")
	}
}

func TestIsConflict(t *testing.T) {
	conflict := apperr.NewConflict("articles_url_key", fmt.Errorf("duplicate key value"))
	wrapped := fmt.Errorf("failed to insert article: %w", conflict)

	if !apperr.IsConflict(wrapped, "articles_url_key") {
		t.Error("expected conflict on articles_url_key")
	}
	if apperr.IsConflict(wrapped, "articles_slug_key") {
		t.Error("should not match a different constraint")
	}
	if !apperr.IsConflict(wrapped, "") {
		t.Error("empty constraint should match any conflict")
	}
	if apperr.IsConflict(fmt.Errorf("boom"), "") {
		t.Error("plain error is not a conflict")
	}
}
