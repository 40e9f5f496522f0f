package fetcher

import (
	"net/http"
	"testing"
	"time"
)

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "120", 2 * time.Minute},
		{"negative", "-5", 0},
		{"http date", now.Add(30 * time.Second).Format(http.TimeFormat), 30 * time.Second},
		{"past date", now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"garbage", "soon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseRetryAfter(tt.value, now); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestStatusErrorClasses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want error
	}{
		{429, ErrRateLimited},
		{500, ErrServerError},
		{503, ErrServerError},
		{403, ErrNotFoundOrForbidden},
		{404, ErrNotFoundOrForbidden},
	}

	for _, tt := range tests {
		se := &StatusError{URL: "http://x", StatusCode: tt.code}
		if se.Unwrap() != tt.want {
			t.Errorf("status %d unwraps to %v, want %v", tt.code, se.Unwrap(), tt.want)
		}
	}
}
