package http

import (
	"net/http"
	"strconv"
	"strings"

	"spendly/internal/auth"
	"spendly/internal/middleware/trace"
)

// sanitizeInput removes control characters except tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}

func userID(r *http.Request) string {
	return auth.UserID(r.Context())
}

func requestID(r *http.Request) string {
	return trace.GetRequestID(r.Context())
}

// activeOnly reads ?active=true; anything else lists every entity.
func activeOnly(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("active"))
	return err == nil && v
}
