package http

import (
	"net/http"
	"strings"

	"spendly/internal/core"
)

// uncategorizedLabels localizes the dashboard bucket for expenses without
// a category.
var uncategorizedLabels = map[string]string{
	"es": core.DefaultUncategorizedLabel,
	"en": "Uncategorized",
}

// uncategorizedLabel prefers the configured label, then ?locale=, then
// the server locale.
func (s *Server) uncategorizedLabel(r *http.Request) string {
	if s.cfg.UncategorizedLabel != "" {
		return s.cfg.UncategorizedLabel
	}
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = s.cfg.DefaultLocale
	}
	lang, _, _ := strings.Cut(strings.ToLower(locale), "-")
	return uncategorizedLabels[lang]
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := s.svc.Dashboard.GetDashboardData(r.Context(), userID(r), s.uncategorizedLabel(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(data).Write(w)
}
