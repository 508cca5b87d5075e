package http

import (
	"context"
	"net/http"
	"time"

	"spendly/internal/core"
	applog "spendly/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.cfg.Ready.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			ErrorResponse(http.StatusServiceUnavailable, "database unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Profiles.GetProfile(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(p).Write(w)
}

type updateProfileRequest struct {
	FullName *string `json:"full_name"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	p, err := s.svc.Profiles.UpdateProfile(r.Context(), userID(r), sanitizePtr(req.FullName))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(p).Write(w)
}

func (s *Server) handleGetCredits(w http.ResponseWriter, r *http.Request) {
	data, err := s.svc.Profiles.GetCreditsAndUsage(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(data).Write(w)
}

func (s *Server) handleOnboardingCategories(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Categories []core.CategoryInput `json:"categories"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	created, err := s.svc.Onboarding.CreateCategories(r.Context(), userID(r), req.Categories)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(map[string]any{"categories": created}).Write(w)
}

func (s *Server) handleOnboardingAccounts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Accounts []core.AccountInput `json:"accounts"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	created, err := s.svc.Onboarding.CreateAccounts(r.Context(), userID(r), req.Accounts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(map[string]any{"accounts": created}).Write(w)
}

func (s *Server) handleOnboardingOwners(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owners []core.OwnerInput `json:"owners"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	created, err := s.svc.Onboarding.CreateOwners(r.Context(), userID(r), req.Owners)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(map[string]any{"owners": created}).Write(w)
}

func (s *Server) handleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Onboarding.CompleteOnboarding(r.Context(), userID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
