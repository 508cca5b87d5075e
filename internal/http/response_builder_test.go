package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"spendly/internal/auth"
	"spendly/internal/classify"
	"spendly/internal/core"
	"spendly/internal/services"
)

func TestJSONResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusCreated).Header("X-Test", "1").Body(map[string]int{"n": 1}).Write(rec)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get("X-Test"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}

func TestNoContentHasNoBody(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rec)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestUnencodableBody(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().Body(make(chan int)).Write(rec)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"could not encode response"}`, rec.Body.String())
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"unauthenticated", core.ErrNotAuthenticated, http.StatusUnauthorized, "Not authenticated"},
		{"bad token", fmt.Errorf("%w: expired", auth.ErrInvalidToken), http.StatusUnauthorized, "Not authenticated"},
		{"ai disabled", services.ErrAIDisabled, http.StatusServiceUnavailable, services.ErrAIDisabled.Error()},
		{"not found", fmt.Errorf("get expense: %w", core.ErrNotFound), http.StatusNotFound, "not found"},
		{"duplicate", core.ErrDuplicate, http.StatusConflict, core.ErrDuplicate.Error()},
		{"no audio", classify.ErrNoAudio, http.StatusBadRequest, classify.ErrNoAudio.Error()},
		{"validation", core.ErrEmptyName, http.StatusUnprocessableEntity, core.ErrEmptyName.Error()},
		{"transcription", &classify.TranscriptionError{Err: errors.New("upstream 500")}, http.StatusBadGateway, classify.ErrTranscriptionFailed.Error()},
		{"user error", &core.UserError{UserMessage: "El servicio no respondió", Err: errors.New("timeout")}, http.StatusBadGateway, "El servicio no respondió"},
		{"user validation", &core.UserError{UserMessage: "Describe tu hogar", Err: core.ErrValidation}, http.StatusUnprocessableEntity, "Describe tu hogar"},
		{"internal", errors.New("disk full"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := errorStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, msg)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/api/v1/expenses/x", nil), core.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodPost, "/api/v1/expenses", nil), errors.New("save expense: database is locked"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
