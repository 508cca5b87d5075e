package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"spendly/internal/classify"
	"spendly/internal/core"
	applog "spendly/internal/log"
	"spendly/internal/ports"
)

// ErrAIDisabled is returned by every assistant operation when no model API
// is configured.
var ErrAIDisabled = errors.New("AI assistant is not configured")

// AssistantService runs the AI helpers against the caller's active taxonomy.
type AssistantService struct {
	taxonomy  TaxonomyRepository
	gateway   *classify.Gateway
	voice     *classify.Voice
	suggester *classify.Suggester
	locale    string
}

// NewAssistantService wires the AI helpers. Any of them may be nil, in
// which case the matching operations return ErrAIDisabled.
func NewAssistantService(taxonomy TaxonomyRepository, gateway *classify.Gateway, voice *classify.Voice, suggester *classify.Suggester, locale string) *AssistantService {
	return &AssistantService{
		taxonomy:  taxonomy,
		gateway:   gateway,
		voice:     voice,
		suggester: suggester,
		locale:    locale,
	}
}

type activeTaxonomy struct {
	categories []core.Category
	accounts   []core.Account
	owners     []core.Owner
}

func (s *AssistantService) loadActive(ctx context.Context, userID string) (activeTaxonomy, error) {
	var t activeTaxonomy
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		t.categories, err = s.taxonomy.ListCategories(gctx, userID, true)
		return err
	})
	g.Go(func() (err error) {
		t.accounts, err = s.taxonomy.ListAccounts(gctx, userID, true)
		return err
	})
	g.Go(func() (err error) {
		t.owners, err = s.taxonomy.ListOwners(gctx, userID, true)
		return err
	})
	if err := g.Wait(); err != nil {
		return t, fmt.Errorf("load taxonomy: %w", err)
	}
	return t, nil
}

// ClassifyText reads a typed expense description.
func (s *AssistantService) ClassifyText(ctx context.Context, userID, text string) (core.ClassificationResult, error) {
	if err := requireUser(userID); err != nil {
		return core.ClassificationResult{}, err
	}
	if s.gateway == nil {
		return core.ClassificationResult{}, ErrAIDisabled
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return core.ClassificationResult{}, fmt.Errorf("%w: text is required", core.ErrValidation)
	}

	t, err := s.loadActive(ctx, userID)
	if err != nil {
		return core.ClassificationResult{}, err
	}
	return s.gateway.Classify(withUsageUser(ctx, userID), text, t.categories, t.accounts, t.owners), nil
}

// ClassifyVoice transcribes a recording and classifies the transcript.
func (s *AssistantService) ClassifyVoice(ctx context.Context, userID string, audio []byte, mimeType string) (core.VoiceResult, error) {
	if err := requireUser(userID); err != nil {
		return core.VoiceResult{}, err
	}
	if s.voice == nil {
		return core.VoiceResult{}, ErrAIDisabled
	}
	if len(audio) == 0 {
		return core.VoiceResult{}, classify.ErrNoAudio
	}

	t, err := s.loadActive(ctx, userID)
	if err != nil {
		return core.VoiceResult{}, err
	}
	return s.voice.TranscribeAndClassify(withUsageUser(ctx, userID), audio, mimeType, t.categories, t.accounts, t.owners)
}

func (s *AssistantService) Transcribe(ctx context.Context, userID string, audio []byte, mimeType string) (string, error) {
	if err := requireUser(userID); err != nil {
		return "", err
	}
	if s.voice == nil {
		return "", ErrAIDisabled
	}
	return s.voice.Transcribe(withUsageUser(ctx, userID), audio, mimeType)
}

// SuggestCategories proposes starter categories for onboarding. locale
// overrides the service default when set.
func (s *AssistantService) SuggestCategories(ctx context.Context, userID, description, locale string) ([]core.SuggestedCategory, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if s.suggester == nil {
		return nil, ErrAIDisabled
	}
	if locale == "" {
		locale = s.locale
	}
	return s.suggester.SuggestCategories(withUsageUser(ctx, userID), description, locale)
}

type usageUserKey struct{}

func withUsageUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, usageUserKey{}, userID)
}

// UsageRecorder persists AI usage for the user bound to the context by
// AssistantService. It implements classify.UsageRecorder.
type UsageRecorder struct {
	store ports.UsageStore
	now   func() time.Time
}

func NewUsageRecorder(store ports.UsageStore) *UsageRecorder {
	return &UsageRecorder{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (r *UsageRecorder) RecordUsage(ctx context.Context, u core.AIUsage) {
	userID, _ := ctx.Value(usageUserKey{}).(string)
	if userID == "" {
		slog.WarnContext(ctx, "AI usage without user, not recorded",
			applog.NewFields().WithModelCall(string(u.RequestType), u.Model).ToSlice()...)
		return
	}

	log := core.UsageLog{
		UserID:           userID,
		RequestType:      u.RequestType,
		Model:            u.Model,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		AudioSeconds:     u.AudioSeconds,
		EstimatedCostUSD: core.EstimateCostUSD(u),
		CreatedAt:        r.now(),
	}
	// Recorded even when the request was cancelled.
	if err := r.store.RecordUsage(context.WithoutCancel(ctx), log); err != nil {
		slog.ErrorContext(ctx, "Failed to record AI usage",
			applog.NewFields().WithModelCall(string(u.RequestType), u.Model).WithError(err).ToSlice()...)
	}
}
