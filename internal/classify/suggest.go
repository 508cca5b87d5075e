package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"spendly/internal/ai"
	"spendly/internal/core"
	applog "spendly/internal/log"
)

const (
	minSuggestions = 5
	maxSuggestions = 8
)

var errNoSuggestions = errors.New("no usable suggestions in response")

type suggestMessages struct {
	emptyInput string
	failed     string
}

var suggestLocales = map[string]suggestMessages{
	"es": {
		emptyInput: "Describe cómo usarás la app",
		failed:     "Error al generar sugerencias",
	},
	"en": {
		emptyInput: "Describe how you will use the app",
		failed:     "Could not generate suggestions",
	},
}

func messagesFor(locale string) suggestMessages {
	lang, _, _ := strings.Cut(strings.ToLower(locale), "-")
	if m, ok := suggestLocales[lang]; ok {
		return m
	}
	return suggestLocales["en"]
}

// Suggester proposes an initial category set from a description of how the
// user plans to use the app.
type Suggester struct {
	llm   Completer
	usage UsageRecorder
}

func NewSuggester(llm Completer, usage UsageRecorder) *Suggester {
	return &Suggester{llm: llm, usage: usage}
}

// SuggestCategories returns up to eight categories. Every failure is a
// *core.UserError carrying a message in locale.
func (s *Suggester) SuggestCategories(ctx context.Context, description, locale string) ([]core.SuggestedCategory, error) {
	msgs := messagesFor(locale)

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, core.NewUserError(msgs.emptyInput, core.ErrValidation)
	}

	resp, err := s.llm.Complete(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			ai.SystemMessage(suggestPrompt(locale)),
			ai.UserMessage(description),
		},
		JSONMode: true,
	})
	if err != nil {
		slog.WarnContext(ctx, "Category suggestion request failed",
			modelCall(applog.OpSuggest, core.RequestSuggestCategories, "").WithError(err).ToSlice()...)
		return nil, core.NewUserError(msgs.failed, err)
	}
	if s.usage != nil {
		s.usage.RecordUsage(ctx, core.AIUsage{
			RequestType:      core.RequestSuggestCategories,
			Model:            resp.Model,
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		})
	}

	suggestions, err := parseSuggestions(resp.Content)
	if err != nil {
		slog.WarnContext(ctx, "Malformed category suggestions",
			modelCall(applog.OpSuggest, core.RequestSuggestCategories, resp.Model).WithError(err).ToSlice()...)
		return nil, core.NewUserError(msgs.failed, err)
	}
	return suggestions, nil
}

func suggestPrompt(locale string) string {
	lang := "Spanish"
	if l, _, _ := strings.Cut(strings.ToLower(locale), "-"); l == "en" {
		lang = "English"
	}
	return fmt.Sprintf(`You help people set up a personal expense tracker.
Based on the user's description of how they will use the app, suggest between %d and %d expense categories.
Write category names, keywords and reasons in %s.

Return a JSON object with this exact shape:
{"categories": [{"name": "string", "keywords": ["string"], "reason": "string"}]}

- name: short category name (1-3 words)
- keywords: 3-6 lowercase words that identify expenses of this category
- reason: one short sentence explaining why it fits the user`, minSuggestions, maxSuggestions, lang)
}

type suggestionsPayload struct {
	Categories []core.SuggestedCategory `json:"categories"`
}

// parseSuggestions trims names and keywords, drops blanks, removes
// case-insensitive duplicates and caps the list.
func parseSuggestions(content string) ([]core.SuggestedCategory, error) {
	var payload suggestionsPayload
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &payload); err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}

	seen := core.NewDuplicateChecker()
	out := make([]core.SuggestedCategory, 0, maxSuggestions)
	for _, c := range payload.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" || !seen.Add(core.NameKey(name)) {
			continue
		}
		out = append(out, core.SuggestedCategory{
			Name:     name,
			Keywords: core.NormalizeKeywords(c.Keywords),
			Reason:   strings.TrimSpace(c.Reason),
		})
		if len(out) == maxSuggestions {
			break
		}
	}
	if len(out) == 0 {
		return nil, errNoSuggestions
	}
	return out, nil
}
