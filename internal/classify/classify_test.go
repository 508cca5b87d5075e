package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/ai"
	"spendly/internal/core"
	applog "spendly/internal/log"
)

type fakeCompleter struct {
	content string
	model   string
	err     error

	mu       sync.Mutex
	requests []ai.ChatRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return ai.ChatResponse{}, f.err
	}
	model := f.model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return ai.ChatResponse{Content: f.content, Model: model, Usage: ai.Usage{PromptTokens: 100, CompletionTokens: 20}}, nil
}

func (f *fakeCompleter) lastRequest(t *testing.T) ai.ChatRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

type fakeTranscriber struct {
	text     string
	duration float64
	err      error
	got      *ai.TranscriptionRequest
}

func (f *fakeTranscriber) Transcribe(_ context.Context, req ai.TranscriptionRequest) (ai.Transcription, error) {
	f.got = &req
	if f.err != nil {
		return ai.Transcription{}, f.err
	}
	return ai.Transcription{Text: f.text, Model: "whisper-1", DurationSeconds: f.duration}, nil
}

type usageSpy struct {
	mu    sync.Mutex
	calls []core.AIUsage
}

func (u *usageSpy) RecordUsage(_ context.Context, usage core.AIUsage) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, usage)
}

var fixedNow = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }

func testTaxonomy() ([]core.Category, []core.Account, []core.Owner) {
	cats := []core.Category{{ID: "cat-1", Name: "Comida", Keywords: core.Keywords{"super", "restaurante"}}}
	accts := []core.Account{{ID: "acc-1", Name: "Visa", Type: core.AccountCreditCard}}
	owners := []core.Owner{{ID: "own-1", Name: "Ana"}}
	return cats, accts, owners
}

func newGateway(llm Completer, usage UsageRecorder, validate bool) *Gateway {
	return NewGateway(llm, GatewayConfig{
		DefaultCurrency:      "GTQ",
		ValidateSuggestedIDs: validate,
		Usage:                usage,
		Now:                  fixedNow,
	})
}

func strPtr(s string) *string { return &s }

func TestClassifyParsesFullResponse(t *testing.T) {
	llm := &fakeCompleter{content: `{
		"amount": 125.5,
		"currency": "usd",
		"date": "2024-03-14",
		"description": "Cena",
		"suggestedCategoryId": "cat-1",
		"suggestedAccountId": "acc-1",
		"suggestedOwnerId": "own-1",
		"newCategoryName": null,
		"newAccountName": null,
		"newOwnerName": null,
		"confidence": 0.92
	}`}
	spy := &usageSpy{}
	g := newGateway(llm, spy, true)
	cats, accts, owners := testTaxonomy()

	got := g.Classify(context.Background(), "ayer cena 125.50 dolares con visa", cats, accts, owners)

	require.NotNil(t, got.Amount)
	assert.InDelta(t, 125.5, *got.Amount, 1e-9)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, strPtr("2024-03-14"), got.Date)
	assert.Equal(t, "Cena", got.Description)
	assert.Equal(t, strPtr("cat-1"), got.SuggestedCategoryID)
	assert.Equal(t, strPtr("acc-1"), got.SuggestedAccountID)
	assert.Equal(t, strPtr("own-1"), got.SuggestedOwnerID)
	assert.Nil(t, got.NewCategoryName)
	assert.InDelta(t, 0.92, got.Confidence, 1e-9)

	require.Len(t, spy.calls, 1)
	assert.Equal(t, core.RequestClassifyText, spy.calls[0].RequestType)
	assert.Equal(t, 100, spy.calls[0].PromptTokens)
}

func TestClassifyPrompt(t *testing.T) {
	llm := &fakeCompleter{content: `{}`}
	g := newGateway(llm, nil, true)
	cats, accts, owners := testTaxonomy()

	g.Classify(context.Background(), "taxi 30", cats, accts, owners)

	req := llm.lastRequest(t)
	assert.True(t, req.JSONMode)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, ai.UserMessage("taxi 30"), req.Messages[1])

	prompt := req.Messages[0].Content
	assert.Contains(t, prompt, "Today's date is 2024-03-15. Default currency is GTQ.")
	assert.Contains(t, prompt, "cat-1: Comida (keywords: super, restaurante)")
	assert.Contains(t, prompt, "acc-1: Visa (credit_card)")
	assert.Contains(t, prompt, "own-1: Ana")
	assert.Contains(t, prompt, "suggestedCategoryId")
	assert.NotContains(t, prompt, "None yet")
}

func TestClassifyEmptyTaxonomy(t *testing.T) {
	llm := &fakeCompleter{content: `{"amount": 30, "description": "Taxi", "newCategoryName": "Transporte", "confidence": 0.7}`}
	g := newGateway(llm, nil, true)

	got := g.Classify(context.Background(), "taxi 30", nil, nil, nil)

	prompt := llm.lastRequest(t).Messages[0].Content
	assert.Equal(t, 3, strings.Count(prompt, "None yet"))
	assert.Nil(t, got.SuggestedCategoryID)
	assert.Nil(t, got.SuggestedAccountID)
	assert.Nil(t, got.SuggestedOwnerID)
	assert.Equal(t, strPtr("Transporte"), got.NewCategoryName)
	assert.Equal(t, "GTQ", got.Currency)
}

func TestClassifyFallsBackToDefaults(t *testing.T) {
	text := "algo raro"
	want := core.DefaultClassification(text, "GTQ")

	tests := []struct {
		name string
		llm  *fakeCompleter
	}{
		{name: "upstream error", llm: &fakeCompleter{err: errors.New("connection reset")}},
		{name: "empty content", llm: &fakeCompleter{content: "   "}},
		{name: "not json", llm: &fakeCompleter{content: "I think it's food"}},
		{name: "json array", llm: &fakeCompleter{content: `[{"amount": 1}]`}},
		{name: "json null", llm: &fakeCompleter{content: `null`}},
		{name: "unknown field", llm: &fakeCompleter{content: `{"amount": 1, "category": "food"}`}},
		{name: "wrong type", llm: &fakeCompleter{content: `{"amount": "ten"}`}},
		{name: "trailing data", llm: &fakeCompleter{content: `{"amount": 1} {"amount": 2}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newGateway(tt.llm, nil, true).Classify(context.Background(), text, nil, nil, nil)
			assert.Equal(t, want, got)
			assert.Zero(t, got.Confidence)
			assert.Equal(t, text, got.Description)
		})
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestClassifyFailureLogsModelCall(t *testing.T) {
	buf := captureLog(t)

	newGateway(&fakeCompleter{content: "not json", model: "gpt-4o"}, nil, true).
		Classify(context.Background(), "algo", nil, nil, nil)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Malformed classification response", rec["msg"])
	assert.Equal(t, applog.ComponentAI, rec[applog.FieldComponent])
	assert.Equal(t, applog.OpClassify, rec[applog.FieldOperation])
	assert.Equal(t, string(core.RequestClassifyText), rec[applog.FieldRequestType])
	assert.Equal(t, "gpt-4o", rec[applog.FieldModel])
	assert.NotEmpty(t, rec[applog.FieldError])
}

func TestTranscriptionFailureLogsOperation(t *testing.T) {
	buf := captureLog(t)

	v := NewVoice(&fakeTranscriber{err: errors.New("upstream 500")}, newGateway(&fakeCompleter{}, nil, true), "es")
	_, err := v.Transcribe(context.Background(), []byte("audio"), "audio/webm")
	require.Error(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, applog.OpTranscribe, rec[applog.FieldOperation])
	assert.Equal(t, string(core.RequestTranscribe), rec[applog.FieldRequestType])
	assert.NotContains(t, rec, applog.FieldModel)
}

func TestClassifyDefaultsAbsentFields(t *testing.T) {
	g := newGateway(&fakeCompleter{content: `{"amount": 12}`}, nil, true)

	got := g.Classify(context.Background(), "pan 12", nil, nil, nil)

	require.NotNil(t, got.Amount)
	assert.InDelta(t, 12.0, *got.Amount, 1e-9)
	assert.Equal(t, "GTQ", got.Currency)
	assert.Nil(t, got.Date)
	assert.Equal(t, "pan 12", got.Description)
	assert.Zero(t, got.Confidence)
}

func TestClassifyNormalizesValues(t *testing.T) {
	g := newGateway(&fakeCompleter{content: "```json\n" + `{"amount": -5, "currency": "quetzales", "description": "  ", "suggestedOwnerId": "", "confidence": 3}` + "\n```"}, nil, true)

	got := g.Classify(context.Background(), "x", nil, nil, nil)

	assert.Nil(t, got.Amount, "negative amounts are dropped")
	assert.Equal(t, "GTQ", got.Currency, "invalid currency falls back")
	assert.Equal(t, "x", got.Description)
	assert.Nil(t, got.SuggestedOwnerID)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
}

func TestClassifySuggestedIDValidation(t *testing.T) {
	content := `{"suggestedCategoryId": "cat-404", "suggestedAccountId": "acc-1", "suggestedOwnerId": "own-9", "confidence": 0.5}`
	cats, accts, owners := testTaxonomy()

	validated := newGateway(&fakeCompleter{content: content}, nil, true).
		Classify(context.Background(), "x", cats, accts, owners)
	assert.Nil(t, validated.SuggestedCategoryID)
	assert.Equal(t, strPtr("acc-1"), validated.SuggestedAccountID)
	assert.Nil(t, validated.SuggestedOwnerID)

	passthrough := newGateway(&fakeCompleter{content: content}, nil, false).
		Classify(context.Background(), "x", cats, accts, owners)
	assert.Equal(t, strPtr("cat-404"), passthrough.SuggestedCategoryID)
	assert.Equal(t, strPtr("own-9"), passthrough.SuggestedOwnerID)
}

func TestVoiceTranscribeAndClassify(t *testing.T) {
	stt := &fakeTranscriber{text: "cincuenta de gasolina", duration: 3.5}
	llm := &fakeCompleter{content: `{"amount": 50, "description": "Gasolina", "confidence": 0.8}`}
	spy := &usageSpy{}
	v := NewVoice(stt, newGateway(llm, spy, true), "es")

	got, err := v.TranscribeAndClassify(context.Background(), []byte("audio"), "audio/webm", nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "cincuenta de gasolina", got.Transcript)
	assert.Equal(t, "Gasolina", got.Classification.Description)
	assert.Equal(t, ai.UserMessage("cincuenta de gasolina"), llm.lastRequest(t).Messages[1])

	require.NotNil(t, stt.got)
	assert.Equal(t, "es", stt.got.Language)
	assert.Equal(t, "audio/webm", stt.got.MimeType)

	require.Len(t, spy.calls, 2)
	assert.Equal(t, core.AIUsage{RequestType: core.RequestClassifyVoice, Model: "whisper-1", AudioSeconds: 3.5}, spy.calls[0])
	assert.Equal(t, core.RequestClassifyVoice, spy.calls[1].RequestType)
}

func TestVoiceNoAudio(t *testing.T) {
	stt := &fakeTranscriber{}
	v := NewVoice(stt, newGateway(&fakeCompleter{}, nil, true), "")

	_, err := v.TranscribeAndClassify(context.Background(), nil, "audio/webm", nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoAudio)

	_, err = v.Transcribe(context.Background(), []byte{}, "audio/webm")
	assert.ErrorIs(t, err, ErrNoAudio)

	assert.Nil(t, stt.got, "nothing is sent upstream")
}

func TestVoiceTranscriptionFailureIsDistinct(t *testing.T) {
	cause := &ai.APIError{StatusCode: 400, Body: "bad file"}
	llm := &fakeCompleter{}
	v := NewVoice(&fakeTranscriber{err: cause}, newGateway(llm, nil, true), "es")

	_, err := v.TranscribeAndClassify(context.Background(), []byte("x"), "audio/webm", nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTranscriptionFailed)

	var terr *TranscriptionError
	require.ErrorAs(t, err, &terr)
	var apiErr *ai.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Empty(t, llm.requests, "classification is not attempted")
}

func TestVoiceClassificationFailureStillReturnsTranscript(t *testing.T) {
	v := NewVoice(&fakeTranscriber{text: "hola"}, newGateway(&fakeCompleter{err: errors.New("down")}, nil, true), "es")

	got, err := v.TranscribeAndClassify(context.Background(), []byte("x"), "audio/webm", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "hola", got.Transcript)
	assert.Zero(t, got.Classification.Confidence)
	assert.Equal(t, "hola", got.Classification.Description)
}

func TestVoiceTranscribeOnly(t *testing.T) {
	spy := &usageSpy{}
	llm := &fakeCompleter{}
	v := NewVoice(&fakeTranscriber{text: "uso la app para el hogar", duration: 12}, newGateway(llm, spy, true), "es")

	text, err := v.Transcribe(context.Background(), []byte("x"), "audio/webm")
	require.NoError(t, err)
	assert.Equal(t, "uso la app para el hogar", text)
	assert.Empty(t, llm.requests)
	require.Len(t, spy.calls, 1)
	assert.Equal(t, core.RequestTranscribe, spy.calls[0].RequestType)
}

func TestSuggestCategories(t *testing.T) {
	llm := &fakeCompleter{content: `{"categories": [
		{"name": " Supermercado ", "keywords": ["super", "Super", " despensa "], "reason": "Compras del hogar"},
		{"name": "supermercado", "keywords": [], "reason": "duplicado"},
		{"name": "", "keywords": ["x"], "reason": "sin nombre"},
		{"name": "Transporte", "keywords": ["uber", "gasolina"], "reason": "Te mueves en carro"}
	]}`}
	spy := &usageSpy{}
	s := NewSuggester(llm, spy)

	got, err := s.SuggestCategories(context.Background(), "Uso la app para gastos del hogar", "es")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.SuggestedCategory{Name: "Supermercado", Keywords: []string{"super", "despensa"}, Reason: "Compras del hogar"}, got[0])
	assert.Equal(t, "Transporte", got[1].Name)

	assert.Contains(t, llm.lastRequest(t).Messages[0].Content, "between 5 and 8")
	assert.Contains(t, llm.lastRequest(t).Messages[0].Content, "Spanish")
	require.Len(t, spy.calls, 1)
	assert.Equal(t, core.RequestSuggestCategories, spy.calls[0].RequestType)
}

func TestSuggestCategoriesCapsAtEight(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"categories": [`)
	for i := 0; i < 12; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"name": "Cat ` + string(rune('A'+i)) + `", "keywords": [], "reason": ""}`)
	}
	b.WriteString(`]}`)

	got, err := NewSuggester(&fakeCompleter{content: b.String()}, nil).SuggestCategories(context.Background(), "todo", "en")
	require.NoError(t, err)
	assert.Len(t, got, 8)
}

func TestSuggestCategoriesFailures(t *testing.T) {
	tests := []struct {
		name        string
		llm         *fakeCompleter
		description string
		locale      string
		wantMsg     string
	}{
		{name: "empty input es", llm: &fakeCompleter{}, description: "  ", locale: "es", wantMsg: "Describe cómo usarás la app"},
		{name: "empty input en", llm: &fakeCompleter{}, description: "", locale: "en-US", wantMsg: "Describe how you will use the app"},
		{name: "upstream error", llm: &fakeCompleter{err: errors.New("timeout")}, description: "hogar", locale: "es", wantMsg: "Error al generar sugerencias"},
		{name: "unparseable", llm: &fakeCompleter{content: "nope"}, description: "hogar", locale: "es", wantMsg: "Error al generar sugerencias"},
		{name: "no categories", llm: &fakeCompleter{content: `{"categories": []}`}, description: "hogar", locale: "fr", wantMsg: "Could not generate suggestions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSuggester(tt.llm, nil).SuggestCategories(context.Background(), tt.description, tt.locale)
			assert.Nil(t, got)

			var uerr *core.UserError
			require.ErrorAs(t, err, &uerr)
			assert.Equal(t, tt.wantMsg, uerr.UserMessage)
		})
	}
}
