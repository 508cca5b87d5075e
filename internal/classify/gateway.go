// Package classify turns free text and recorded audio into structured
// expense suggestions using a hosted language model.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"spendly/internal/ai"
	"spendly/internal/core"
	applog "spendly/internal/log"
)

// Completer is the chat-completion side of the model API.
type Completer interface {
	Complete(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error)
}

// UsageRecorder receives what every successful upstream call consumed.
// Implementations must not block the caller for long; failures are theirs
// to log.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, u core.AIUsage)
}

type GatewayConfig struct {
	DefaultCurrency string
	// ValidateSuggestedIDs drops suggested ids that are not in the lists
	// passed to Classify.
	ValidateSuggestedIDs bool
	Usage                UsageRecorder
	Now                  func() time.Time
}

// Gateway is the classification entry point. It never returns an error:
// any upstream or parse failure yields a result with confidence 0.
type Gateway struct {
	llm         Completer
	usage       UsageRecorder
	currency    string
	validateIDs bool
	now         func() time.Time
}

func NewGateway(llm Completer, cfg GatewayConfig) *Gateway {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Gateway{
		llm:         llm,
		usage:       cfg.Usage,
		currency:    core.NormalizeCurrency(cfg.DefaultCurrency),
		validateIDs: cfg.ValidateSuggestedIDs,
		now:         now,
	}
}

// Classify extracts expense fields from text, matching against the given
// taxonomy.
func (g *Gateway) Classify(ctx context.Context, text string, cats []core.Category, accts []core.Account, owners []core.Owner) core.ClassificationResult {
	return g.classify(ctx, core.RequestClassifyText, text, cats, accts, owners)
}

func (g *Gateway) classify(ctx context.Context, reqType core.AIRequestType, text string, cats []core.Category, accts []core.Account, owners []core.Owner) core.ClassificationResult {
	fallback := core.DefaultClassification(text, g.currency)

	resp, err := g.llm.Complete(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			ai.SystemMessage(g.systemPrompt(cats, accts, owners)),
			ai.UserMessage(text),
		},
		JSONMode: true,
	})
	if err != nil {
		slog.WarnContext(ctx, "Classification request failed", modelCall(applog.OpClassify, reqType, "").WithError(err).ToSlice()...)
		return fallback
	}
	g.record(ctx, core.AIUsage{
		RequestType:      reqType,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	})

	if strings.TrimSpace(resp.Content) == "" {
		slog.WarnContext(ctx, "Classification returned no content", modelCall(applog.OpClassify, reqType, resp.Model).ToSlice()...)
		return fallback
	}

	raw, err := decodeClassification(resp.Content)
	if err != nil {
		slog.WarnContext(ctx, "Malformed classification response", modelCall(applog.OpClassify, reqType, resp.Model).WithError(err).ToSlice()...)
		return fallback
	}

	result := raw.resolve(text, g.currency)
	if g.validateIDs {
		g.dropUnknownIDs(ctx, &result, cats, accts, owners)
	}
	return result
}

func (g *Gateway) record(ctx context.Context, u core.AIUsage) {
	if g.usage != nil {
		g.usage.RecordUsage(ctx, u)
	}
}

func (g *Gateway) systemPrompt(cats []core.Category, accts []core.Account, owners []core.Owner) string {
	today := core.DateOf(g.now()).String()

	var categoryList, accountList, ownerList []string
	for _, c := range cats {
		categoryList = append(categoryList, fmt.Sprintf("%s: %s (keywords: %s)", c.ID, c.Name, strings.Join(c.Keywords, ", ")))
	}
	for _, a := range accts {
		accountList = append(accountList, fmt.Sprintf("%s: %s (%s)", a.ID, a.Name, a.Type))
	}
	for _, o := range owners {
		ownerList = append(ownerList, fmt.Sprintf("%s: %s", o.ID, o.Name))
	}

	var b strings.Builder
	b.WriteString("You are an expense classification assistant. Extract expense details from natural language text.\n")
	fmt.Fprintf(&b, "Today's date is %s. Default currency is %s.\n\n", today, g.currency)
	fmt.Fprintf(&b, "Available categories:\n%s\n\n", orNone(categoryList))
	fmt.Fprintf(&b, "Available accounts:\n%s\n\n", orNone(accountList))
	fmt.Fprintf(&b, "Available owners/responsibles:\n%s\n\n", orNone(ownerList))
	b.WriteString("Return a JSON object with exactly these fields:\n")
	b.WriteString("- amount: number or null if not mentioned\n")
	fmt.Fprintf(&b, "- currency: string (default %q)\n", g.currency)
	b.WriteString(`- date: string in YYYY-MM-DD format or null (use today if "today"/"hoy" is mentioned, yesterday for "yesterday"/"ayer")` + "\n")
	b.WriteString("- description: string (clean, concise description of the expense)\n")
	b.WriteString("- suggestedCategoryId: string ID from the list above or null\n")
	b.WriteString("- suggestedAccountId: string ID from the list above or null\n")
	b.WriteString("- suggestedOwnerId: string ID from the list above or null\n")
	b.WriteString("- newCategoryName: string if the expense doesn't match any existing category, suggest a new name, otherwise null\n")
	b.WriteString("- newAccountName: string if a new account is mentioned, otherwise null\n")
	b.WriteString("- newOwnerName: string if a new person/owner is mentioned, otherwise null\n")
	b.WriteString("- confidence: number between 0 and 1\n\n")
	b.WriteString("Match categories by keywords and name similarity. Only suggest new names if there's clearly no match.")
	return b.String()
}

func orNone(lines []string) string {
	if len(lines) == 0 {
		return "None yet"
	}
	return strings.Join(lines, "\n")
}

// rawClassification is the exact field set the model may return. Pointer
// fields distinguish absent from zero.
type rawClassification struct {
	Amount              *float64 `json:"amount"`
	Currency            *string  `json:"currency"`
	Date                *string  `json:"date"`
	Description         *string  `json:"description"`
	SuggestedCategoryID *string  `json:"suggestedCategoryId"`
	SuggestedAccountID  *string  `json:"suggestedAccountId"`
	SuggestedOwnerID    *string  `json:"suggestedOwnerId"`
	NewCategoryName     *string  `json:"newCategoryName"`
	NewAccountName      *string  `json:"newAccountName"`
	NewOwnerName        *string  `json:"newOwnerName"`
	Confidence          *float64 `json:"confidence"`
}

var errNotObject = errors.New("response is not a JSON object")

func decodeClassification(content string) (rawClassification, error) {
	var raw rawClassification
	data := []byte(stripCodeFence(content))
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return raw, errNotObject
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return raw, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return raw, errors.New("trailing data after JSON object")
	}
	return raw, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add even in
// JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func (r rawClassification) resolve(text, defaultCurrency string) core.ClassificationResult {
	out := core.DefaultClassification(text, defaultCurrency)

	if r.Amount != nil && *r.Amount >= 0 {
		amount := *r.Amount
		out.Amount = &amount
	}
	if r.Currency != nil && core.IsCurrencyCode(core.NormalizeCurrency(*r.Currency)) {
		out.Currency = core.NormalizeCurrency(*r.Currency)
	}
	out.Date = nonBlank(r.Date)
	if d := nonBlank(r.Description); d != nil {
		out.Description = *d
	}
	out.SuggestedCategoryID = nonBlank(r.SuggestedCategoryID)
	out.SuggestedAccountID = nonBlank(r.SuggestedAccountID)
	out.SuggestedOwnerID = nonBlank(r.SuggestedOwnerID)
	out.NewCategoryName = nonBlank(r.NewCategoryName)
	out.NewAccountName = nonBlank(r.NewAccountName)
	out.NewOwnerName = nonBlank(r.NewOwnerName)
	if r.Confidence != nil {
		out.Confidence = clamp01(*r.Confidence)
	}
	return out
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func (g *Gateway) dropUnknownIDs(ctx context.Context, r *core.ClassificationResult, cats []core.Category, accts []core.Account, owners []core.Owner) {
	if r.SuggestedCategoryID != nil && !hasID(cats, *r.SuggestedCategoryID, func(c core.Category) string { return c.ID }) {
		slog.WarnContext(ctx, "Dropping suggested id not in taxonomy", applog.FieldOperation, applog.OpClassify, "field", "suggestedCategoryId", "id", *r.SuggestedCategoryID)
		r.SuggestedCategoryID = nil
	}
	if r.SuggestedAccountID != nil && !hasID(accts, *r.SuggestedAccountID, func(a core.Account) string { return a.ID }) {
		slog.WarnContext(ctx, "Dropping suggested id not in taxonomy", applog.FieldOperation, applog.OpClassify, "field", "suggestedAccountId", "id", *r.SuggestedAccountID)
		r.SuggestedAccountID = nil
	}
	if r.SuggestedOwnerID != nil && !hasID(owners, *r.SuggestedOwnerID, func(o core.Owner) string { return o.ID }) {
		slog.WarnContext(ctx, "Dropping suggested id not in taxonomy", applog.FieldOperation, applog.OpClassify, "field", "suggestedOwnerId", "id", *r.SuggestedOwnerID)
		r.SuggestedOwnerID = nil
	}
}

// modelCall tags a log line with the AI call it belongs to.
func modelCall(op string, reqType core.AIRequestType, model string) applog.LogFields {
	return applog.NewFields().
		WithComponent(applog.ComponentAI).
		WithOperation(op).
		WithModelCall(string(reqType), model)
}

func hasID[T any](items []T, id string, idOf func(T) string) bool {
	for _, it := range items {
		if idOf(it) == id {
			return true
		}
	}
	return false
}
