package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextOwnerColor(t *testing.T) {
	assert.Equal(t, "#ef4444", NextOwnerColor(nil))
	assert.Equal(t, "#eab308", NextOwnerColor([]string{"#EF4444", "#f97316"}))
	assert.Equal(t, OwnerPalette[0], NextOwnerColor(OwnerPalette))
}

func TestDuplicateChecker(t *testing.T) {
	existing := []Category{{Name: "Comida"}, {Name: "Transporte "}}
	d := NewDuplicateChecker(CategoryKeys(existing)...)

	assert.False(t, d.Add(NameKey("comida")))
	assert.False(t, d.Add(NameKey("  TRANSPORTE")))
	assert.True(t, d.Add(NameKey("Salud")))
	assert.False(t, d.Add(NameKey("salud")), "pending entries count too")
}

func TestAccountKeyIncludesType(t *testing.T) {
	d := NewDuplicateChecker(AccountKeys([]Account{{Name: "BI", Type: AccountPersonalBank}})...)

	assert.False(t, d.Add(AccountKey("bi", AccountPersonalBank)))
	assert.True(t, d.Add(AccountKey("bi", AccountCreditCard)))
}

func TestNormalizeKeywords(t *testing.T) {
	got := NormalizeKeywords([]string{" uber", "Uber", "", "taxi "})
	assert.Equal(t, Keywords{"uber", "taxi"}, got)
}

func TestKeywordsValueScan(t *testing.T) {
	v, err := Keywords{"super", "mercado"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["super","mercado"]`, v)

	nilValue, err := Keywords(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", nilValue)

	var k Keywords
	require.NoError(t, k.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, Keywords{"a", "b"}, k)
	require.NoError(t, k.Scan(nil))
	assert.Empty(t, k)

	b, err := json.Marshal(Category{Name: "x"})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"keywords":[]`)
}

func TestDateScanAndJSON(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2024-03-05"))
	assert.Equal(t, "2024-03-05", d.String())

	require.NoError(t, d.Scan(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-06", d.String())

	require.NoError(t, d.Scan([]byte("2024-03-07T00:00:00Z")))
	assert.Equal(t, "2024-03-07", d.String())

	v, err := NewDate(2024, 3, 5).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", v)

	b, err := json.Marshal(NewDate(2024, 12, 1))
	require.NoError(t, err)
	assert.Equal(t, `"2024-12-01"`, string(b))

	var parsed Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-12-01"`), &parsed))
	assert.Equal(t, NewDate(2024, 12, 1), parsed)
	assert.ErrorIs(t, json.Unmarshal([]byte(`"12/01/2024"`), &parsed), ErrInvalidDate)
}

func TestEstimateCostUSD(t *testing.T) {
	cost := EstimateCostUSD(AIUsage{Model: "gpt-4o-mini", PromptTokens: 1_000_000, CompletionTokens: 1_000_000})
	assert.InDelta(t, 0.75, cost, 1e-9)

	cost = EstimateCostUSD(AIUsage{Model: "whisper-1", AudioSeconds: 30})
	assert.InDelta(t, 0.003, cost, 1e-9)

	assert.Zero(t, EstimateCostUSD(AIUsage{Model: "unknown", PromptTokens: 10}))

	// snapshot names resolve to the longest base model
	cost = EstimateCostUSD(AIUsage{Model: "gpt-4o-mini-2024-07-18", PromptTokens: 1_000_000})
	assert.InDelta(t, 0.15, cost, 1e-9)
	cost = EstimateCostUSD(AIUsage{Model: "gpt-4o-2024-08-06", PromptTokens: 1_000_000})
	assert.InDelta(t, 2.50, cost, 1e-9)
}

func TestSummarizeCredits(t *testing.T) {
	logs := []UsageLog{
		{RequestType: RequestClassifyText, Model: "gpt-4o-mini", EstimatedCostUSD: 0.01},
		{RequestType: RequestClassifyText, Model: "gpt-4o-mini", EstimatedCostUSD: 0.02},
		{RequestType: RequestTranscribe, Model: "whisper-1", EstimatedCostUSD: 0.003},
	}
	data := SummarizeCredits(4.5, logs)

	assert.Equal(t, "$4.50", data.Balance.FormattedCredits)
	assert.InDelta(t, 0.033, data.Stats.TotalCost, 1e-9)
	assert.Equal(t, 2, data.Stats.RequestsByType[RequestClassifyText].Count)
	assert.InDelta(t, 0.03, data.Stats.RequestsByType[RequestClassifyText].Cost, 1e-9)
	assert.Len(t, data.Stats.RecentUsage, 3)
}
