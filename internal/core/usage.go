package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type AIRequestType string

const (
	RequestClassifyText      AIRequestType = "classify_text"
	RequestClassifyVoice     AIRequestType = "classify_voice"
	RequestTranscribe        AIRequestType = "transcribe"
	RequestSuggestCategories AIRequestType = "suggest_categories"
)

// AIUsage is what a single hosted-model call consumed.
type AIUsage struct {
	RequestType      AIRequestType
	Model            string
	PromptTokens     int
	CompletionTokens int
	AudioSeconds     float64
}

// UsageLog is a persisted AIUsage with its estimated cost.
type UsageLog struct {
	ID               string        `json:"id" db:"id"`
	UserID           string        `json:"user_id" db:"user_id"`
	RequestType      AIRequestType `json:"request_type" db:"request_type"`
	Model            string        `json:"model" db:"model"`
	PromptTokens     int           `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens" db:"completion_tokens"`
	AudioSeconds     float64       `json:"audio_seconds" db:"audio_seconds"`
	EstimatedCostUSD float64       `json:"estimated_cost_usd" db:"estimated_cost_usd"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
}

type modelPrice struct {
	inputPerMillion  float64
	outputPerMillion float64
	perMinute        float64
}

var modelPrices = map[string]modelPrice{
	"gpt-4o-mini": {inputPerMillion: 0.15, outputPerMillion: 0.60},
	"gpt-4o":      {inputPerMillion: 2.50, outputPerMillion: 10.00},
	"whisper-1":   {perMinute: 0.006},
}

// priceFor resolves dated snapshots such as "gpt-4o-mini-2024-07-18" to
// their base model, preferring the longest matching name.
func priceFor(model string) (modelPrice, bool) {
	if p, ok := modelPrices[model]; ok {
		return p, true
	}
	best := ""
	for name := range modelPrices {
		if strings.HasPrefix(model, name+"-") && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return modelPrice{}, false
	}
	return modelPrices[best], true
}

// EstimateCostUSD prices u with the published per-token and per-minute
// rates. Unknown models cost nothing.
func EstimateCostUSD(u AIUsage) float64 {
	p, ok := priceFor(u.Model)
	if !ok {
		return 0
	}
	cost := float64(u.PromptTokens)/1e6*p.inputPerMillion +
		float64(u.CompletionTokens)/1e6*p.outputPerMillion +
		u.AudioSeconds/60*p.perMinute
	return math.Round(cost*1e8) / 1e8
}

type RequestTypeStats struct {
	Count int     `json:"count"`
	Cost  float64 `json:"cost"`
}

type UsageEntry struct {
	Date        time.Time     `json:"date"`
	RequestType AIRequestType `json:"requestType"`
	Model       string        `json:"model"`
	Cost        float64       `json:"cost"`
}

type CreditsBalance struct {
	Credits          float64 `json:"credits"`
	FormattedCredits string  `json:"formattedCredits"`
}

type CreditsStats struct {
	TotalCost      float64                            `json:"totalCost"`
	RequestsByType map[AIRequestType]RequestTypeStats `json:"requestsByType"`
	RecentUsage    []UsageEntry                       `json:"recentUsage"`
}

type CreditsData struct {
	Balance CreditsBalance `json:"balance"`
	Stats   CreditsStats   `json:"stats"`
}

// UsageWindow and UsageLimit bound the credits page history.
const (
	UsageWindow = 30 * 24 * time.Hour
	UsageLimit  = 50
)

// SummarizeCredits folds recent usage logs into the credits view.
func SummarizeCredits(balance float64, logs []UsageLog) CreditsData {
	data := CreditsData{
		Balance: CreditsBalance{
			Credits:          balance,
			FormattedCredits: fmt.Sprintf("$%.2f", balance),
		},
		Stats: CreditsStats{
			RequestsByType: make(map[AIRequestType]RequestTypeStats),
			RecentUsage:    make([]UsageEntry, 0, len(logs)),
		},
	}
	for _, l := range logs {
		data.Stats.TotalCost += l.EstimatedCostUSD
		s := data.Stats.RequestsByType[l.RequestType]
		s.Count++
		s.Cost += l.EstimatedCostUSD
		data.Stats.RequestsByType[l.RequestType] = s
		data.Stats.RecentUsage = append(data.Stats.RecentUsage, UsageEntry{
			Date:        l.CreatedAt,
			RequestType: l.RequestType,
			Model:       l.Model,
			Cost:        l.EstimatedCostUSD,
		})
	}
	return data
}
