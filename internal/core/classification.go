package core

// ClassificationResult is the structured reading of a free-text expense.
// It is never persisted. A confidence of 0 means no usable suggestion.
type ClassificationResult struct {
	Amount              *float64 `json:"amount"`
	Currency            string   `json:"currency"`
	Date                *string  `json:"date"`
	Description         string   `json:"description"`
	SuggestedCategoryID *string  `json:"suggestedCategoryId"`
	SuggestedAccountID  *string  `json:"suggestedAccountId"`
	SuggestedOwnerID    *string  `json:"suggestedOwnerId"`
	NewCategoryName     *string  `json:"newCategoryName"`
	NewAccountName      *string  `json:"newAccountName"`
	NewOwnerName        *string  `json:"newOwnerName"`
	Confidence          float64  `json:"confidence"`
}

// DefaultClassification is the neutral result returned when the model
// produced nothing usable for text.
func DefaultClassification(text, currency string) ClassificationResult {
	return ClassificationResult{
		Currency:    NormalizeCurrency(currency),
		Description: text,
	}
}

// VoiceResult pairs a transcript with its classification.
type VoiceResult struct {
	Transcript     string               `json:"transcript"`
	Classification ClassificationResult `json:"classification"`
}

// SuggestedCategory is a category proposed during onboarding.
type SuggestedCategory struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Reason   string   `json:"reason"`
}
