package core

import (
	"strings"
	"time"
)

const (
	DefaultCurrency = "GTQ"
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxDescription  = 500
)

const (
	AccountCreditCard   AccountType = "credit_card"
	AccountCompanyBank  AccountType = "company_bank"
	AccountPersonalBank AccountType = "personal_bank"
	AccountCash         AccountType = "cash"
)

const (
	SourceManual ExpenseSource = "manual"
	SourceVoice  ExpenseSource = "voice"
	SourceAIText ExpenseSource = "ai_text"
	SourceImport ExpenseSource = "import"
)

type (
	AccountType   string
	ExpenseSource string

	Category struct {
		ID        string    `json:"id" db:"id"`
		UserID    string    `json:"user_id" db:"user_id"`
		Name      string    `json:"name" db:"name"`
		Keywords  Keywords  `json:"keywords" db:"keywords"`
		IsActive  bool      `json:"is_active" db:"is_active"`
		CreatedAt time.Time `json:"created_at" db:"created_at"`
	}

	Account struct {
		ID        string      `json:"id" db:"id"`
		UserID    string      `json:"user_id" db:"user_id"`
		Name      string      `json:"name" db:"name"`
		Type      AccountType `json:"account_type" db:"account_type"`
		IsActive  bool        `json:"is_active" db:"is_active"`
		CreatedAt time.Time   `json:"created_at" db:"created_at"`
	}

	Owner struct {
		ID        string    `json:"id" db:"id"`
		UserID    string    `json:"user_id" db:"user_id"`
		Name      string    `json:"name" db:"name"`
		ColorTag  string    `json:"color_tag" db:"color_tag"`
		IsActive  bool      `json:"is_active" db:"is_active"`
		CreatedAt time.Time `json:"created_at" db:"created_at"`
	}

	Expense struct {
		ID          string        `json:"id" db:"id"`
		UserID      string        `json:"user_id" db:"user_id"`
		Date        Date          `json:"date" db:"date"`
		Amount      Money         `json:"amount" db:"amount_cents"`
		Currency    string        `json:"currency" db:"currency"`
		Description string        `json:"description" db:"description"`
		CategoryID  *string       `json:"category_id" db:"category_id"`
		AccountID   *string       `json:"account_id" db:"account_id"`
		OwnerID     *string       `json:"owner_id" db:"owner_id"`
		Source      ExpenseSource `json:"source" db:"source"`
		Notes       *string       `json:"notes" db:"notes"`
		CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	}

	// ExpenseWithRelations carries the display fields of the referenced
	// taxonomy. A nil name means the reference is unset or was deleted.
	ExpenseWithRelations struct {
		Expense
		CategoryName *string      `json:"category_name" db:"category_name"`
		AccountName  *string      `json:"account_name" db:"account_name"`
		AccountType  *AccountType `json:"account_type" db:"account_type"`
		OwnerName    *string      `json:"owner_name" db:"owner_name"`
		OwnerColor   *string      `json:"owner_color" db:"owner_color"`
	}

	Profile struct {
		ID                  string    `json:"id" db:"id"`
		FullName            *string   `json:"full_name" db:"full_name"`
		OnboardingCompleted bool      `json:"onboarding_completed" db:"onboarding_completed"`
		CreditsUSD          float64   `json:"credits_usd" db:"credits_usd"`
		CreatedAt           time.Time `json:"created_at" db:"created_at"`
	}
)

func (t AccountType) Validate() error {
	switch t {
	case AccountCreditCard, AccountCompanyBank, AccountPersonalBank, AccountCash:
		return nil
	}
	return ErrInvalidAccountType
}

func (s ExpenseSource) Validate() error {
	switch s {
	case SourceManual, SourceVoice, SourceAIText, SourceImport:
		return nil
	}
	return ErrInvalidSource
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return a.Type.Validate()
}

func (o Owner) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return ErrEmptyName
	}
	if !IsPaletteColor(o.ColorTag) {
		return ErrInvalidColor
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !IsCurrencyCode(e.Currency) {
		return ErrInvalidCurrency
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > MaxDescription {
		return ErrDescriptionTooLong
	}
	return e.Source.Validate()
}

// IsCurrencyCode reports whether s looks like an ISO 4217 code.
func IsCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// NormalizeCurrency upper-cases code and falls back to DefaultCurrency when empty.
func NormalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency
	}
	return code
}

// ExpenseInput holds the caller-supplied fields of a new expense.
type ExpenseInput struct {
	Date        Date          `json:"date"`
	Amount      Money         `json:"amount"`
	Currency    string        `json:"currency"`
	Description string        `json:"description"`
	CategoryID  *string       `json:"category_id"`
	AccountID   *string       `json:"account_id"`
	OwnerID     *string       `json:"owner_id"`
	Source      ExpenseSource `json:"source"`
	Notes       *string       `json:"notes"`
}

// ExpensePatch is a partial update; nil fields are left untouched.
// The Clear* flags null out a reference explicitly.
type ExpensePatch struct {
	Date          *Date          `json:"date"`
	Amount        *Money         `json:"amount"`
	Currency      *string        `json:"currency"`
	Description   *string        `json:"description"`
	CategoryID    *string        `json:"category_id"`
	AccountID     *string        `json:"account_id"`
	OwnerID       *string        `json:"owner_id"`
	Source        *ExpenseSource `json:"source"`
	Notes         *string        `json:"notes"`
	ClearCategory bool           `json:"clear_category"`
	ClearAccount  bool           `json:"clear_account"`
	ClearOwner    bool           `json:"clear_owner"`
}

// Apply returns a copy of e with the patch applied.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Currency != nil {
		e.Currency = NormalizeCurrency(*p.Currency)
	}
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.Source != nil {
		e.Source = *p.Source
	}
	if p.Notes != nil {
		e.Notes = emptyToNil(*p.Notes)
	}
	e.CategoryID = patchRef(e.CategoryID, p.CategoryID, p.ClearCategory)
	e.AccountID = patchRef(e.AccountID, p.AccountID, p.ClearAccount)
	e.OwnerID = patchRef(e.OwnerID, p.OwnerID, p.ClearOwner)
	return e
}

func patchRef(current, next *string, clear bool) *string {
	if clear {
		return nil
	}
	if next != nil {
		return emptyToNil(*next)
	}
	return current
}

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ExpenseFilter narrows an expense listing. Page is 1-based.
type ExpenseFilter struct {
	CategoryID *string
	AccountID  *string
	OwnerID    *string
	DateFrom   *Date
	DateTo     *Date
	Page       int
	PageSize   int
}

// Normalize clamps paging to sane values.
func (f ExpenseFilter) Normalize() ExpenseFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

func (f ExpenseFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type ExpensePage struct {
	Items    []ExpenseWithRelations `json:"items"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

// CategoryPatch, AccountPatch and OwnerPatch carry settings edits.
type CategoryPatch struct {
	Name     *string   `json:"name"`
	Keywords *[]string `json:"keywords"`
	IsActive *bool     `json:"is_active"`
}

type AccountPatch struct {
	Name     *string      `json:"name"`
	Type     *AccountType `json:"account_type"`
	IsActive *bool        `json:"is_active"`
}

type OwnerPatch struct {
	Name     *string `json:"name"`
	ColorTag *string `json:"color_tag"`
	IsActive *bool   `json:"is_active"`
}

func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Keywords != nil {
		c.Keywords = NormalizeKeywords(*p.Keywords)
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	return c
}

func (p AccountPatch) Apply(a Account) Account {
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	return a
}

func (p OwnerPatch) Apply(o Owner) Owner {
	if p.Name != nil {
		o.Name = strings.TrimSpace(*p.Name)
	}
	if p.ColorTag != nil {
		o.ColorTag = strings.ToLower(strings.TrimSpace(*p.ColorTag))
	}
	if p.IsActive != nil {
		o.IsActive = *p.IsActive
	}
	return o
}
