package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validExpense() Expense {
	return Expense{
		Date:        NewDate(2025, 1, 1),
		Amount:      Money{Cents: 100},
		Currency:    "GTQ",
		Description: "almuerzo",
		Source:      SourceManual,
	}
}

func TestExpenseValidate(t *testing.T) {
	require.NoError(t, validExpense().Validate())

	zeroAmount := validExpense()
	zeroAmount.Amount = Money{}
	assert.NoError(t, zeroAmount.Validate(), "zero is a valid non-negative amount")

	tests := []struct {
		name   string
		mutate func(*Expense)
		want   error
	}{
		{"zero date", func(e *Expense) { e.Date = Date{} }, ErrInvalidDate},
		{"negative amount", func(e *Expense) { e.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{"lowercase currency", func(e *Expense) { e.Currency = "gtq" }, ErrInvalidCurrency},
		{"long currency", func(e *Expense) { e.Currency = "GTQQ" }, ErrInvalidCurrency},
		{"blank description", func(e *Expense) { e.Description = "  " }, ErrEmptyDescription},
		{"unknown source", func(e *Expense) { e.Source = "scan" }, ErrInvalidSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense()
			tt.mutate(&e)
			err := e.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestAccountValidate(t *testing.T) {
	assert.NoError(t, Account{Name: "Visa", Type: AccountCreditCard}.Validate())
	assert.ErrorIs(t, Account{Name: "Visa", Type: "loan"}.Validate(), ErrInvalidAccountType)
	assert.ErrorIs(t, Account{Name: " ", Type: AccountCash}.Validate(), ErrEmptyName)
}

func TestOwnerValidate(t *testing.T) {
	assert.NoError(t, Owner{Name: "Ana", ColorTag: "#22c55e"}.Validate())
	assert.ErrorIs(t, Owner{Name: "Ana", ColorTag: "#123456"}.Validate(), ErrInvalidColor)
	assert.ErrorIs(t, Owner{Name: "", ColorTag: "#22c55e"}.Validate(), ErrEmptyName)
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, DefaultCurrency, NormalizeCurrency(""))
	assert.Equal(t, "USD", NormalizeCurrency(" usd "))
}

func TestExpensePatchApply(t *testing.T) {
	cat := "cat-1"
	e := validExpense()
	e.CategoryID = &cat
	acct := "acct-1"
	e.AccountID = &acct

	desc := "  cena  "
	owner := "owner-1"
	empty := ""
	patched := ExpensePatch{
		Description:   &desc,
		OwnerID:       &owner,
		AccountID:     &empty,
		ClearCategory: true,
	}.Apply(e)

	assert.Equal(t, "cena", patched.Description)
	assert.Nil(t, patched.CategoryID)
	assert.Nil(t, patched.AccountID)
	require.NotNil(t, patched.OwnerID)
	assert.Equal(t, "owner-1", *patched.OwnerID)
	assert.Equal(t, e.Amount, patched.Amount)
	require.NotNil(t, e.CategoryID, "original is not modified")
}

func TestExpenseFilterNormalize(t *testing.T) {
	f := ExpenseFilter{}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPageSize, f.PageSize)
	assert.Equal(t, 0, f.Offset())

	f = ExpenseFilter{Page: 3, PageSize: 1000}.Normalize()
	assert.Equal(t, MaxPageSize, f.PageSize)
	assert.Equal(t, 200, f.Offset())
}

func TestUserError(t *testing.T) {
	cause := errors.New("boom")
	err := NewUserError("No se pudo", cause)

	var ue *UserError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "No se pudo", ue.UserMessage)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "No se pudo: boom", err.Error())
}

func TestDuplicateError(t *testing.T) {
	err := DuplicateError("category", "Comida")
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), `"Comida"`)
}
