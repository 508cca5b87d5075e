package core

import "time"

type ExpenseEventType string

const (
	ExpenseCreated ExpenseEventType = "expense.created"
	ExpenseUpdated ExpenseEventType = "expense.updated"
	ExpenseDeleted ExpenseEventType = "expense.deleted"
)

// ExpenseEvent is a lightweight notification; consumers fetch the expense by id.
type ExpenseEvent struct {
	Type      ExpenseEventType `json:"type"`
	ExpenseID string           `json:"expense_id"`
	UserID    string           `json:"user_id"`
	Source    ExpenseSource    `json:"source,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewExpenseEvent(t ExpenseEventType, e Expense, now time.Time) ExpenseEvent {
	return ExpenseEvent{
		Type:      t,
		ExpenseID: e.ID,
		UserID:    e.UserID,
		Source:    e.Source,
		Timestamp: now,
	}
}
