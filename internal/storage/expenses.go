package storage

import (
	"context"
	"fmt"
	"strings"

	"spendly/internal/core"
)

const expenseColumns = `id, user_id, date, amount_cents, currency, description, category_id, account_id, owner_id, source, notes, created_at`

const expenseWithRelationsSelect = `
SELECT e.id, e.user_id, e.date, e.amount_cents, e.currency, e.description,
       e.category_id, e.account_id, e.owner_id, e.source, e.notes, e.created_at,
       c.name AS category_name,
       a.name AS account_name,
       a.account_type AS account_type,
       o.name AS owner_name,
       o.color_tag AS owner_color
FROM expenses e
LEFT JOIN categories c ON c.id = e.category_id
LEFT JOIN accounts a ON a.id = e.account_id
LEFT JOIN owners o ON o.id = e.owner_id`

func expenseWhere(userID string, f core.ExpenseFilter) (string, []any) {
	conds := []string{"e.user_id = ?"}
	args := []any{userID}
	if f.CategoryID != nil {
		conds = append(conds, "e.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.AccountID != nil {
		conds = append(conds, "e.account_id = ?")
		args = append(args, *f.AccountID)
	}
	if f.OwnerID != nil {
		conds = append(conds, "e.owner_id = ?")
		args = append(args, *f.OwnerID)
	}
	if f.DateFrom != nil {
		conds = append(conds, "e.date >= ?")
		args = append(args, *f.DateFrom)
	}
	if f.DateTo != nil {
		conds = append(conds, "e.date <= ?")
		args = append(args, *f.DateTo)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Store) ListExpenses(ctx context.Context, userID string, f core.ExpenseFilter) ([]core.ExpenseWithRelations, int, error) {
	f = f.Normalize()
	where, args := expenseWhere(userID, f)

	var total int
	if err := s.db.GetContext(ctx, &total, s.rebind(`SELECT COUNT(*) FROM expenses e`+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}

	q := expenseWithRelationsSelect + where + ` ORDER BY e.date DESC, e.created_at DESC LIMIT ? OFFSET ?`
	rows := []core.ExpenseWithRelations{}
	if err := s.db.SelectContext(ctx, &rows, s.rebind(q), append(args, f.PageSize, f.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	return rows, total, nil
}

func (s *Store) GetExpense(ctx context.Context, userID, id string) (core.ExpenseWithRelations, error) {
	var e core.ExpenseWithRelations
	q := expenseWithRelationsSelect + ` WHERE e.user_id = ? AND e.id = ?`
	if err := s.db.GetContext(ctx, &e, s.rebind(q), userID, id); err != nil {
		return e, fmt.Errorf("get expense %s: %w", id, translate(err))
	}
	return e, nil
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) error {
	s.fillNew(&e.ID, &e.CreatedAt)
	q := `INSERT INTO expenses (` + expenseColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, s.rebind(q),
		e.ID, e.UserID, e.Date, e.Amount, e.Currency, e.Description,
		e.CategoryID, e.AccountID, e.OwnerID, e.Source, e.Notes, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create expense: %w", translate(err))
	}
	return nil
}

func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) error {
	q := `UPDATE expenses
SET date = ?, amount_cents = ?, currency = ?, description = ?,
    category_id = ?, account_id = ?, owner_id = ?, source = ?, notes = ?
WHERE user_id = ? AND id = ?`
	res, err := s.db.ExecContext(ctx, s.rebind(q),
		e.Date, e.Amount, e.Currency, e.Description,
		e.CategoryID, e.AccountID, e.OwnerID, e.Source, e.Notes,
		e.UserID, e.ID)
	if err != nil {
		return fmt.Errorf("update expense %s: %w", e.ID, translate(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("update expense %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM expenses WHERE user_id = ? AND id = ?`), userID, id)
	if err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return nil
}

// Dashboard reads

func (s *Store) ListMonthExpenses(ctx context.Context, userID string, from, to core.Date) ([]core.MonthExpenseRow, error) {
	q := `SELECT e.date, e.amount_cents, c.name AS category_name
FROM expenses e
LEFT JOIN categories c ON c.id = e.category_id
WHERE e.user_id = ? AND e.date >= ? AND e.date <= ?
ORDER BY e.date ASC`
	rows := []core.MonthExpenseRow{}
	if err := s.db.SelectContext(ctx, &rows, s.rebind(q), userID, from, to); err != nil {
		return nil, fmt.Errorf("list month expenses: %w", err)
	}
	return rows, nil
}

func (s *Store) ListMonthAmounts(ctx context.Context, userID string, from, to core.Date) ([]core.Money, error) {
	q := `SELECT amount_cents FROM expenses WHERE user_id = ? AND date >= ? AND date <= ?`
	amounts := []core.Money{}
	if err := s.db.SelectContext(ctx, &amounts, s.rebind(q), userID, from, to); err != nil {
		return nil, fmt.Errorf("list month amounts: %w", err)
	}
	return amounts, nil
}

func (s *Store) ListRecentExpenses(ctx context.Context, userID string, limit int) ([]core.RecentExpenseRow, error) {
	q := `SELECT e.id, e.date, e.amount_cents, e.description, e.created_at,
       c.name AS category_name, o.name AS owner_name
FROM expenses e
LEFT JOIN categories c ON c.id = e.category_id
LEFT JOIN owners o ON o.id = e.owner_id
WHERE e.user_id = ?
ORDER BY e.date DESC, e.created_at DESC
LIMIT ?`
	rows := []core.RecentExpenseRow{}
	if err := s.db.SelectContext(ctx, &rows, s.rebind(q), userID, limit); err != nil {
		return nil, fmt.Errorf("list recent expenses: %w", err)
	}
	return rows, nil
}
