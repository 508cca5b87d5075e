package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"spendly/internal/core"
)

const (
	categoryColumns = `id, user_id, name, keywords, is_active, created_at`
	accountColumns  = `id, user_id, name, account_type, is_active, created_at`
	ownerColumns    = `id, user_id, name, color_tag, is_active, created_at`
)

func activeClause(activeOnly bool) string {
	if activeOnly {
		return ` AND is_active = ?`
	}
	return ``
}

func listArgs(userID string, activeOnly bool) []any {
	if activeOnly {
		return []any{userID, true}
	}
	return []any{userID}
}

// Categories

func (s *Store) ListCategories(ctx context.Context, userID string, activeOnly bool) ([]core.Category, error) {
	q := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = ?` + activeClause(activeOnly) + ` ORDER BY name`
	cats := []core.Category{}
	if err := s.db.SelectContext(ctx, &cats, s.rebind(q), listArgs(userID, activeOnly)...); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *Store) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	var c core.Category
	q := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = ? AND id = ?`
	if err := s.db.GetContext(ctx, &c, s.rebind(q), userID, id); err != nil {
		return c, fmt.Errorf("get category %s: %w", id, translate(err))
	}
	return c, nil
}

// CreateCategories inserts every category or none of them.
func (s *Store) CreateCategories(ctx context.Context, cats ...core.Category) error {
	q := s.rebind(`INSERT INTO categories (` + categoryColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i := range cats {
			c := &cats[i]
			s.fillNew(&c.ID, &c.CreatedAt)
			if _, err := tx.ExecContext(ctx, q, c.ID, c.UserID, c.Name, c.Keywords, c.IsActive, c.CreatedAt); err != nil {
				return fmt.Errorf("create category %q: %w", c.Name, translate(err))
			}
		}
		return nil
	})
}

func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	q := `UPDATE categories SET name = ?, keywords = ?, is_active = ? WHERE user_id = ? AND id = ?`
	res, err := s.db.ExecContext(ctx, s.rebind(q), c.Name, c.Keywords, c.IsActive, c.UserID, c.ID)
	if err != nil {
		return fmt.Errorf("update category %s: %w", c.ID, translate(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("update category %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "categories", userID, id)
}

// Accounts

func (s *Store) ListAccounts(ctx context.Context, userID string, activeOnly bool) ([]core.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ?` + activeClause(activeOnly) + ` ORDER BY name`
	accts := []core.Account{}
	if err := s.db.SelectContext(ctx, &accts, s.rebind(q), listArgs(userID, activeOnly)...); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accts, nil
}

func (s *Store) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	var a core.Account
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ? AND id = ?`
	if err := s.db.GetContext(ctx, &a, s.rebind(q), userID, id); err != nil {
		return a, fmt.Errorf("get account %s: %w", id, translate(err))
	}
	return a, nil
}

func (s *Store) CreateAccounts(ctx context.Context, accts ...core.Account) error {
	q := s.rebind(`INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i := range accts {
			a := &accts[i]
			s.fillNew(&a.ID, &a.CreatedAt)
			if _, err := tx.ExecContext(ctx, q, a.ID, a.UserID, a.Name, a.Type, a.IsActive, a.CreatedAt); err != nil {
				return fmt.Errorf("create account %q: %w", a.Name, translate(err))
			}
		}
		return nil
	})
}

func (s *Store) UpdateAccount(ctx context.Context, a core.Account) error {
	q := `UPDATE accounts SET name = ?, account_type = ?, is_active = ? WHERE user_id = ? AND id = ?`
	res, err := s.db.ExecContext(ctx, s.rebind(q), a.Name, a.Type, a.IsActive, a.UserID, a.ID)
	if err != nil {
		return fmt.Errorf("update account %s: %w", a.ID, translate(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("update account %s: %w", a.ID, err)
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "accounts", userID, id)
}

// Owners

func (s *Store) ListOwners(ctx context.Context, userID string, activeOnly bool) ([]core.Owner, error) {
	q := `SELECT ` + ownerColumns + ` FROM owners WHERE user_id = ?` + activeClause(activeOnly) + ` ORDER BY name`
	owners := []core.Owner{}
	if err := s.db.SelectContext(ctx, &owners, s.rebind(q), listArgs(userID, activeOnly)...); err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	return owners, nil
}

func (s *Store) GetOwner(ctx context.Context, userID, id string) (core.Owner, error) {
	var o core.Owner
	q := `SELECT ` + ownerColumns + ` FROM owners WHERE user_id = ? AND id = ?`
	if err := s.db.GetContext(ctx, &o, s.rebind(q), userID, id); err != nil {
		return o, fmt.Errorf("get owner %s: %w", id, translate(err))
	}
	return o, nil
}

func (s *Store) CreateOwners(ctx context.Context, owners ...core.Owner) error {
	q := s.rebind(`INSERT INTO owners (` + ownerColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i := range owners {
			o := &owners[i]
			s.fillNew(&o.ID, &o.CreatedAt)
			if _, err := tx.ExecContext(ctx, q, o.ID, o.UserID, o.Name, o.ColorTag, o.IsActive, o.CreatedAt); err != nil {
				return fmt.Errorf("create owner %q: %w", o.Name, translate(err))
			}
		}
		return nil
	})
}

func (s *Store) UpdateOwner(ctx context.Context, o core.Owner) error {
	q := `UPDATE owners SET name = ?, color_tag = ?, is_active = ? WHERE user_id = ? AND id = ?`
	res, err := s.db.ExecContext(ctx, s.rebind(q), o.Name, o.ColorTag, o.IsActive, o.UserID, o.ID)
	if err != nil {
		return fmt.Errorf("update owner %s: %w", o.ID, translate(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("update owner %s: %w", o.ID, err)
	}
	return nil
}

func (s *Store) DeleteOwner(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "owners", userID, id)
}

// deleteOwned hard-deletes a taxonomy row. Expenses pointing at it keep
// existing with a null reference (ON DELETE SET NULL).
func (s *Store) deleteOwned(ctx context.Context, table, userID, id string) error {
	q := `DELETE FROM ` + table + ` WHERE user_id = ? AND id = ?`
	res, err := s.db.ExecContext(ctx, s.rebind(q), userID, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("delete from %s %s: %w", table, id, err)
	}
	return nil
}
