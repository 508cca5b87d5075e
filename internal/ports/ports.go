package ports

import (
	"context"
	"time"

	"spendly/internal/core"
)

// Ports for outbound adapters. Every read and write is scoped to the
// owning user; a row belonging to someone else behaves as core.ErrNotFound.
type (
	CategoryStore interface {
		ListCategories(ctx context.Context, userID string, activeOnly bool) ([]core.Category, error)
		GetCategory(ctx context.Context, userID, id string) (core.Category, error)
		CreateCategories(ctx context.Context, cats ...core.Category) error
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, userID, id string) error
	}

	AccountStore interface {
		ListAccounts(ctx context.Context, userID string, activeOnly bool) ([]core.Account, error)
		GetAccount(ctx context.Context, userID, id string) (core.Account, error)
		CreateAccounts(ctx context.Context, accts ...core.Account) error
		UpdateAccount(ctx context.Context, a core.Account) error
		DeleteAccount(ctx context.Context, userID, id string) error
	}

	OwnerStore interface {
		ListOwners(ctx context.Context, userID string, activeOnly bool) ([]core.Owner, error)
		GetOwner(ctx context.Context, userID, id string) (core.Owner, error)
		CreateOwners(ctx context.Context, owners ...core.Owner) error
		UpdateOwner(ctx context.Context, o core.Owner) error
		DeleteOwner(ctx context.Context, userID, id string) error
	}

	ExpenseStore interface {
		// ListExpenses returns one page ordered by date then creation time,
		// newest first, plus the total number of matching rows.
		ListExpenses(ctx context.Context, userID string, f core.ExpenseFilter) ([]core.ExpenseWithRelations, int, error)
		GetExpense(ctx context.Context, userID, id string) (core.ExpenseWithRelations, error)
		CreateExpense(ctx context.Context, e core.Expense) error
		UpdateExpense(ctx context.Context, e core.Expense) error
		DeleteExpense(ctx context.Context, userID, id string) error
	}

	// DashboardReader provides the three reads behind the dashboard.
	DashboardReader interface {
		ListMonthExpenses(ctx context.Context, userID string, from, to core.Date) ([]core.MonthExpenseRow, error)
		ListMonthAmounts(ctx context.Context, userID string, from, to core.Date) ([]core.Money, error)
		ListRecentExpenses(ctx context.Context, userID string, limit int) ([]core.RecentExpenseRow, error)
	}

	ProfileStore interface {
		// EnsureProfile returns the user's profile, creating an empty one on first access.
		EnsureProfile(ctx context.Context, userID string) (core.Profile, error)
		UpdateProfileName(ctx context.Context, userID string, fullName *string) error
		SetOnboardingCompleted(ctx context.Context, userID string, completed bool) error
	}

	UsageStore interface {
		RecordUsage(ctx context.Context, l core.UsageLog) error
		ListUsageSince(ctx context.Context, userID string, since time.Time, limit int) ([]core.UsageLog, error)
	}

	// EventPublisher announces expense lifecycle changes to other systems.
	EventPublisher interface {
		PublishExpenseEvent(ctx context.Context, ev core.ExpenseEvent) error
	}
)
