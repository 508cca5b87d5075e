package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendly/internal/core"
	applog "spendly/internal/log"
	"spendly/internal/ports"
)

// ExpenseRepository is everything the expense service reads and writes.
// References are looked up through the taxonomy stores to enforce
// ownership.
type ExpenseRepository interface {
	ports.ExpenseStore
	ports.CategoryStore
	ports.AccountStore
	ports.OwnerStore
}

// ExpenseService orchestrates expense operations across storage and event publishing.
type ExpenseService struct {
	repo   ExpenseRepository
	events ports.EventPublisher
	now    func() time.Time
	newID  func() string
}

// NewExpenseService wires the service. events may be nil when no broker is
// configured.
func NewExpenseService(repo ExpenseRepository, events ports.EventPublisher) *ExpenseService {
	return &ExpenseService{
		repo:   repo,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return core.ErrNotAuthenticated
	}
	return nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context, userID string, f core.ExpenseFilter) (core.ExpensePage, error) {
	if err := requireUser(userID); err != nil {
		return core.ExpensePage{}, err
	}
	f = f.Normalize()
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(f.DateFrom.Time) {
		return core.ExpensePage{}, fmt.Errorf("%w: date_to is before date_from", core.ErrValidation)
	}

	items, total, err := s.repo.ListExpenses(ctx, userID, f)
	if err != nil {
		return core.ExpensePage{}, fmt.Errorf("list expenses: %w", err)
	}
	return core.ExpensePage{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, userID, id string) (core.ExpenseWithRelations, error) {
	if err := requireUser(userID); err != nil {
		return core.ExpenseWithRelations{}, err
	}
	return s.repo.GetExpense(ctx, userID, id)
}

// CreateExpense validates and saves an expense, then publishes an event.
// A missing source defaults to manual.
func (s *ExpenseService) CreateExpense(ctx context.Context, userID string, in core.ExpenseInput) (core.ExpenseWithRelations, error) {
	if err := requireUser(userID); err != nil {
		return core.ExpenseWithRelations{}, err
	}

	e := core.Expense{
		ID:          s.newID(),
		UserID:      userID,
		Date:        in.Date,
		Amount:      in.Amount,
		Currency:    core.NormalizeCurrency(in.Currency),
		Description: strings.TrimSpace(in.Description),
		CategoryID:  nonEmpty(in.CategoryID),
		AccountID:   nonEmpty(in.AccountID),
		OwnerID:     nonEmpty(in.OwnerID),
		Source:      in.Source,
		Notes:       nonEmpty(in.Notes),
		CreatedAt:   s.now(),
	}
	if e.Source == "" {
		e.Source = core.SourceManual
	}
	if err := e.Validate(); err != nil {
		return core.ExpenseWithRelations{}, err
	}
	if err := s.checkReferences(ctx, e); err != nil {
		return core.ExpenseWithRelations{}, err
	}

	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return core.ExpenseWithRelations{}, fmt.Errorf("save expense: %w", err)
	}

	applog.NewStructuredLogger(applog.FromContext(ctx)).LogExpenseCreated(ctx, e.ID, e.Amount.Cents, e.Currency, string(e.Source))
	s.publish(ctx, core.ExpenseCreated, e)

	return s.repo.GetExpense(ctx, userID, e.ID)
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, userID, id string, patch core.ExpensePatch) (core.ExpenseWithRelations, error) {
	if err := requireUser(userID); err != nil {
		return core.ExpenseWithRelations{}, err
	}

	current, err := s.repo.GetExpense(ctx, userID, id)
	if err != nil {
		return core.ExpenseWithRelations{}, err
	}

	e := patch.Apply(current.Expense)
	if err := e.Validate(); err != nil {
		return core.ExpenseWithRelations{}, err
	}
	if err := s.checkReferences(ctx, e); err != nil {
		return core.ExpenseWithRelations{}, err
	}

	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return core.ExpenseWithRelations{}, fmt.Errorf("update expense: %w", err)
	}
	s.publish(ctx, core.ExpenseUpdated, e)

	return s.repo.GetExpense(ctx, userID, id)
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.repo.DeleteExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.publish(ctx, core.ExpenseDeleted, core.Expense{ID: id, UserID: userID})
	return nil
}

// checkReferences makes sure every set reference belongs to the expense's user.
func (s *ExpenseService) checkReferences(ctx context.Context, e core.Expense) error {
	if e.CategoryID != nil {
		if _, err := s.repo.GetCategory(ctx, e.UserID, *e.CategoryID); err != nil {
			return referenceError("category", *e.CategoryID, err)
		}
	}
	if e.AccountID != nil {
		if _, err := s.repo.GetAccount(ctx, e.UserID, *e.AccountID); err != nil {
			return referenceError("account", *e.AccountID, err)
		}
	}
	if e.OwnerID != nil {
		if _, err := s.repo.GetOwner(ctx, e.UserID, *e.OwnerID); err != nil {
			return referenceError("owner", *e.OwnerID, err)
		}
	}
	return nil
}

func referenceError(kind, id string, err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", core.ErrInvalidReference, kind, id)
	}
	return fmt.Errorf("check %s: %w", kind, err)
}

// publish never fails the request: the expense is already saved.
func (s *ExpenseService) publish(ctx context.Context, t core.ExpenseEventType, e core.Expense) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishExpenseEvent(ctx, core.NewExpenseEvent(t, e, s.now())); err != nil {
		fields := applog.NewFields().
			WithComponent(applog.ComponentExpense).
			WithUser(e.UserID).
			WithError(err)
		fields[applog.FieldExpenseID] = e.ID
		slog.ErrorContext(ctx, "Failed to publish expense event", append(fields.ToSlice(), "type", t)...)
	}
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
