package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"spendly/internal/core"
	"spendly/internal/ports"
)

type DashboardService struct {
	reader ports.DashboardReader
	now    func() time.Time
}

func NewDashboardService(reader ports.DashboardReader) *DashboardService {
	return &DashboardService{reader: reader, now: time.Now}
}

// GetDashboardData aggregates the current calendar month against the
// previous one. The three reads run concurrently; the first failure wins.
func (s *DashboardService) GetDashboardData(ctx context.Context, userID, uncategorizedLabel string) (core.DashboardData, error) {
	if err := requireUser(userID); err != nil {
		return core.DashboardData{}, err
	}

	now := s.now()
	from, to := core.MonthRange(now)
	prevFrom, prevTo := core.PreviousMonthRange(now)

	var (
		current  []core.MonthExpenseRow
		previous []core.Money
		recent   []core.RecentExpenseRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.reader.ListMonthExpenses(gctx, userID, from, to)
		if err != nil {
			return fmt.Errorf("current month: %w", err)
		}
		current = rows
		return nil
	})
	g.Go(func() error {
		amounts, err := s.reader.ListMonthAmounts(gctx, userID, prevFrom, prevTo)
		if err != nil {
			return fmt.Errorf("previous month: %w", err)
		}
		previous = amounts
		return nil
	})
	g.Go(func() error {
		rows, err := s.reader.ListRecentExpenses(gctx, userID, core.DashboardRecentLimit)
		if err != nil {
			return fmt.Errorf("recent expenses: %w", err)
		}
		recent = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.DashboardData{}, fmt.Errorf("load dashboard: %w", err)
	}

	return core.BuildDashboard(now, current, previous, recent, uncategorizedLabel), nil
}
