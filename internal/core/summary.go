package core

import (
	"sort"
	"time"
)

// DefaultUncategorizedLabel groups expenses without a category.
const DefaultUncategorizedLabel = "Sin categoría"

// DashboardRecentLimit is how many recent expenses the dashboard shows.
const DashboardRecentLimit = 5

// MonthExpenseRow is the slice of an expense the dashboard needs for the current month.
type MonthExpenseRow struct {
	Date         Date    `db:"date"`
	Amount       Money   `db:"amount_cents"`
	CategoryName *string `db:"category_name"`
}

// RecentExpenseRow is a recent expense with its display names resolved.
type RecentExpenseRow struct {
	ID           string    `db:"id"`
	Date         Date      `db:"date"`
	Amount       Money     `db:"amount_cents"`
	Description  string    `db:"description"`
	CategoryName *string   `db:"category_name"`
	OwnerName    *string   `db:"owner_name"`
	CreatedAt    time.Time `db:"created_at"`
}

type CategoryTotal struct {
	Category string `json:"category"`
	Total    Money  `json:"total"`
}

type DailyTotal struct {
	Date  string `json:"date"`
	Total Money  `json:"total"`
}

type RecentExpense struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Amount      Money   `json:"amount"`
	Description string  `json:"description"`
	Category    *string `json:"category"`
	Owner       *string `json:"owner"`
}

// DashboardData sums amounts across currencies without conversion.
type DashboardData struct {
	CurrentMonthTotal  Money           `json:"currentMonthTotal"`
	PreviousMonthTotal Money           `json:"previousMonthTotal"`
	CategoryTotals     []CategoryTotal `json:"categoryTotals"`
	DailyTotals        []DailyTotal    `json:"dailyTotals"`
	RecentExpenses     []RecentExpense `json:"recentExpenses"`
}

// BuildDashboard aggregates the three dashboard reads for the month containing now.
func BuildDashboard(now time.Time, current []MonthExpenseRow, previous []Money, recent []RecentExpenseRow, uncategorizedLabel string) DashboardData {
	if uncategorizedLabel == "" {
		uncategorizedLabel = DefaultUncategorizedLabel
	}

	data := DashboardData{
		CategoryTotals: CategoryTotals(current, uncategorizedLabel),
		DailyTotals:    DailyTotals(now, current),
		RecentExpenses: make([]RecentExpense, 0, len(recent)),
	}
	for _, row := range current {
		data.CurrentMonthTotal = data.CurrentMonthTotal.Add(row.Amount)
	}
	for _, amount := range previous {
		data.PreviousMonthTotal = data.PreviousMonthTotal.Add(amount)
	}
	for i, row := range recent {
		if i == DashboardRecentLimit {
			break
		}
		data.RecentExpenses = append(data.RecentExpenses, RecentExpense{
			ID:          row.ID,
			Date:        row.Date.String(),
			Amount:      row.Amount,
			Description: row.Description,
			Category:    row.CategoryName,
			Owner:       row.OwnerName,
		})
	}
	return data
}

// CategoryTotals groups rows by category name, sorted by total descending.
// Ties keep the order in which the groups first appeared.
func CategoryTotals(rows []MonthExpenseRow, uncategorizedLabel string) []CategoryTotal {
	index := make(map[string]int)
	totals := make([]CategoryTotal, 0)
	for _, row := range rows {
		name := uncategorizedLabel
		if row.CategoryName != nil {
			name = *row.CategoryName
		}
		i, ok := index[name]
		if !ok {
			i = len(totals)
			index[name] = i
			totals = append(totals, CategoryTotal{Category: name})
		}
		totals[i].Total = totals[i].Total.Add(row.Amount)
	}
	sort.SliceStable(totals, func(a, b int) bool {
		return totals[a].Total.Cents > totals[b].Total.Cents
	})
	return totals
}

// DailyTotals emits one entry per day of now's month, zero-filling days
// without expenses. Rows outside the month are ignored.
func DailyTotals(now time.Time, rows []MonthExpenseRow) []DailyTotal {
	first, last := MonthRange(now)
	byDay := make(map[int]int64, last.Day())
	for _, row := range rows {
		if row.Date.Year() != first.Year() || row.Date.Month() != first.Month() {
			continue
		}
		byDay[row.Date.Day()] += row.Amount.Cents
	}

	out := make([]DailyTotal, 0, last.Day())
	for d := 1; d <= last.Day(); d++ {
		out = append(out, DailyTotal{
			Date:  NewDate(first.Year(), int(first.Month()), d).String(),
			Total: Money{Cents: byDay[d]},
		})
	}
	return out
}
