package datastore

import (
	"sort"
	"time"

	"bizbook/models"
)

// lowStockThreshold marks products that need restocking.
const lowStockThreshold = 10

// Aggregates are pure reads over the current cache, recomputed on access.
// They never trigger a fetch; an empty cache yields zero values.

func (s *Store) TotalProducts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products.items)
}

func (s *Store) LowStockProducts() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	for _, p := range s.products.items {
		if p.Stock < lowStockThreshold {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) TotalInventoryValue() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum float64
	for _, p := range s.products.items {
		sum += p.ValuePrice * float64(p.Stock)
	}
	return sum
}

func (s *Store) CategoryNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.categories.items))
	for _, c := range s.categories.items {
		names = append(names, c.Name)
	}
	return names
}

func (s *Store) TotalRevenue() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum float64
	for _, r := range s.revenues.items {
		sum += r.Amount
	}
	return sum
}

func (s *Store) TotalExpenses() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum float64
	for _, e := range s.expenses.items {
		sum += e.Amount
	}
	return sum
}

// MonthlyRevenue sums entries dated in the current calendar month and year,
// as reported by the injected clock.
func (s *Store) MonthlyRevenue() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	var sum float64
	for _, r := range s.revenues.items {
		if sameMonth(r.Date, now) {
			sum += r.Amount
		}
	}
	return sum
}

func (s *Store) MonthlyExpenses() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	var sum float64
	for _, e := range s.expenses.items {
		if sameMonth(e.Date, now) {
			sum += e.Amount
		}
	}
	return sum
}

func (s *Store) NetProfit() float64 {
	return s.TotalRevenue() - s.TotalExpenses()
}

func (s *Store) MonthlyNetProfit() float64 {
	return s.MonthlyRevenue() - s.MonthlyExpenses()
}

func sameMonth(a, b time.Time) bool {
	return a.Month() == b.Month() && a.Year() == b.Year()
}

// ActivityType tags a recent-activity row.
type ActivityType string

const (
	ActivityRevenue ActivityType = "revenue"
	ActivityExpense ActivityType = "expense"
)

// Activity is one row of the merged revenue/expense feed. Expense amounts
// are negated.
type Activity struct {
	Type        ActivityType `json:"type"`
	ID          uint         `json:"id"`
	Description string       `json:"description"`
	Amount      float64      `json:"amount"`
	Date        time.Time    `json:"date"`
	Category    string       `json:"category"`
}

// recentActivityLimit caps the merged feed.
const recentActivityLimit = 10

// RecentActivity merges revenues and expenses, newest first, capped at ten
// rows. Equal dates keep their relative cache order.
func (s *Store) RecentActivity() []Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := make([]Activity, 0, len(s.revenues.items)+len(s.expenses.items))
	for _, r := range s.revenues.items {
		merged = append(merged, Activity{
			Type:        ActivityRevenue,
			ID:          r.ID,
			Description: r.Description,
			Amount:      r.Amount,
			Date:        r.Date,
			Category:    r.Category,
		})
	}
	for _, e := range s.expenses.items {
		merged = append(merged, Activity{
			Type:        ActivityExpense,
			ID:          e.ID,
			Description: e.Description,
			Amount:      -e.Amount,
			Date:        e.Date,
			Category:    e.Category,
		})
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Date.After(merged[j].Date) })
	if len(merged) > recentActivityLimit {
		merged = merged[:recentActivityLimit]
	}
	return merged
}
