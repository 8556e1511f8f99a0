// Package datastore keeps an in-memory, TTL-invalidated copy of the four
// bookkeeping collections (products, categories, revenues, expenses) and
// derives read-only aggregates from it. Reads go cache-aside: a collection
// fetched within the staleness window is served from memory, everything else
// hits the API. Writes go through the API first and mutate the cache only on
// confirmed success.
package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"bizbook/models"

	"golang.org/x/sync/errgroup"
)

// staleAfter is the collection staleness window.
const staleAfter = 5 * time.Minute

// Clock abstracts wall-clock reads so staleness and month boundaries are
// testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// collection holds one cached list. Tickets order overlapping fetches: a
// response carrying a ticket older than the last applied one is discarded,
// so a slow fetch can never overwrite fresher data.
type collection[T any] struct {
	items         []T
	loading       bool
	lastFetched   time.Time
	nextTicket    uint64
	appliedTicket uint64
}

func (c *collection[T]) fresh(now time.Time) bool {
	return !c.lastFetched.IsZero() && now.Sub(c.lastFetched) <= staleAfter
}

// Store is an explicitly constructed cache over the API; it holds no
// package-level state.
type Store struct {
	api   API
	clock Clock
	log   *slog.Logger

	mu         sync.Mutex
	products   collection[models.Product]
	categories collection[models.Category]
	revenues   collection[models.Revenue]
	expenses   collection[models.Expense]
}

type Option func(*Store)

// WithClock injects a clock; defaults to the system clock.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger injects a structured logger; defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

func New(api API, opts ...Option) *Store {
	s := &Store{api: api, clock: systemClock{}, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadingState is a snapshot of the per-collection loading flags.
type LoadingState struct {
	Products   bool
	Categories bool
	Revenues   bool
	Expenses   bool
}

func (s *Store) Loading() LoadingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LoadingState{
		Products:   s.products.loading,
		Categories: s.categories.loading,
		Revenues:   s.revenues.loading,
		Expenses:   s.expenses.loading,
	}
}

// fetchCollection implements the shared cache-aside read. post, when set,
// normalizes the fetched slice before it is stored.
func fetchCollection[T any](ctx context.Context, s *Store, col *collection[T], name string, force bool,
	list func(context.Context) ([]T, error), post func([]T)) ([]T, error) {
	s.mu.Lock()
	if !force && col.fresh(s.clock.Now()) && len(col.items) > 0 {
		out := append([]T(nil), col.items...)
		s.mu.Unlock()
		return out, nil
	}
	col.loading = true
	col.nextTicket++
	ticket := col.nextTicket
	s.mu.Unlock()

	items, err := list(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	col.loading = false
	if err != nil {
		s.log.Error("fetch failed", "collection", name, "err", err)
		return nil, err
	}
	if ticket < col.appliedTicket {
		// stale response from an older request; keep the newer data
		return append([]T(nil), col.items...), nil
	}
	if post != nil {
		post(items)
	}
	col.items = items
	col.appliedTicket = ticket
	col.lastFetched = s.clock.Now()
	return append([]T(nil), col.items...), nil
}

func (s *Store) FetchProducts(ctx context.Context, force bool) ([]models.Product, error) {
	return fetchCollection(ctx, s, &s.products, "products", force, s.api.ListProducts, nil)
}

func (s *Store) FetchCategories(ctx context.Context, force bool) ([]models.Category, error) {
	return fetchCollection(ctx, s, &s.categories, "categories", force, s.api.ListCategories, nil)
}

func (s *Store) FetchRevenues(ctx context.Context, force bool) ([]models.Revenue, error) {
	return fetchCollection(ctx, s, &s.revenues, "revenues", force, s.api.ListRevenues, func(items []models.Revenue) {
		sort.SliceStable(items, func(i, j int) bool { return items[i].Date.After(items[j].Date) })
	})
}

func (s *Store) FetchExpenses(ctx context.Context, force bool) ([]models.Expense, error) {
	return fetchCollection(ctx, s, &s.expenses, "expenses", force, s.api.ListExpenses, func(items []models.Expense) {
		sort.SliceStable(items, func(i, j int) bool { return items[i].Date.After(items[j].Date) })
	})
}

// AddProduct submits the product then re-fetches the full created record so
// server-computed fields (photo path, category) land in the cache.
func (s *Store) AddProduct(ctx context.Context, in ProductInput) (models.Product, error) {
	id, err := s.api.CreateProduct(ctx, in)
	if err != nil {
		s.log.Error("add failed", "collection", "products", "err", err)
		return models.Product{}, err
	}
	full, err := s.api.GetProduct(ctx, id)
	if err != nil {
		s.log.Error("fetch created product failed", "id", id, "err", err)
		return models.Product{}, err
	}
	s.mu.Lock()
	s.products.items = append([]models.Product{full}, s.products.items...)
	s.mu.Unlock()
	return full, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.api.DeleteProduct(ctx, id); err != nil {
		s.log.Error("delete failed", "collection", "products", "id", id, "err", err)
		return err
	}
	s.mu.Lock()
	s.products.items = removeByID(s.products.items, func(p models.Product) uint { return p.ID }, id)
	s.mu.Unlock()
	return nil
}

func (s *Store) AddCategory(ctx context.Context, name string) (models.Category, error) {
	created, err := s.api.CreateCategory(ctx, name)
	if err != nil {
		s.log.Error("add failed", "collection", "categories", "err", err)
		return models.Category{}, err
	}
	s.mu.Lock()
	s.categories.items = append([]models.Category{created}, s.categories.items...)
	s.mu.Unlock()
	return created, nil
}

// AddRevenue submits the entry and front-inserts the confirmed record. The
// date must parse locally before any network call.
func (s *Store) AddRevenue(ctx context.Context, in EntryInput) (models.Revenue, error) {
	date, err := parseEntryDate(in.Date)
	if err != nil {
		return models.Revenue{}, err
	}
	id, err := s.api.CreateRevenue(ctx, in)
	if err != nil {
		s.log.Error("add failed", "collection", "revenues", "err", err)
		return models.Revenue{}, err
	}
	r := models.Revenue{
		ID:            id,
		CreatedAt:     s.clock.Now(),
		Description:   in.Description,
		Amount:        in.Amount,
		Category:      in.Category,
		Date:          date,
		PaymentMethod: in.PaymentMethod,
		Customer:      in.Customer,
		InvoiceNumber: in.InvoiceNumber,
		Notes:         in.Notes,
	}
	s.mu.Lock()
	s.revenues.items = append([]models.Revenue{r}, s.revenues.items...)
	s.mu.Unlock()
	return r, nil
}

func (s *Store) DeleteRevenue(ctx context.Context, id uint) error {
	if err := s.api.DeleteRevenue(ctx, id); err != nil {
		s.log.Error("delete failed", "collection", "revenues", "id", id, "err", err)
		return err
	}
	s.mu.Lock()
	s.revenues.items = removeByID(s.revenues.items, func(r models.Revenue) uint { return r.ID }, id)
	s.mu.Unlock()
	return nil
}

func (s *Store) AddExpense(ctx context.Context, in EntryInput) (models.Expense, error) {
	date, err := parseEntryDate(in.Date)
	if err != nil {
		return models.Expense{}, err
	}
	id, err := s.api.CreateExpense(ctx, in)
	if err != nil {
		s.log.Error("add failed", "collection", "expenses", "err", err)
		return models.Expense{}, err
	}
	e := models.Expense{
		ID:            id,
		CreatedAt:     s.clock.Now(),
		Description:   in.Description,
		Amount:        in.Amount,
		Category:      in.Category,
		Date:          date,
		PaymentMethod: in.PaymentMethod,
		Vendor:        in.Vendor,
		ReceiptNumber: in.ReceiptNumber,
		Notes:         in.Notes,
	}
	s.mu.Lock()
	s.expenses.items = append([]models.Expense{e}, s.expenses.items...)
	s.mu.Unlock()
	return e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id uint) error {
	if err := s.api.DeleteExpense(ctx, id); err != nil {
		s.log.Error("delete failed", "collection", "expenses", "id", id, "err", err)
		return err
	}
	s.mu.Lock()
	s.expenses.items = removeByID(s.expenses.items, func(e models.Expense) uint { return e.ID }, id)
	s.mu.Unlock()
	return nil
}

// InitializeAll fetches the four collections concurrently, honoring the
// staleness window. Fail-fast: the first error cancels the rest.
func (s *Store) InitializeAll(ctx context.Context) error {
	return s.fetchAll(ctx, false)
}

// RefreshAll forces a refetch of all four collections.
func (s *Store) RefreshAll(ctx context.Context) error {
	return s.fetchAll(ctx, true)
}

func (s *Store) fetchAll(ctx context.Context, force bool) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.FetchProducts(ctx, force)
		return err
	})
	g.Go(func() error {
		_, err := s.FetchCategories(ctx, force)
		return err
	})
	g.Go(func() error {
		_, err := s.FetchRevenues(ctx, force)
		return err
	})
	g.Go(func() error {
		_, err := s.FetchExpenses(ctx, force)
		return err
	})
	return g.Wait()
}

// ClearCache drops the fetch timestamps so the next reads go to the API.
// Cached items stay available for aggregate reads until then.
func (s *Store) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products.lastFetched = time.Time{}
	s.categories.lastFetched = time.Time{}
	s.revenues.lastFetched = time.Time{}
	s.expenses.lastFetched = time.Time{}
}

func removeByID[T any](items []T, id func(T) uint, target uint) []T {
	out := items[:0]
	for _, it := range items {
		if id(it) != target {
			out = append(out, it)
		}
	}
	return out
}

// parseEntryDate accepts RFC3339 or plain YYYY-MM-DD, the formats the API
// accepts.
func parseEntryDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date format %q", s)
}
