package datastore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"bizbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeAPI counts calls and serves configurable data. Function fields let
// individual tests override behavior per call.
type fakeAPI struct {
	mu            sync.Mutex
	products      []models.Product
	categories    []models.Category
	revenues      []models.Revenue
	expenses      []models.Expense
	listCalls     map[string]int
	nextID        uint
	listRevenuesF func(ctx context.Context) ([]models.Revenue, error)
	listExpensesF func(ctx context.Context) ([]models.Expense, error)
	failDeletes   bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{listCalls: map[string]int{}, nextID: 100}
}

func (f *fakeAPI) calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls[name]
}

func (f *fakeAPI) count(name string) {
	f.mu.Lock()
	f.listCalls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) ListProducts(ctx context.Context) ([]models.Product, error) {
	f.count("products")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Product(nil), f.products...), nil
}

func (f *fakeAPI) GetProduct(ctx context.Context, id uint) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, fmt.Errorf("not found")
}

func (f *fakeAPI) CreateProduct(ctx context.Context, in ProductInput) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p := models.Product{ID: f.nextID, Name: in.Name, Sku: in.Sku, ValuePrice: in.ValuePrice, Stock: in.Stock}
	f.products = append(f.products, p)
	return p.ID, nil
}

func (f *fakeAPI) DeleteProduct(ctx context.Context, id uint) error {
	if f.failDeletes {
		return fmt.Errorf("server error")
	}
	return nil
}

func (f *fakeAPI) ListCategories(ctx context.Context) ([]models.Category, error) {
	f.count("categories")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Category(nil), f.categories...), nil
}

func (f *fakeAPI) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return models.Category{ID: f.nextID, Name: name}, nil
}

func (f *fakeAPI) ListRevenues(ctx context.Context) ([]models.Revenue, error) {
	f.count("revenues")
	if f.listRevenuesF != nil {
		return f.listRevenuesF(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Revenue(nil), f.revenues...), nil
}

func (f *fakeAPI) CreateRevenue(ctx context.Context, in EntryInput) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return f.nextID, nil
}

func (f *fakeAPI) DeleteRevenue(ctx context.Context, id uint) error {
	if f.failDeletes {
		return fmt.Errorf("server error")
	}
	return nil
}

func (f *fakeAPI) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	f.count("expenses")
	if f.listExpensesF != nil {
		return f.listExpensesF(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Expense(nil), f.expenses...), nil
}

func (f *fakeAPI) CreateExpense(ctx context.Context, in EntryInput) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return f.nextID, nil
}

func (f *fakeAPI) DeleteExpense(ctx context.Context, id uint) error {
	if f.failDeletes {
		return fmt.Errorf("server error")
	}
	return nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestStore(api *fakeAPI, clock Clock) *Store {
	return New(api, WithClock(clock))
}

func TestFetchServesFromCacheWithinWindow(t *testing.T) {
	api := newFakeAPI()
	api.products = []models.Product{{ID: 1, Name: "widget"}}
	clock := newFakeClock(date(2024, time.May, 15))
	s := newTestStore(api, clock)

	_, err := s.FetchProducts(context.Background(), false)
	require.NoError(t, err)
	_, err = s.FetchProducts(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, api.calls("products"), "second fetch within window must not hit the API")

	clock.Advance(staleAfter + time.Second)
	_, err = s.FetchProducts(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, api.calls("products"), "fetch after window must hit the API")
}

func TestForceFetchAlwaysCallsAPI(t *testing.T) {
	api := newFakeAPI()
	api.products = []models.Product{{ID: 1}}
	clock := newFakeClock(date(2024, time.May, 15))
	s := newTestStore(api, clock)

	for i := 0; i < 3; i++ {
		_, err := s.FetchProducts(context.Background(), true)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, api.calls("products"))
}

func TestEmptyCacheRefetchesWithinWindow(t *testing.T) {
	api := newFakeAPI()
	clock := newFakeClock(date(2024, time.May, 15))
	s := newTestStore(api, clock)

	_, err := s.FetchRevenues(context.Background(), false)
	require.NoError(t, err)
	_, err = s.FetchRevenues(context.Background(), false)
	require.NoError(t, err)
	// empty collections are not treated as cached
	assert.Equal(t, 2, api.calls("revenues"))
}

func TestFetchSortsEntriesDescending(t *testing.T) {
	api := newFakeAPI()
	api.revenues = []models.Revenue{
		{ID: 1, Date: date(2024, time.March, 1)},
		{ID: 2, Date: date(2024, time.May, 1)},
		{ID: 3, Date: date(2024, time.April, 1)},
	}
	s := newTestStore(api, newFakeClock(date(2024, time.May, 15)))

	got, err := s.FetchRevenues(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, uint(2), got[0].ID)
	assert.Equal(t, uint(3), got[1].ID)
	assert.Equal(t, uint(1), got[2].ID)
}

func TestAddRevenueFrontInserts(t *testing.T) {
	api := newFakeAPI()
	api.revenues = []models.Revenue{{ID: 1, Amount: 50, Date: date(2024, time.April, 1)}}
	s := newTestStore(api, newFakeClock(date(2024, time.May, 15)))

	_, err := s.FetchRevenues(context.Background(), false)
	require.NoError(t, err)

	r, err := s.AddRevenue(context.Background(), EntryInput{
		Description: "consulting", Amount: 100, Category: "services", Date: "2024-05-01",
	})
	require.NoError(t, err)
	assert.NotZero(t, r.ID)

	got, err := s.FetchRevenues(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, r.ID, got[0].ID, "new entry is front-inserted")
	assert.Equal(t, 100.0, got[0].Amount)
}

func TestAddRevenueRejectsBadDateBeforeNetworkCall(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(api, newFakeClock(date(2024, time.May, 15)))

	_, err := s.AddRevenue(context.Background(), EntryInput{Description: "x", Amount: 1, Date: "yesterday"})
	assert.Error(t, err)
	assert.Zero(t, s.TotalRevenue())
}

func TestAddProductRefetchesFullRecord(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(api, newFakeClock(date(2024, time.May, 15)))

	p, err := s.AddProduct(context.Background(), ProductInput{Name: "widget", Sku: "W-1", ValuePrice: 5, Stock: 3})
	require.NoError(t, err)
	assert.Equal(t, "widget", p.Name)
	assert.Equal(t, 1, s.TotalProducts())
}

func TestDeleteRemovesByID(t *testing.T) {
	api := newFakeAPI()
	api.revenues = []models.Revenue{
		{ID: 1, Date: date(2024, time.May, 1)},
		{ID: 2, Date: date(2024, time.May, 2)},
	}
	s := newTestStore(api, newFakeClock(date(2024, time.May, 15)))
	_, err := s.FetchRevenues(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, s.DeleteRevenue(context.Background(), 1))
	got, err := s.FetchRevenues(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint(2), got[0].ID)
}

func TestDeleteFailureLeavesCacheUntouched(t *testing.T) {
	api := newFakeAPI()
	api.expenses = []models.Expense{{ID: 7, Amount: 10, Date: date(2024, time.May, 1)}}
	s := newTestStore(api, newFakeClock(date(2024, time.May, 15)))
	_, err := s.FetchExpenses(context.Background(), false)
	require.NoError(t, err)

	api.failDeletes = true
	err = s.DeleteExpense(context.Background(), 7)
	assert.Error(t, err)
	assert.Equal(t, 10.0, s.TotalExpenses())
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	api := newFakeAPI()
	clock := newFakeClock(date(2024, time.May, 15))
	s := newTestStore(api, clock)

	oldStarted := make(chan struct{})
	release := make(chan struct{})
	first := true
	var mu sync.Mutex
	api.listRevenuesF = func(ctx context.Context) ([]models.Revenue, error) {
		mu.Lock()
		wasFirst := first
		first = false
		mu.Unlock()
		if wasFirst {
			close(oldStarted)
			<-release
			return []models.Revenue{{ID: 1, Description: "stale"}}, nil
		}
		return []models.Revenue{{ID: 2, Description: "fresh"}}, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.FetchRevenues(context.Background(), true)
	}()
	<-oldStarted

	// a newer forced fetch completes while the old one is still in flight
	got, err := s.FetchRevenues(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Description)

	close(release)
	<-done

	got, err = s.FetchRevenues(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Description, "old response must not clobber newer data")
}

func TestInitializeAllFailsFast(t *testing.T) {
	api := newFakeAPI()
	api.listExpensesF = func(ctx context.Context) ([]models.Expense, error) {
		return nil, fmt.Errorf("boom")
	}
	s := newTestStore(api, newFakeClock(date(2024, time.May, 15)))

	err := s.InitializeAll(context.Background())
	assert.EqualError(t, err, "boom")
}

func TestClearCacheForcesNextFetch(t *testing.T) {
	api := newFakeAPI()
	api.products = []models.Product{{ID: 1}}
	clock := newFakeClock(date(2024, time.May, 15))
	s := newTestStore(api, clock)

	_, err := s.FetchProducts(context.Background(), false)
	require.NoError(t, err)
	s.ClearCache()
	_, err = s.FetchProducts(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, api.calls("products"))
}
