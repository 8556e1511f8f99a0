package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"

	"bizbook/models"
)

// API is the transport the store reads and writes through. It is an
// interface so tests can substitute a fake without a server.
type API interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id uint) (models.Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (uint, error)
	DeleteProduct(ctx context.Context, id uint) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string) (models.Category, error)

	ListRevenues(ctx context.Context) ([]models.Revenue, error)
	CreateRevenue(ctx context.Context, in EntryInput) (uint, error)
	DeleteRevenue(ctx context.Context, id uint) error

	ListExpenses(ctx context.Context) ([]models.Expense, error)
	CreateExpense(ctx context.Context, in EntryInput) (uint, error)
	DeleteExpense(ctx context.Context, id uint) error
}

// ProductInput carries the multipart fields for product creation. Photo is
// optional; PhotoName names the file part when Photo is set.
type ProductInput struct {
	Name         string
	Sku          string
	CostPrice    float64
	ValuePrice   float64
	SoldPrice    *float64
	Stock        int
	Comment      string
	Description  string
	PurchaseDate string
	SoldDate     string
	CategoryID   uint
	PhotoName    string
	Photo        io.Reader
}

// EntryInput is the JSON body for revenue and expense creation. Customer and
// InvoiceNumber apply to revenues; Vendor and ReceiptNumber to expenses.
type EntryInput struct {
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	Category      string  `json:"category"`
	Date          string  `json:"date"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
	Customer      string  `json:"customer,omitempty"`
	InvoiceNumber string  `json:"invoiceNumber,omitempty"`
	Vendor        string  `json:"vendor,omitempty"`
	ReceiptNumber string  `json:"receiptNumber,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client is the HTTP implementation of API. Every request carries the bearer
// token; any 401 clears the stored token and fires the OnUnauthorized hook,
// mirroring a global session-teardown interceptor.
type Client struct {
	base           string
	httpClient     *http.Client
	onUnauthorized func()

	mu    sync.Mutex
	token string
}

// NewClient builds a client for the given base URL (no trailing slash).
func NewClient(base string, opts ...ClientOption) *Client {
	c := &Client{base: base, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ClientOption func(*Client)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

// WithUnauthorizedHook registers the global 401 handler.
func WithUnauthorizedHook(fn func()) ClientOption {
	return func(c *Client) { c.onUnauthorized = fn }
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// do performs a request and decodes a JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.teardownSession()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error == "" {
			errBody.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: errBody.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// teardownSession clears the stored token and fires the hook once per
// expired session. Repeat 401s without a token are silent.
func (c *Client) teardownSession() {
	c.mu.Lock()
	had := c.token != ""
	c.token = ""
	c.mu.Unlock()
	if had && c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	buf, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(buf), "application/json", out)
}

type createdResponse struct {
	ID uint `json:"id"`
}

func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := c.getJSON(ctx, "/api/products", &out)
	return out, err
}

func (c *Client) GetProduct(ctx context.Context, id uint) (models.Product, error) {
	var out models.Product
	err := c.getJSON(ctx, "/api/products/"+strconv.FormatUint(uint64(id), 10), &out)
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (uint, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	_ = mw.WriteField("name", in.Name)
	_ = mw.WriteField("sku", in.Sku)
	_ = mw.WriteField("costPrice", strconv.FormatFloat(in.CostPrice, 'f', 2, 64))
	_ = mw.WriteField("valuePrice", strconv.FormatFloat(in.ValuePrice, 'f', 2, 64))
	_ = mw.WriteField("stock", strconv.Itoa(in.Stock))
	_ = mw.WriteField("purchaseDate", in.PurchaseDate)
	_ = mw.WriteField("categoryId", strconv.FormatUint(uint64(in.CategoryID), 10))
	if in.SoldPrice != nil {
		_ = mw.WriteField("soldPrice", strconv.FormatFloat(*in.SoldPrice, 'f', 2, 64))
	}
	if in.SoldDate != "" {
		_ = mw.WriteField("soldDate", in.SoldDate)
	}
	if in.Comment != "" {
		_ = mw.WriteField("comment", in.Comment)
	}
	if in.Description != "" {
		_ = mw.WriteField("description", in.Description)
	}
	if in.Photo != nil {
		w, err := mw.CreateFormFile("photo", in.PhotoName)
		if err != nil {
			return 0, err
		}
		if _, err := io.Copy(w, in.Photo); err != nil {
			return 0, err
		}
	}
	if err := mw.Close(); err != nil {
		return 0, err
	}
	var out createdResponse
	if err := c.do(ctx, http.MethodPost, "/api/products", buf, mw.FormDataContentType(), &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, "/api/products/"+strconv.FormatUint(uint64(id), 10), nil, "", nil)
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := c.getJSON(ctx, "/api/categories", &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	var out models.Category
	err := c.postJSON(ctx, "/api/categories", map[string]string{"name": name}, &out)
	return out, err
}

func (c *Client) ListRevenues(ctx context.Context) ([]models.Revenue, error) {
	var out []models.Revenue
	err := c.getJSON(ctx, "/api/revenue", &out)
	return out, err
}

func (c *Client) CreateRevenue(ctx context.Context, in EntryInput) (uint, error) {
	var out createdResponse
	if err := c.postJSON(ctx, "/api/revenue", in, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) DeleteRevenue(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, "/api/revenue/"+strconv.FormatUint(uint64(id), 10), nil, "", nil)
}

func (c *Client) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	var out []models.Expense
	err := c.getJSON(ctx, "/api/expenses", &out)
	return out, err
}

func (c *Client) CreateExpense(ctx context.Context, in EntryInput) (uint, error) {
	var out createdResponse
	if err := c.postJSON(ctx, "/api/expenses", in, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) DeleteExpense(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, "/api/expenses/"+strconv.FormatUint(uint64(id), 10), nil, "", nil)
}
