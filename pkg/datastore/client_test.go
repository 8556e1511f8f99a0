package datastore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bizbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]models.Category{{ID: 1, Name: "tools"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetToken("tok123")
	cats, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestClientDecodesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "amount must be positive"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.CreateRevenue(context.Background(), EntryInput{Amount: -1})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "amount must be positive", apiErr.Message)
}

func TestClientTearsDownSessionOn401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
	}))
	defer srv.Close()

	fired := 0
	c := NewClient(srv.URL, WithUnauthorizedHook(func() { fired++ }))
	c.SetToken("expired")

	_, err := c.ListProducts(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Empty(t, c.Token(), "401 clears the stored token")
	assert.Equal(t, 1, fired)

	// further 401s without a token stay silent
	_, _ = c.ListExpenses(context.Background())
	assert.Equal(t, 1, fired)
}

func TestClientCreateProductMultipart(t *testing.T) {
	var gotName, gotSku, gotCategory string
	var hadPhoto bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotName = r.FormValue("name")
		gotSku = r.FormValue("sku")
		gotCategory = r.FormValue("categoryId")
		_, _, err := r.FormFile("photo")
		hadPhoto = err == nil
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 42})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	id, err := c.CreateProduct(context.Background(), ProductInput{
		Name: "widget", Sku: "W-1", CostPrice: 1, ValuePrice: 2, Stock: 3,
		PurchaseDate: "2024-05-01", CategoryID: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "widget", gotName)
	assert.Equal(t, "W-1", gotSku)
	assert.Equal(t, "9", gotCategory)
	assert.False(t, hadPhoto, "no photo part when Photo is nil")
}
