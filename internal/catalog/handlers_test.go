package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/glowmart/backend-store/internal/catalog"
)

func newRouter(t *testing.T, store *fakeStore) chi.Router {
	t.Helper()
	h := catalog.Handler{Svc: newSvc(t, store)}
	r := chi.NewRouter()
	r.Get("/api/products", h.List)
	r.Get("/api/products/{id}", h.Get)
	r.Post("/api/admin/products", h.Create)
	r.Put("/api/admin/products/{id}", h.Update)
	r.Delete("/api/admin/products/{id}", h.Delete)
	return r
}

func do(r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestListProducts(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	_, err := store.Create(context.Background(), catalog.ProductInput{
		Name: "Glow Serum", Price: 19999, ImageURL: "https://cdn.example/serum.png", Category: "serums",
	})
	require.NoError(t, err)
	r := newRouter(t, store)

	rr := do(r, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "1", rr.Header().Get("X-Total-Count"))

	var body struct {
		Data       []catalog.Product `json:"data"`
		Pagination struct {
			Page       int   `json:"page"`
			PerPage    int   `json:"perPage"`
			TotalItems int64 `json:"totalItems"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "Glow Serum", body.Data[0].Name)
	require.Equal(t, 1, body.Pagination.Page)
	require.Equal(t, int64(1), body.Pagination.TotalItems)
}

func TestListProductsRejectsBadPagination(t *testing.T) {
	t.Parallel()

	rr := do(newRouter(t, newFakeStore()), http.MethodGet, "/api/products?page=-1", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "VALIDATION_ERROR")
}

func TestGetProductNotFound(t *testing.T) {
	t.Parallel()

	rr := do(newRouter(t, newFakeStore()), http.MethodGet, "/api/products/missing", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "NOT_FOUND")
}

func TestCreateProduct(t *testing.T) {
	t.Parallel()

	r := newRouter(t, newFakeStore())
	rr := do(r, http.MethodPost, "/api/admin/products",
		`{"name":"Glow Serum","price":19999,"imageUrl":"https://cdn.example/serum.png","benefits":["hydrating"]}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var body struct {
		Data catalog.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "Glow Serum", body.Data.Name)
	require.NotEmpty(t, body.Data.ID)
}

func TestCreateProductValidation(t *testing.T) {
	t.Parallel()

	r := newRouter(t, newFakeStore())

	rr := do(r, http.MethodPost, "/api/admin/products", `{"price":19999}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "VALIDATION_ERROR")

	rr = do(r, http.MethodPost, "/api/admin/products", `{"name":`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	created, err := store.Create(context.Background(), catalog.ProductInput{
		Name: "Glow Serum", Price: 19999, ImageURL: "https://cdn.example/serum.png",
	})
	require.NoError(t, err)
	r := newRouter(t, store)

	rr := do(r, http.MethodPut, "/api/admin/products/"+created.ID,
		`{"name":"Glow Serum XL","price":24999,"imageUrl":"https://cdn.example/serum-xl.png"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Glow Serum XL")

	rr = do(r, http.MethodDelete, "/api/admin/products/"+created.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(r, http.MethodDelete, "/api/admin/products/"+created.ID, "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}
