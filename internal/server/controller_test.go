package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/shop-assistant/internal/config"
	"github.com/nguyentranbao-ct/shop-assistant/internal/models"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/kv"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/searchidx"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/storefront"
	pkgmdw "github.com/nguyentranbao-ct/shop-assistant/internal/server/middleware"
)

type memStore struct {
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}}
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", kv.ErrMiss
	}
	return value, nil
}

func (s *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.values[key] = value
	return nil
}

func (s *memStore) Ping(context.Context) error { return nil }

type stubClient struct {
	product    *storefront.Product
	productErr error
	listCalls  int
}

func (s *stubClient) ListProducts(context.Context, int, string) (*storefront.ProductPage, error) {
	s.listCalls++
	return &storefront.ProductPage{
		Products: []storefront.Product{{GID: "gid://shop/Product/1", Title: "Blue Mug", Handle: "blue-mug"}},
	}, nil
}

func (s *stubClient) ProductByHandle(context.Context, string) (*storefront.Product, error) {
	return s.product, s.productErr
}

func (s *stubClient) ListCollections(context.Context, int) ([]storefront.Collection, error) {
	return []storefront.Collection{{Title: "Kitchen", Handle: "kitchen"}}, nil
}

func (s *stubClient) CollectionProductsByHandle(context.Context, string, int) (*storefront.CollectionProducts, error) {
	return nil, models.ErrNotFound
}

type countIndex struct{ count int64 }

func (countIndex) UpsertDocuments(context.Context, string, []models.CatalogDocument) error {
	return nil
}

func (countIndex) GetDocuments(context.Context, string, searchidx.GetOptions) ([]models.CatalogDocument, error) {
	return nil, nil
}

func (i countIndex) CountDocuments(context.Context, string) (int64, error) {
	return i.count, nil
}

func newTestController(client storefront.Client, store kv.Store) Controller {
	conf := &config.Config{}
	conf.Search.IndexName = "products"
	return NewController(conf, store, client, countIndex{count: 42})
}

func newContext(e *echo.Echo, target string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestListProductsHandler(t *testing.T) {
	t.Parallel()
	e := echo.New()
	e.Validator = pkgmdw.NewValidator()

	t.Run("serves upstream result and caches it", func(t *testing.T) {
		client := &stubClient{}
		store := newMemStore()
		h := newTestController(client, store)

		c, rec := newContext(e, "/api/v1/products?limit=10")
		require.NoError(t, h.ListProducts(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Blue Mug")
		assert.Equal(t, 1, client.listCalls)

		c, rec = newContext(e, "/api/v1/products?limit=10")
		require.NoError(t, h.ListProducts(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, client.listCalls, "second identical request must hit the cache")
	})

	t.Run("different params use different cache entries", func(t *testing.T) {
		client := &stubClient{}
		store := newMemStore()
		h := newTestController(client, store)

		c, _ := newContext(e, "/api/v1/products?limit=10")
		require.NoError(t, h.ListProducts(c))
		c, _ = newContext(e, "/api/v1/products?limit=20")
		require.NoError(t, h.ListProducts(c))
		assert.Equal(t, 2, client.listCalls)
	})

	t.Run("limit out of range rejected", func(t *testing.T) {
		h := newTestController(&stubClient{}, newMemStore())
		c, _ := newContext(e, "/api/v1/products?limit=500")

		err := h.ListProducts(c)
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})
}

func TestGetProductHandler(t *testing.T) {
	t.Parallel()
	e := echo.New()
	e.Validator = pkgmdw.NewValidator()

	t.Run("found", func(t *testing.T) {
		client := &stubClient{product: &storefront.Product{Title: "Blue Mug", Handle: "blue-mug"}}
		h := newTestController(client, newMemStore())

		c, rec := newContext(e, "/api/v1/products/blue-mug")
		c.SetParamNames("handle")
		c.SetParamValues("blue-mug")

		require.NoError(t, h.GetProduct(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Blue Mug")
	})

	t.Run("unknown handle is 404", func(t *testing.T) {
		client := &stubClient{productErr: models.ErrNotFound}
		h := newTestController(client, newMemStore())

		c, _ := newContext(e, "/api/v1/products/nope")
		c.SetParamNames("handle")
		c.SetParamValues("nope")

		err := h.GetProduct(c)
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusNotFound, httpErr.Code)
	})

	t.Run("upstream failure is 500 and not cached", func(t *testing.T) {
		client := &stubClient{productErr: errors.New("boom")}
		store := newMemStore()
		h := newTestController(client, store)

		c, _ := newContext(e, "/api/v1/products/blue-mug")
		c.SetParamNames("handle")
		c.SetParamValues("blue-mug")

		err := h.GetProduct(c)
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusInternalServerError, httpErr.Code)
		assert.Empty(t, store.values)
	})
}

func TestListCollectionsHandler(t *testing.T) {
	t.Parallel()
	e := echo.New()
	e.Validator = pkgmdw.NewValidator()
	h := newTestController(&stubClient{}, newMemStore())

	c, rec := newContext(e, "/api/v1/collections")
	require.NoError(t, h.ListCollections(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kitchen")
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()
	e := echo.New()
	h := newTestController(&stubClient{}, newMemStore())

	c, rec := newContext(e, "/health")
	require.NoError(t, h.Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.Contains(t, rec.Body.String(), "42")
}