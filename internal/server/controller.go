package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/shop-assistant/internal/config"
	"github.com/nguyentranbao-ct/shop-assistant/internal/models"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/cache"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/kv"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/searchidx"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/storefront"
)

type Controller interface {
	ListProducts(c echo.Context) error
	GetProduct(c echo.Context) error
	ListCollections(c echo.Context) error
	GetCollectionProducts(c echo.Context) error
	Health(c echo.Context) error
}

type controller struct {
	conf   *config.Config
	store  kv.Store
	client storefront.Client
	index  searchidx.Index
}

func NewController(conf *config.Config, store kv.Store, client storefront.Client, index searchidx.Index) Controller {
	return &controller{
		conf:   conf,
		store:  store,
		client: client,
		index:  index,
	}
}

type listProductsRequest struct {
	Limit int    `query:"limit" validate:"omitempty,min=1,max=50"`
	After string `query:"after"`
}

func (h *controller) ListProducts(c echo.Context) error {
	var req listProductsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	params := map[string]any{"first": req.Limit}
	if req.After != "" {
		params["after"] = req.After
	}

	ctx := c.Request().Context()
	key := cache.BuildKey("products", params)
	page, err := cache.GetOrCompute(ctx, h.store, key, func(ctx context.Context) (*storefront.ProductPage, error) {
		return h.client.ListProducts(ctx, req.Limit, req.After)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, page)
}

func (h *controller) GetProduct(c echo.Context) error {
	handle := c.Param("handle")
	if handle == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing product handle")
	}

	ctx := c.Request().Context()
	key := cache.BuildKey("product", map[string]any{"handle": handle})
	product, err := cache.GetOrCompute(ctx, h.store, key, func(ctx context.Context) (*storefront.Product, error) {
		return h.client.ProductByHandle(ctx, handle)
	})
	if errors.Is(err, models.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, product)
}

func (h *controller) ListCollections(c echo.Context) error {
	ctx := c.Request().Context()
	key := cache.BuildKey("collections", nil)
	collections, err := cache.GetOrCompute(ctx, h.store, key, func(ctx context.Context) ([]storefront.Collection, error) {
		return h.client.ListCollections(ctx, 50)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, collections)
}

func (h *controller) GetCollectionProducts(c echo.Context) error {
	handle := c.Param("handle")
	if handle == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing collection handle")
	}

	ctx := c.Request().Context()
	key := cache.BuildKey("collection_products", map[string]any{"handle": handle})
	result, err := cache.GetOrCompute(ctx, h.store, key, func(ctx context.Context) (*storefront.CollectionProducts, error) {
		return h.client.CollectionProductsByHandle(ctx, handle, 50)
	})
	if errors.Is(err, models.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "collection not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, result)
}

func (h *controller) Health(c echo.Context) error {
	resp := map[string]any{
		"status":  "healthy",
		"service": "shop-assistant",
	}
	if count, err := h.index.CountDocuments(c.Request().Context(), h.conf.Search.IndexName); err == nil {
		resp["documents"] = count
	}
	return c.JSON(http.StatusOK, resp)
}
