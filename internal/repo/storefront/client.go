package storefront

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nguyentranbao-ct/shop-assistant/internal/config"
	"github.com/nguyentranbao-ct/shop-assistant/internal/models"
)

// Client is the upstream storefront GraphQL API. Errors are surfaced
// immediately; the transport performs no retries of its own.
type Client interface {
	ListProducts(ctx context.Context, first int, after string) (*ProductPage, error)
	ProductByHandle(ctx context.Context, handle string) (*Product, error)
	ListCollections(ctx context.Context, first int) ([]Collection, error)
	CollectionProductsByHandle(ctx context.Context, handle string, first int) (*CollectionProducts, error)
}

// Product is the decoded upstream product, free of the wire envelopes.
type Product struct {
	GID         string                  `json:"gid"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Handle      string                  `json:"handle"`
	MinPrice    models.Money            `json:"minPrice"`
	Images      []string                `json:"images"`
	Variants    []models.ProductVariant `json:"variants"`
	Options     []models.ProductOption  `json:"options"`
	Collections []Collection            `json:"collections"`
}

type Collection struct {
	Title  string `json:"title"`
	Handle string `json:"handle"`
}

type CollectionProducts struct {
	Collection Collection `json:"collection"`
	Products   []Product  `json:"products"`
}

// ProductPage is one page of the cursor-paginated catalog.
type ProductPage struct {
	Products    []Product `json:"products"`
	HasNextPage bool      `json:"hasNextPage"`
	EndCursor   string    `json:"endCursor"`
}

type client struct {
	http     *resty.Client
	endpoint string
	token    string
}

func NewClient(conf *config.Config) Client {
	return &client{
		http:     resty.New().SetTimeout(30 * time.Second),
		endpoint: fmt.Sprintf("%s/api/%s/graphql.json", conf.Storefront.ShopURL, conf.Storefront.APIVersion),
		token:    conf.Storefront.AccessToken,
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

func (c *client) query(ctx context.Context, query string, variables map[string]any, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Shopify-Storefront-Access-Token", c.token).
		SetBody(graphQLRequest{Query: query, Variables: variables}).
		SetResult(out).
		Post(c.endpoint)
	if err != nil {
		return fmt.Errorf("storefront request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("storefront API returned status %d", resp.StatusCode())
	}
	return nil
}

func firstGraphQLError(errs []graphQLError) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("storefront API error: %s", errs[0].Message)
}

const productFields = `
id
title
description
handle
priceRange { minVariantPrice { amount currencyCode } }
images(first: 10) { edges { node { url } } }
variants(first: 50) {
  edges {
    node {
      id
      title
      price { amount currencyCode }
      quantityAvailable
      selectedOptions { name value }
    }
  }
}
options { name values }
collections(first: 10) { edges { node { title handle } } }
`

func (c *client) ListProducts(ctx context.Context, first int, after string) (*ProductPage, error) {
	query := fmt.Sprintf(`
query listProducts($first: Int!, $after: String) {
  products(first: $first, after: $after) {
    pageInfo { hasNextPage endCursor }
    edges { node { %s } }
  }
}`, productFields)

	variables := map[string]any{"first": first}
	if after != "" {
		variables["after"] = after
	}

	var resp productsResponse
	if err := c.query(ctx, query, variables, &resp); err != nil {
		return nil, err
	}
	if err := firstGraphQLError(resp.Errors); err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.Products == nil {
		return nil, fmt.Errorf("%w: missing products in response", models.ErrFetchFailed)
	}

	return translateProductPage(resp.Data.Products), nil
}

func (c *client) ProductByHandle(ctx context.Context, handle string) (*Product, error) {
	query := fmt.Sprintf(`
query productByHandle($handle: String!) {
  productByHandle(handle: $handle) { %s }
}`, productFields)

	var resp productResponse
	if err := c.query(ctx, query, map[string]any{"handle": handle}, &resp); err != nil {
		return nil, err
	}
	if err := firstGraphQLError(resp.Errors); err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.ProductByHandle == nil {
		return nil, models.ErrNotFound
	}

	product := translateProduct(*resp.Data.ProductByHandle)
	return &product, nil
}

func (c *client) ListCollections(ctx context.Context, first int) ([]Collection, error) {
	query := `
query listCollections($first: Int!) {
  collections(first: $first) {
    edges { node { title handle } }
  }
}`

	var resp collectionsResponse
	if err := c.query(ctx, query, map[string]any{"first": first}, &resp); err != nil {
		return nil, err
	}
	if err := firstGraphQLError(resp.Errors); err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.Collections == nil {
		return nil, fmt.Errorf("%w: missing collections in response", models.ErrFetchFailed)
	}

	return translateCollections(resp.Data.Collections.Edges), nil
}

func (c *client) CollectionProductsByHandle(ctx context.Context, handle string, first int) (*CollectionProducts, error) {
	query := fmt.Sprintf(`
query collectionByHandle($handle: String!, $first: Int!) {
  collectionByHandle(handle: $handle) {
    title
    handle
    products(first: $first) {
      edges { node { %s } }
    }
  }
}`, productFields)

	var resp collectionProductsResponse
	if err := c.query(ctx, query, map[string]any{"handle": handle, "first": first}, &resp); err != nil {
		return nil, err
	}
	if err := firstGraphQLError(resp.Errors); err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.CollectionByHandle == nil {
		return nil, models.ErrNotFound
	}

	return translateCollectionProducts(resp.Data.CollectionByHandle), nil
}
