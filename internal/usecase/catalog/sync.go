package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	log "github.com/carousell/ct-go/pkg/logger/log_context"

	"github.com/nguyentranbao-ct/shop-assistant/internal/config"
	"github.com/nguyentranbao-ct/shop-assistant/internal/models"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/searchidx"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/storefront"
	"github.com/nguyentranbao-ct/shop-assistant/pkg/util"
)

// Engine pulls the full upstream catalog and keeps the search index in step
// with it. Writes are whole-document upserts keyed by the derived document
// id, so re-running a sync converges instead of duplicating.
type Engine struct {
	conf   *config.Config
	client storefront.Client
	index  searchidx.Index
}

func NewEngine(conf *config.Config, client storefront.Client, index searchidx.Index) *Engine {
	return &Engine{
		conf:   conf,
		client: client,
		index:  index,
	}
}

// FetchAll walks the cursor-paginated products query until the upstream
// reports no further pages. Page order is preserved; a malformed page aborts
// the whole attempt with no partial result.
func (e *Engine) FetchAll(ctx context.Context) ([]models.CatalogDocument, error) {
	var docs []models.CatalogDocument
	after := ""
	for {
		page, err := e.client.ListProducts(ctx, e.conf.Storefront.PageSize, after)
		if err != nil {
			return nil, fmt.Errorf("fetch products page: %w", err)
		}
		for _, product := range page.Products {
			docs = append(docs, TranslateDocument(product))
		}
		if !page.HasNextPage || page.EndCursor == "" {
			break
		}
		after = page.EndCursor
	}
	return docs, nil
}

func (e *Engine) SyncOnce(ctx context.Context) error {
	docs, err := e.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}

	if err := e.index.UpsertDocuments(ctx, e.conf.Search.IndexName, docs); err != nil {
		return fmt.Errorf("upsert catalog documents: %w", err)
	}

	log.Infow(ctx, "catalog synced", "documents", len(docs))
	return nil
}

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// DocumentID flattens the upstream's hierarchical gid into an index-safe
// primary key. The mapping is deterministic, so the same product always
// lands on the same document.
func DocumentID(gid string) string {
	return unsafeIDChars.ReplaceAllString(gid, "_")
}

func TranslateDocument(product storefront.Product) models.CatalogDocument {
	amount, err := strconv.ParseFloat(product.MinPrice.Amount, 64)
	if err != nil {
		amount = 0
	}

	return models.CatalogDocument{
		ID:             DocumentID(product.GID),
		Title:          product.Title,
		Description:    product.Description,
		Handle:         product.Handle,
		MinPriceAmount: amount,
		Currency:       product.MinPrice.Currency,
		Images:         product.Images,
		Variants:       product.Variants,
		Options:        product.Options,
		VariantTitles: util.ConvertList(product.Variants, func(v models.ProductVariant) string {
			return v.Title
		}),
		CollectionTitles: util.ConvertList(product.Collections, func(c storefront.Collection) string {
			return c.Title
		}),
		CollectionHandle: util.ConvertList(product.Collections, func(c storefront.Collection) string {
			return c.Handle
		}),
	}
}
