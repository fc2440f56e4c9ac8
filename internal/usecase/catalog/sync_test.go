package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/shop-assistant/internal/config"
	"github.com/nguyentranbao-ct/shop-assistant/internal/models"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/searchidx"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/storefront"
)

type fakePager struct {
	pages []storefront.ProductPage
	errAt int // 1-based page index to fail on, 0 disables
	calls int
}

func (f *fakePager) ListProducts(_ context.Context, _ int, _ string) (*storefront.ProductPage, error) {
	f.calls++
	if f.errAt > 0 && f.calls == f.errAt {
		return nil, models.ErrFetchFailed
	}
	page := f.pages[f.calls-1]
	return &page, nil
}

func (f *fakePager) ProductByHandle(context.Context, string) (*storefront.Product, error) {
	return nil, models.ErrNotFound
}

func (f *fakePager) ListCollections(context.Context, int) ([]storefront.Collection, error) {
	return nil, nil
}

func (f *fakePager) CollectionProductsByHandle(context.Context, string, int) (*storefront.CollectionProducts, error) {
	return nil, models.ErrNotFound
}

type fakeIndex struct {
	docs    map[string]models.CatalogDocument
	upserts int
	err     error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[string]models.CatalogDocument{}}
}

func (f *fakeIndex) UpsertDocuments(_ context.Context, _ string, docs []models.CatalogDocument) error {
	if f.err != nil {
		return f.err
	}
	f.upserts++
	for _, doc := range docs {
		f.docs[doc.ID] = doc
	}
	return nil
}

func (f *fakeIndex) GetDocuments(_ context.Context, _ string, _ searchidx.GetOptions) ([]models.CatalogDocument, error) {
	out := make([]models.CatalogDocument, 0, len(f.docs))
	for _, doc := range f.docs {
		out = append(out, doc)
	}
	return out, nil
}

func (f *fakeIndex) CountDocuments(_ context.Context, _ string) (int64, error) {
	return int64(len(f.docs)), nil
}

func testConfig() *config.Config {
	conf := &config.Config{}
	conf.Storefront.PageSize = 2
	conf.Search.IndexName = "products"
	return conf
}

func product(gid, title string) storefront.Product {
	return storefront.Product{
		GID:      gid,
		Title:    title,
		Handle:   title,
		MinPrice: models.Money{Amount: "12.50", Currency: "USD"},
	}
}

func TestFetchAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("walks all pages in order", func(t *testing.T) {
		client := &fakePager{pages: []storefront.ProductPage{
			{
				Products:    []storefront.Product{product("gid://shop/Product/1", "one"), product("gid://shop/Product/2", "two")},
				HasNextPage: true,
				EndCursor:   "c1",
			},
			{
				Products:    []storefront.Product{product("gid://shop/Product/3", "three")},
				HasNextPage: false,
			},
		}}
		engine := NewEngine(testConfig(), client, newFakeIndex())

		docs, err := engine.FetchAll(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, 2, client.calls)
		assert.Equal(t, "one", docs[0].Title)
		assert.Equal(t, "three", docs[2].Title)
	})

	t.Run("stops on empty cursor even when more pages claimed", func(t *testing.T) {
		client := &fakePager{pages: []storefront.ProductPage{
			{
				Products:    []storefront.Product{product("gid://shop/Product/1", "one")},
				HasNextPage: true,
				EndCursor:   "",
			},
		}}
		engine := NewEngine(testConfig(), client, newFakeIndex())

		docs, err := engine.FetchAll(ctx)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
		assert.Equal(t, 1, client.calls)
	})

	t.Run("page error aborts with no partial result", func(t *testing.T) {
		client := &fakePager{
			pages: []storefront.ProductPage{
				{
					Products:    []storefront.Product{product("gid://shop/Product/1", "one")},
					HasNextPage: true,
					EndCursor:   "c1",
				},
				{},
			},
			errAt: 2,
		}
		engine := NewEngine(testConfig(), client, newFakeIndex())

		docs, err := engine.FetchAll(ctx)
		require.ErrorIs(t, err, models.ErrFetchFailed)
		assert.Nil(t, docs)
	})
}

func TestSyncOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("repeated runs converge", func(t *testing.T) {
		index := newFakeIndex()
		client := &fakePager{pages: []storefront.ProductPage{
			{Products: []storefront.Product{
				product("gid://shop/Product/1", "one"),
				product("gid://shop/Product/2", "two"),
			}},
		}}
		engine := NewEngine(testConfig(), client, index)

		require.NoError(t, engine.SyncOnce(ctx))
		assert.Len(t, index.docs, 2)

		client.calls = 0
		require.NoError(t, engine.SyncOnce(ctx))
		assert.Len(t, index.docs, 2)
		assert.Equal(t, 2, index.upserts)
	})

	t.Run("fetch failure leaves index untouched", func(t *testing.T) {
		index := newFakeIndex()
		client := &fakePager{errAt: 1, pages: []storefront.ProductPage{{}}}
		engine := NewEngine(testConfig(), client, index)

		err := engine.SyncOnce(ctx)
		require.ErrorIs(t, err, models.ErrFetchFailed)
		assert.Empty(t, index.docs)
		assert.Zero(t, index.upserts)
	})

	t.Run("upsert failure propagates", func(t *testing.T) {
		index := newFakeIndex()
		index.err = errors.New("bulk write failed")
		client := &fakePager{pages: []storefront.ProductPage{
			{Products: []storefront.Product{product("gid://shop/Product/1", "one")}},
		}}
		engine := NewEngine(testConfig(), client, index)

		err := engine.SyncOnce(ctx)
		require.ErrorIs(t, err, index.err)
	})
}

func TestDocumentID(t *testing.T) {
	t.Parallel()
	t.Run("replaces unsafe characters", func(t *testing.T) {
		assert.Equal(t, "gid___shop_Product_42", DocumentID("gid://shop/Product/42"))
	})

	t.Run("keeps safe characters", func(t *testing.T) {
		assert.Equal(t, "Already_safe-123", DocumentID("Already_safe-123"))
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, DocumentID("gid://shop/Product/42"), DocumentID("gid://shop/Product/42"))
	})
}

func TestTranslateDocument(t *testing.T) {
	t.Parallel()
	t.Run("maps fields and derives summaries", func(t *testing.T) {
		src := storefront.Product{
			GID:         "gid://shop/Product/7",
			Title:       "Blue Mug",
			Description: "A mug.",
			Handle:      "blue-mug",
			MinPrice:    models.Money{Amount: "9.99", Currency: "USD"},
			Images:      []string{"https://img/1.png"},
			Variants: []models.ProductVariant{
				{ID: "v1", Title: "Small"},
				{ID: "v2", Title: "Large"},
			},
			Collections: []storefront.Collection{
				{Title: "Kitchen", Handle: "kitchen"},
			},
		}

		doc := TranslateDocument(src)
		assert.Equal(t, "gid___shop_Product_7", doc.ID)
		assert.Equal(t, "Blue Mug", doc.Title)
		assert.Equal(t, 9.99, doc.MinPriceAmount)
		assert.Equal(t, "USD", doc.Currency)
		assert.Equal(t, []string{"Small", "Large"}, doc.VariantTitles)
		assert.Equal(t, []string{"Kitchen"}, doc.CollectionTitles)
		assert.Equal(t, []string{"kitchen"}, doc.CollectionHandle)
	})

	t.Run("unparseable price falls back to zero", func(t *testing.T) {
		src := product("gid://shop/Product/8", "broken")
		src.MinPrice.Amount = "free"
		doc := TranslateDocument(src)
		assert.Zero(t, doc.MinPriceAmount)
	})
}

func TestUntilNextHour(t *testing.T) {
	t.Parallel()
	t.Run("mid hour", func(t *testing.T) {
		now := time.Date(2024, 3, 1, 10, 45, 30, 0, time.UTC)
		assert.Equal(t, 14*time.Minute+30*time.Second, untilNextHour(now))
	})

	t.Run("exactly on the hour waits a full hour", func(t *testing.T) {
		now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Hour, untilNextHour(now))
	})
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()
	index := newFakeIndex()
	client := &fakePager{pages: []storefront.ProductPage{{}}}
	s := NewScheduler(NewEngine(testConfig(), client, index))

	s.Start()
	s.Start() // second start is a no-op
	s.Stop()
	s.Stop() // stopping again must not panic
}
