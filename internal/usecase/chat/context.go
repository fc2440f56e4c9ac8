package chat

import (
	"context"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/goccy/go-json"

	"github.com/nguyentranbao-ct/shop-assistant/internal/models"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/searchidx"
	"github.com/nguyentranbao-ct/shop-assistant/pkg/tmplx"
	"github.com/nguyentranbao-ct/shop-assistant/pkg/util"
)

const descriptionLimit = 200

// emptyCatalog keeps the assistant usable when the index is unreachable: the
// turn proceeds ungrounded instead of failing.
const emptyCatalog = "[]"

var catalogFields = []string{
	"title",
	"description",
	"handle",
	"min_price_amount",
	"currency",
	"collection_titles",
	"options",
	"variant_titles",
}

// catalogItem is the grounding projection of a catalog document: only what
// the model needs, with the description capped to keep the prompt bounded.
type catalogItem struct {
	Title         string                 `json:"title"`
	Description   string                 `json:"description,omitempty"`
	Handle        string                 `json:"handle"`
	Price         float64                `json:"price"`
	Currency      string                 `json:"currency"`
	Collections   []string               `json:"collections,omitempty"`
	Options       []models.ProductOption `json:"options,omitempty"`
	VariantTitles []string               `json:"variantTitles,omitempty"`
}

var systemPrompt = tmplx.MustParse("system_prompt", `You are a friendly and knowledgeable shopping assistant for our online store.

Language: reply in the language the customer writes in. If the language is unclear, reply in {{ .PrimaryLanguage }}.

Grounding: only talk about products present in the catalog below. Never invent products, prices, discounts or stock levels. If the catalog has nothing relevant, say so honestly.

When you recommend products, list each one on its own line with its name and price, followed by one short sentence on why it fits.

Catalog (JSON):
{{ .Catalog }}`)

type promptData struct {
	PrimaryLanguage string
	Catalog         string
}

// loadCatalog fetches and renders the catalog snapshot once per session; the
// serialized form is reused by every later turn on the same connection.
func (s *Session) loadCatalog(ctx context.Context) string {
	s.catalogOnce.Do(func() {
		s.catalog = s.fetchCatalog(ctx)
	})
	return s.catalog
}

func (s *Session) fetchCatalog(ctx context.Context) string {
	docs, err := s.index.GetDocuments(ctx, s.conf.Search.IndexName, searchidx.GetOptions{
		Limit:  int64(s.conf.Chat.ContextLimit),
		Fields: catalogFields,
	})
	if err != nil {
		log.Warnw(ctx, "catalog lookup failed, replying without grounding", "error", err)
		return emptyCatalog
	}

	items := util.ConvertList(docs, func(doc models.CatalogDocument) catalogItem {
		return catalogItem{
			Title:         doc.Title,
			Description:   truncate(doc.Description, descriptionLimit),
			Handle:        doc.Handle,
			Price:         doc.MinPriceAmount,
			Currency:      doc.Currency,
			Collections:   doc.CollectionTitles,
			Options:       doc.Options,
			VariantTitles: doc.VariantTitles,
		}
	})

	data, err := json.Marshal(items)
	if err != nil {
		log.Warnw(ctx, "catalog snapshot encode failed, replying without grounding", "error", err)
		return emptyCatalog
	}
	return string(data)
}

func (s *Session) renderSystemPrompt(catalog string) (string, error) {
	buf, err := systemPrompt.Render(promptData{
		PrimaryLanguage: s.conf.Chat.PrimaryLanguage,
		Catalog:         catalog,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
