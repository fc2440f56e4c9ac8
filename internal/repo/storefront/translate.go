package storefront

import (
	"github.com/nguyentranbao-ct/shop-assistant/internal/models"
	"github.com/nguyentranbao-ct/shop-assistant/pkg/util"
)

// Wire shapes. The upstream wraps every list in edge/node envelopes; they are
// decoded here and nowhere else.

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type moneyNode struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type imageNode struct {
	URL string `json:"url"`
}

type selectedOptionNode struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type variantNode struct {
	ID                string               `json:"id"`
	Title             string               `json:"title"`
	Price             moneyNode            `json:"price"`
	QuantityAvailable int                  `json:"quantityAvailable"`
	SelectedOptions   []selectedOptionNode `json:"selectedOptions"`
}

type optionNode struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type collectionNode struct {
	Title  string `json:"title"`
	Handle string `json:"handle"`
}

type productNode struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Handle      string `json:"handle"`
	PriceRange  struct {
		MinVariantPrice moneyNode `json:"minVariantPrice"`
	} `json:"priceRange"`
	Images      edges[imageNode]      `json:"images"`
	Variants    edges[variantNode]    `json:"variants"`
	Options     []optionNode          `json:"options"`
	Collections edges[collectionNode] `json:"collections"`
}

type edges[N any] struct {
	Edges []struct {
		Node N `json:"node"`
	} `json:"edges"`
}

func (e edges[N]) nodes() []N {
	out := make([]N, 0, len(e.Edges))
	for _, edge := range e.Edges {
		out = append(out, edge.Node)
	}
	return out
}

type productConnection struct {
	PageInfo pageInfo `json:"pageInfo"`
	Edges    []struct {
		Node productNode `json:"node"`
	} `json:"edges"`
}

type productsResponse struct {
	Data *struct {
		Products *productConnection `json:"products"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type productResponse struct {
	Data *struct {
		ProductByHandle *productNode `json:"productByHandle"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type collectionsResponse struct {
	Data *struct {
		Collections *struct {
			Edges []struct {
				Node collectionNode `json:"node"`
			} `json:"edges"`
		} `json:"collections"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type collectionProductsNode struct {
	Title    string `json:"title"`
	Handle   string `json:"handle"`
	Products struct {
		Edges []struct {
			Node productNode `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

type collectionProductsResponse struct {
	Data *struct {
		CollectionByHandle *collectionProductsNode `json:"collectionByHandle"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

func translateProductPage(conn *productConnection) *ProductPage {
	page := &ProductPage{
		Products:    make([]Product, 0, len(conn.Edges)),
		HasNextPage: conn.PageInfo.HasNextPage,
		EndCursor:   conn.PageInfo.EndCursor,
	}
	for _, edge := range conn.Edges {
		page.Products = append(page.Products, translateProduct(edge.Node))
	}
	return page
}

func translateProduct(node productNode) Product {
	return Product{
		GID:         node.ID,
		Title:       node.Title,
		Description: node.Description,
		Handle:      node.Handle,
		MinPrice:    translateMoney(node.PriceRange.MinVariantPrice),
		Images:      util.ConvertList(node.Images.nodes(), func(n imageNode) string { return n.URL }),
		Variants:    util.ConvertList(node.Variants.nodes(), translateVariant),
		Options:     util.ConvertList(node.Options, translateOption),
		Collections: util.ConvertList(node.Collections.nodes(), translateCollection),
	}
}

func translateVariant(node variantNode) models.ProductVariant {
	return models.ProductVariant{
		ID:       node.ID,
		Title:    node.Title,
		Price:    translateMoney(node.Price),
		Quantity: node.QuantityAvailable,
		Options: util.ConvertList(node.SelectedOptions, func(n selectedOptionNode) models.SelectedOption {
			return models.SelectedOption{Name: n.Name, Value: n.Value}
		}),
	}
}

func translateOption(node optionNode) models.ProductOption {
	return models.ProductOption{Name: node.Name, Values: node.Values}
}

func translateMoney(node moneyNode) models.Money {
	return models.Money{Amount: node.Amount, Currency: node.CurrencyCode}
}

func translateCollection(node collectionNode) Collection {
	return Collection{Title: node.Title, Handle: node.Handle}
}

func translateCollections(edges []struct {
	Node collectionNode `json:"node"`
}) []Collection {
	out := make([]Collection, 0, len(edges))
	for _, edge := range edges {
		out = append(out, translateCollection(edge.Node))
	}
	return out
}

func translateCollectionProducts(node *collectionProductsNode) *CollectionProducts {
	out := &CollectionProducts{
		Collection: Collection{Title: node.Title, Handle: node.Handle},
		Products:   make([]Product, 0, len(node.Products.Edges)),
	}
	for _, edge := range node.Products.Edges {
		out.Products = append(out.Products, translateProduct(edge.Node))
	}
	return out
}
