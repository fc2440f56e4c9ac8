package models

// CatalogDocument is the search-index record for one storefront product.
// ID is derived from the upstream gid and stays stable across syncs so that
// repeated upserts converge instead of duplicating.
type CatalogDocument struct {
	ID               string           `bson:"_id" json:"id"`
	Title            string           `bson:"title" json:"title"`
	Description      string           `bson:"description" json:"description"`
	Handle           string           `bson:"handle" json:"handle"`
	MinPriceAmount   float64          `bson:"min_price_amount" json:"minPriceAmount"`
	Currency         string           `bson:"currency" json:"currency"`
	Images           []string         `bson:"images" json:"images"`
	Variants         []ProductVariant `bson:"variants" json:"variants"`
	Options          []ProductOption  `bson:"options" json:"options"`
	VariantTitles    []string         `bson:"variant_titles" json:"variantTitles"`
	CollectionTitles []string         `bson:"collection_titles" json:"collectionTitles"`
	CollectionHandle []string         `bson:"collection_handles" json:"collectionHandles"`
}

type ProductVariant struct {
	ID       string           `bson:"id" json:"id"`
	Title    string           `bson:"title" json:"title"`
	Price    Money            `bson:"price" json:"price"`
	Quantity int              `bson:"quantity" json:"quantity"`
	Options  []SelectedOption `bson:"options" json:"options"`
}

type ProductOption struct {
	Name   string   `bson:"name" json:"name"`
	Values []string `bson:"values" json:"values"`
}

type SelectedOption struct {
	Name  string `bson:"name" json:"name"`
	Value string `bson:"value" json:"value"`
}

type Money struct {
	Amount   string `bson:"amount" json:"amount"`
	Currency string `bson:"currency" json:"currencyCode"`
}
