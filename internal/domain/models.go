package domain

import "errors"

// ErrNotFound is returned by repos and services when a lookup misses.
var ErrNotFound = errors.New("not found")

// Item lifecycle states. Only ACTIVE items are indexed and queryable.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusBanned   = "BANNED"
	StatusDraft    = "DRAFT"
)

type Shop struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	City      string `db:"city"`
	CreatedAt string `db:"created_at"`
}

type Category struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}

// CatalogItem is the canonical product record as the relational store holds it.
// RawTags is untrusted crawler-sourced data: a JSON array, a comma string, or
// anything else. It never reaches the index without going through CleanTags.
type CatalogItem struct {
	ID            string   `db:"id"`
	Name          string   `db:"name"`
	Slug          string   `db:"slug"`
	Price         float64  `db:"price"`
	OriginalPrice *float64 `db:"original_price"`
	Stock         int      `db:"stock"`
	SalesCount    int      `db:"sales_count"`
	Rating        float64  `db:"rating"`
	Status        string   `db:"status"`
	RawTags       string   `db:"raw_tags"`
	ImagesJSON    string   `db:"images_json"`
	CategoryID    string   `db:"category_id"`
	BrandID       string   `db:"brand_id"`
	ShopID        string   `db:"shop_id"`
	ShopCity      string   `db:"shop_city"`
	CreatedAt     string   `db:"created_at"`
}

// ItemSummary is the denormalized read shape. The index stores it as a JSON
// payload per entry so hits never need a second trip to the source store.
type ItemSummary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"original_price,omitempty"`
	Stock         int      `json:"stock"`
	SalesCount    int      `json:"sales_count"`
	Rating        float64  `json:"rating"`
	Location      string   `json:"location"`
	Images        []string `json:"images"`
	CreatedAt     string   `json:"created_at"`
}

type ProductOption struct {
	ID    string  `db:"id" json:"id"`
	Name  string  `db:"name" json:"name"`
	Value string  `db:"value" json:"value"`
	Price float64 `db:"price" json:"price"`
	Stock int     `db:"stock" json:"stock"`
}

type ProductDetail struct {
	ItemSummary
	Description string          `json:"description"`
	ShopID      string          `json:"shop_id"`
	ShopName    string          `json:"shop_name"`
	CategoryID  string          `json:"category_id"`
	Options     []ProductOption `json:"options"`
}

// Sort keys accepted by the read API.
const (
	SortDefault   = "default"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"
)

// Query is the shared filter/sort request both planner backends accept.
type Query struct {
	Page         int
	Limit        int
	Search       string
	Tag          string
	CategoryID   string
	CategorySlug string
	BrandID      string
	MinPrice     *float64
	MaxPrice     *float64
	Rating       *float64
	Sort         string
	Locations    []string
}

type Meta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	Limit    int   `json:"limit"`
	LastPage int64 `json:"last_page"`
}

type ProductPage struct {
	Data []ItemSummary `json:"data"`
	Meta Meta          `json:"meta"`
}

// PageMeta computes the meta block; last_page is ceil(total/limit).
func PageMeta(total int64, page, limit int) Meta {
	last := (total + int64(limit) - 1) / int64(limit)
	return Meta{Total: total, Page: page, Limit: limit, LastPage: last}
}
