package tables

import (
	"time"

	"github.com/shopspring/decimal"
)

// PageRequest scopes one ranked-table page request after HTTP binding.
type PageRequest struct {
	StoreID int64
	Start   time.Time
	End     time.Time
	SortKey string
	SortDir string
	Page    int
	Limit   int
}

// ProductRow is one row of the per-product ranked table. Title comes from
// the search collaborator; products missing there show as "Unknown".
type ProductRow struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	Views     int64  `json:"views"`
	ATC       int64  `json:"atc"`
	Purchases int64  `json:"purchase"`
}

// OrderRow is one row of the per-order ranked table.
type OrderRow struct {
	PurchaseID string          `json:"purchase_id"`
	Timestamp  time.Time       `json:"timestamp"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int64           `json:"products_count"`
}

// TermRow is one row of the per-term ranked table. Empty queries are folded
// into the "(empty)" label.
type TermRow struct {
	Term    string `json:"term"`
	IOS     int64  `json:"ios"`
	Android int64  `json:"android"`
	Total   int64  `json:"total"`
}

// ProductPage is one page of the products table. TotalCount is only
// computed on the first page; later pages report zero.
type ProductPage struct {
	Data       []ProductRow `json:"data"`
	TotalCount int64        `json:"total_count"`
	HasMore    bool         `json:"has_more"`
}

// OrderPage is one page of the orders table.
type OrderPage struct {
	Data       []OrderRow `json:"data"`
	TotalCount int64      `json:"total_count"`
	HasMore    bool       `json:"has_more"`
}

// TermPage is one page of the terms table.
type TermPage struct {
	Data       []TermRow `json:"data"`
	TotalCount int64     `json:"total_count"`
	HasMore    bool      `json:"has_more"`
}
