package storage

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrStoreNotFound is returned when a query references a store (tenant) that
// does not exist in the durable store.
var ErrStoreNotFound = errors.New("store not found")

// ActionInsert is the durable shape of a flushed action record.
type ActionInsert struct {
	StoreID    int64
	ActionID   int
	ProductID  int64
	PlatformID int
	Timestamp  time.Time
}

// PurchaseInsert is the durable shape of a flushed purchase: one parent row
// plus one line row per product, inserted in a single transaction.
type PurchaseInsert struct {
	ID         string // generated unique id (uuid)
	StoreID    int64
	Timestamp  time.Time
	Total      decimal.Decimal
	PlatformID int
	Lines      []PurchaseLineInsert
}

type PurchaseLineInsert struct {
	ProductID int64
	VariantID int64
	Count     int64
}

// TermInsert is the durable shape of a flushed, normalized search term.
type TermInsert struct {
	StoreID    int64
	Term       string
	PlatformID int
	Timestamp  time.Time
}

// PurchaseRow is a raw purchase read for chart bucketing.
type PurchaseRow struct {
	Timestamp time.Time
	Total     decimal.Decimal
	Platform  string
}

// ActionCountRow is an action read pre-aggregated by
// (timestamp, platform, action name).
type ActionCountRow struct {
	Timestamp  time.Time
	PlatformID int
	ActionName string
	Count      int64
}

// TableQuery scopes one ranked-table page.
type TableQuery struct {
	StoreID int64
	Start   time.Time
	End     time.Time
	SortKey string // validated against the table's enum before reaching storage
	SortDir string // "asc" | "desc"
	Limit   int
	Offset  int

	// WithCount requests the window total via COUNT(*) OVER(). Only the
	// first page pays for it; later pages infer hasMore from row counts.
	WithCount bool
}

// ProductStatRow is one row of the per-product ranked table.
type ProductStatRow struct {
	ProductID int64
	Views     int64
	ATC       int64
	Purchases int64
}

// OrderStatRow is one row of the per-order ranked table.
type OrderStatRow struct {
	PurchaseID string
	Timestamp  time.Time
	Total      decimal.Decimal
	ItemCount  int64
}

// TermStatRow is one row of the per-term ranked table.
type TermStatRow struct {
	Term    string
	IOS     int64
	Android int64
	Total   int64
}
