package staging

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category identifies the kind of staging record a key holds. The category
// is encoded in the key prefix, so a record's shape is known before its hash
// is read.
type Category string

const (
	CategoryAction   Category = "action"
	CategoryPurchase Category = "purchase"
	CategoryTerm     Category = "term"
)

// deadLetterPrefix marks quarantined snapshots of records that failed
// durable commit. A second failure on the same key overwrites the snapshot.
const deadLetterPrefix = "broken_:"

// KeyPrefix returns the staging key prefix for the category.
func (c Category) KeyPrefix() string {
	switch c {
	case CategoryAction:
		return "analytics:"
	case CategoryPurchase:
		return "purchase:"
	case CategoryTerm:
		return "terms:"
	default:
		return string(c) + ":"
	}
}

// ListPattern returns the key-listing glob covering the category's backlog.
func (c Category) ListPattern() string {
	return c.KeyPrefix() + "*"
}

// NewKey mints a unique staging key for the category. Keys are never reused
// while a record is pending.
func NewKey(c Category) string {
	return c.KeyPrefix() + uuid.NewString()
}

// DeadLetterKey returns the quarantine key for a staging key.
func DeadLetterKey(key string) string {
	return deadLetterPrefix + key
}

// ActionRecord is a buffered product-action event (view, add-to-cart).
type ActionRecord struct {
	StoreID    int64
	ActionID   int
	ProductID  int64
	PlatformID int
	Timestamp  int64 // milliseconds since epoch, producer-assigned
}

// Time converts the millisecond timestamp to a UTC instant.
func (r ActionRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp).UTC()
}

// Fields returns the staging hash representation of the record.
func (r ActionRecord) Fields() map[string]string {
	return map[string]string{
		"storeId":    strconv.FormatInt(r.StoreID, 10),
		"actionId":   strconv.Itoa(r.ActionID),
		"productId":  strconv.FormatInt(r.ProductID, 10),
		"platformId": strconv.Itoa(r.PlatformID),
		"timestamp":  strconv.FormatInt(r.Timestamp, 10),
	}
}

// PurchaseLine is one ordered line item of a purchase.
type PurchaseLine struct {
	ID        int64 `json:"id"`
	VariantID int64 `json:"variantId"`
	Count     int64 `json:"count"`
}

// PurchaseRecord is a buffered completed purchase. Products is stored in the
// hash as a JSON array under the "products" field.
type PurchaseRecord struct {
	StoreID    int64
	Products   []PurchaseLine
	PlatformID int
	Total      decimal.Decimal
	Timestamp  int64
}

func (r PurchaseRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp).UTC()
}

func (r PurchaseRecord) Fields() (map[string]string, error) {
	products, err := json.Marshal(r.Products)
	if err != nil {
		return nil, fmt.Errorf("marshal purchase products: %w", err)
	}
	return map[string]string{
		"storeId":    strconv.FormatInt(r.StoreID, 10),
		"products":   string(products),
		"platformId": strconv.Itoa(r.PlatformID),
		"total":      r.Total.String(),
		"timestamp":  strconv.FormatInt(r.Timestamp, 10),
	}, nil
}

// TermRecord is a buffered search query.
type TermRecord struct {
	StoreID    int64
	Query      string
	PlatformID int
	Timestamp  int64
}

func (r TermRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp).UTC()
}

func (r TermRecord) Fields() map[string]string {
	return map[string]string{
		"storeId":    strconv.FormatInt(r.StoreID, 10),
		"query":      r.Query,
		"platformId": strconv.Itoa(r.PlatformID),
		"timestamp":  strconv.FormatInt(r.Timestamp, 10),
	}
}

// ParseAction decodes an action record from its staging hash.
func ParseAction(fields map[string]string) (ActionRecord, error) {
	var rec ActionRecord
	var err error

	if rec.StoreID, err = fieldInt64(fields, "storeId"); err != nil {
		return ActionRecord{}, err
	}
	if rec.ActionID, err = fieldInt(fields, "actionId"); err != nil {
		return ActionRecord{}, err
	}
	if rec.ProductID, err = fieldInt64(fields, "productId"); err != nil {
		return ActionRecord{}, err
	}
	if rec.PlatformID, err = fieldInt(fields, "platformId"); err != nil {
		return ActionRecord{}, err
	}
	if rec.Timestamp, err = fieldInt64(fields, "timestamp"); err != nil {
		return ActionRecord{}, err
	}
	return rec, nil
}

// ParsePurchase decodes a purchase record from its staging hash.
func ParsePurchase(fields map[string]string) (PurchaseRecord, error) {
	var rec PurchaseRecord
	var err error

	if rec.StoreID, err = fieldInt64(fields, "storeId"); err != nil {
		return PurchaseRecord{}, err
	}
	if rec.PlatformID, err = fieldInt(fields, "platformId"); err != nil {
		return PurchaseRecord{}, err
	}
	if rec.Timestamp, err = fieldInt64(fields, "timestamp"); err != nil {
		return PurchaseRecord{}, err
	}

	raw, ok := fields["products"]
	if !ok {
		return PurchaseRecord{}, fmt.Errorf("staging field %q is missing", "products")
	}
	if err := json.Unmarshal([]byte(raw), &rec.Products); err != nil {
		return PurchaseRecord{}, fmt.Errorf("staging field %q: %w", "products", err)
	}
	if len(rec.Products) == 0 {
		return PurchaseRecord{}, fmt.Errorf("staging field %q must not be empty", "products")
	}

	totalRaw, ok := fields["total"]
	if !ok {
		return PurchaseRecord{}, fmt.Errorf("staging field %q is missing", "total")
	}
	if rec.Total, err = decimal.NewFromString(totalRaw); err != nil {
		return PurchaseRecord{}, fmt.Errorf("staging field %q: %w", "total", err)
	}

	return rec, nil
}

// ParseTerm decodes a term record from its staging hash.
func ParseTerm(fields map[string]string) (TermRecord, error) {
	var rec TermRecord
	var err error

	if rec.StoreID, err = fieldInt64(fields, "storeId"); err != nil {
		return TermRecord{}, err
	}
	if rec.PlatformID, err = fieldInt(fields, "platformId"); err != nil {
		return TermRecord{}, err
	}
	if rec.Timestamp, err = fieldInt64(fields, "timestamp"); err != nil {
		return TermRecord{}, err
	}

	query, ok := fields["query"]
	if !ok {
		return TermRecord{}, fmt.Errorf("staging field %q is missing", "query")
	}
	rec.Query = query

	return rec, nil
}

func fieldInt64(fields map[string]string, name string) (int64, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("staging field %q is missing", name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("staging field %q: %w", name, err)
	}
	return v, nil
}

func fieldInt(fields map[string]string, name string) (int, error) {
	v, err := fieldInt64(fields, name)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}
