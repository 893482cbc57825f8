package charts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cross-platform rollup keys inside a bucket. Purchases carry their rollup
// under "total_count", actions under "total"; both names are part of the
// dashboard contract.
const (
	purchaseTotalKey = "total_count"
	actionTotalKey   = "total"
)

// ChartBucket is one time slice of the chart series for a store. Purchases
// maps platform name to the summed purchase value for the slice; Actions
// maps action name to per-platform counts. Both maps are present (possibly
// empty) in every bucket, and every expected action name appears even when
// the slice has no data for it.
type ChartBucket struct {
	Timestamp time.Time                   `json:"timestamp"`
	Purchases map[string]decimal.Decimal  `json:"purchases"`
	Actions   map[string]map[string]int64 `json:"actions"`
}
