package charts

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storepulse/storepulse/internal/core/catalog"
	"github.com/storepulse/storepulse/internal/core/storage"
)

// Reader is the durable-store read surface the aggregation engine needs.
type Reader interface {
	StoreExists(ctx context.Context, storeID int64) (bool, error)
	PurchaseTotals(ctx context.Context, storeID int64, start, end time.Time) ([]storage.PurchaseRow, error)
	ActionCounts(ctx context.Context, storeID int64, start, end time.Time) ([]storage.ActionCountRow, error)
}

// Service turns raw purchase and action rows into a contiguous,
// variable-granularity chart series.
type Service struct {
	reader  Reader
	catalog *catalog.Catalog
}

func NewService(reader Reader, cat *catalog.Catalog) *Service {
	if reader == nil {
		panic("charts: reader must not be nil")
	}
	if cat == nil {
		panic("charts: catalog must not be nil")
	}
	return &Service{reader: reader, catalog: cat}
}

// BuildChart produces the ordered, gap-free bucket series for a store over
// [start, end]. Read failures are returned as-is; no partial series is ever
// produced.
func (s *Service) BuildChart(ctx context.Context, storeID int64, start, end time.Time) ([]ChartBucket, error) {
	exists, err := s.reader.StoreExists(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("check store %d: %w", storeID, err)
	}
	if !exists {
		return nil, storage.ErrStoreNotFound
	}

	granularity := granularityHours(start, end)

	purchases, err := s.reader.PurchaseTotals(ctx, storeID, start, end)
	if err != nil {
		return nil, err
	}
	actions, err := s.reader.ActionCounts(ctx, storeID, start, end)
	if err != nil {
		return nil, err
	}

	purchaseAcc := s.accumulatePurchases(purchases, granularity)
	actionAcc := s.accumulateActions(actions, granularity)

	return s.materialize(start, end, granularity, purchaseAcc, actionAcc), nil
}

// granularityHours picks the bucket width from the inclusive day span.
func granularityHours(start, end time.Time) int {
	days := end.Sub(start).Hours() / 24
	switch {
	case days <= 1:
		return 2
	case days <= 2:
		return 4
	case days <= 3:
		return 6
	default:
		return 24
	}
}

// floorToInterval floors a UTC instant to the start of its bucket: minutes,
// seconds and sub-second time are zeroed and the hour drops to the nearest
// lower multiple of the granularity.
func floorToInterval(t time.Time, granularity int) time.Time {
	t = t.UTC()
	hour := (t.Hour() / granularity) * granularity
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, time.UTC)
}

// accumulatePurchases builds the sparse bucket→platform→sum accumulation.
// Rows with non-positive totals are skipped.
func (s *Service) accumulatePurchases(rows []storage.PurchaseRow, granularity int) map[time.Time]map[string]decimal.Decimal {
	acc := make(map[time.Time]map[string]decimal.Decimal)
	for _, row := range rows {
		if !row.Total.IsPositive() {
			continue
		}
		bucket := floorToInterval(row.Timestamp, granularity)
		platforms := acc[bucket]
		if platforms == nil {
			platforms = make(map[string]decimal.Decimal)
			acc[bucket] = platforms
		}
		platforms[row.Platform] = platforms[row.Platform].Add(row.Total)
		platforms[purchaseTotalKey] = platforms[purchaseTotalKey].Add(row.Total)
	}
	return acc
}

// accumulateActions builds the sparse bucket→action→platform→count
// accumulation. Zero counts are skipped; platform ids without a catalog name
// fall back to the numeric id so the data stays visible.
func (s *Service) accumulateActions(rows []storage.ActionCountRow, granularity int) map[time.Time]map[string]map[string]int64 {
	acc := make(map[time.Time]map[string]map[string]int64)
	for _, row := range rows {
		if row.Count <= 0 {
			continue
		}
		platform, ok := s.catalog.PlatformName(row.PlatformID)
		if !ok {
			platform = strconv.Itoa(row.PlatformID)
		}

		bucket := floorToInterval(row.Timestamp, granularity)
		byAction := acc[bucket]
		if byAction == nil {
			byAction = make(map[string]map[string]int64)
			acc[bucket] = byAction
		}
		byPlatform := byAction[row.ActionName]
		if byPlatform == nil {
			byPlatform = make(map[string]int64)
			byAction[row.ActionName] = byPlatform
		}
		byPlatform[platform] += row.Count
		byPlatform[actionTotalKey] += row.Count
	}
	return acc
}

// materialize walks the ordered bucket boundaries from floor(start) through
// floor(end) and emits one bucket per boundary, merging in whatever the
// sparse accumulations hold. The boundary list is generated up front; output
// order never depends on map iteration.
func (s *Service) materialize(
	start, end time.Time,
	granularity int,
	purchaseAcc map[time.Time]map[string]decimal.Decimal,
	actionAcc map[time.Time]map[string]map[string]int64,
) []ChartBucket {
	step := time.Duration(granularity) * time.Hour
	first := floorToInterval(start, granularity)
	last := floorToInterval(end, granularity)

	var buckets []ChartBucket
	for ts := first; !ts.After(last); ts = ts.Add(step) {
		purchases := purchaseAcc[ts]
		if purchases == nil {
			purchases = make(map[string]decimal.Decimal)
		}

		actions := actionAcc[ts]
		if actions == nil {
			actions = make(map[string]map[string]int64)
		}
		for _, name := range s.catalog.ExpectedActions() {
			if actions[name] == nil {
				actions[name] = make(map[string]int64)
			}
		}

		buckets = append(buckets, ChartBucket{
			Timestamp: ts,
			Purchases: purchases,
			Actions:   actions,
		})
	}
	return buckets
}
