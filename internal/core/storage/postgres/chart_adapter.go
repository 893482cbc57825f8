package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"time"

	"github.com/shopspring/decimal"
	"github.com/storepulse/storepulse/internal/core/storage"
)

const (
	// queryChartPurchases fetches raw purchase rows with resolved platform
	// names for chart bucketing.
	queryChartPurchases = `
		SELECT
			p.timestamp,
			p.total,
			pl.platform
		FROM purchases p
		JOIN platforms pl ON p.platform_id = pl.id
		WHERE p.store_id = $1
		  AND p.timestamp BETWEEN $2 AND $3
	`

	// queryChartActions fetches action rows pre-aggregated by
	// (timestamp, platform, action name).
	queryChartActions = `
		SELECT
			a.timestamp,
			a.platform_id,
			aa.name AS action_name,
			COUNT(a.action_id) AS action_count
		FROM analytics a
		JOIN analytics_actions aa ON a.action_id = aa.id
		WHERE a.store_id = $1
		  AND a.timestamp BETWEEN $2 AND $3
		GROUP BY a.timestamp, a.platform_id, aa.name
	`
)

// ChartAdapter serves the raw reads behind the temporal aggregation engine.
type ChartAdapter struct {
	db *sql.DB
}

// NewChartAdapter creates a ChartAdapter sharing the given pool.
func NewChartAdapter(db *sql.DB) *ChartAdapter {
	return &ChartAdapter{db: db}
}

// StoreExists reports whether the store (tenant) exists.
func (a *ChartAdapter) StoreExists(ctx context.Context, storeID int64) (bool, error) {
	return storeExists(ctx, a.db, storeID)
}

// PurchaseTotals returns all purchase rows for the store in [start, end].
func (a *ChartAdapter) PurchaseTotals(ctx context.Context, storeID int64, start, end time.Time) ([]storage.PurchaseRow, error) {
	rows, err := a.db.QueryContext(ctx, queryChartPurchases, storeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query chart purchases: %w", err)
	}
	defer rows.Close()

	var results []storage.PurchaseRow
	for rows.Next() {
		var row storage.PurchaseRow
		var totalStr string

		if err := rows.Scan(&row.Timestamp, &totalStr, &row.Platform); err != nil {
			return nil, fmt.Errorf("scan purchase row: %w", err)
		}

		total, err := decimal.NewFromString(totalStr)
		if err != nil {
			return nil, fmt.Errorf("parse purchase total %q: %w", totalStr, err)
		}
		row.Total = total

		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase rows: %w", err)
	}

	return results, nil
}

// ActionCounts returns action counts for the store in [start, end], grouped
// by (timestamp, platform, action name).
func (a *ChartAdapter) ActionCounts(ctx context.Context, storeID int64, start, end time.Time) ([]storage.ActionCountRow, error) {
	rows, err := a.db.QueryContext(ctx, queryChartActions, storeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query chart actions: %w", err)
	}
	defer rows.Close()

	var results []storage.ActionCountRow
	for rows.Next() {
		var row storage.ActionCountRow
		if err := rows.Scan(&row.Timestamp, &row.PlatformID, &row.ActionName, &row.Count); err != nil {
			return nil, fmt.Errorf("scan action row: %w", err)
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action rows: %w", err)
	}

	return results, nil
}
