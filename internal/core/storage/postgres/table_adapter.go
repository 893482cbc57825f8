package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storepulse/storepulse/internal/core/storage"
)

const (
	countColumn     = "COUNT(*) OVER() AS total_count"
	nullCountColumn = "NULL AS total_count"

	// queryProductStats joins per-product action counts with per-product
	// purchased-unit sums. FULL OUTER JOIN keeps products that were only
	// viewed and products that were only bought.
	queryProductStats = `
		WITH action_data AS (
			SELECT
				a.product_id,
				a.action_id,
				COUNT(*) AS count
			FROM analytics a
			WHERE a.store_id = $1
			  AND a.timestamp BETWEEN $2 AND $3
			GROUP BY a.product_id, a.action_id
		),
		purchase_data AS (
			SELECT
				pp.product_id,
				SUM(pp.count) AS purchase_count
			FROM purchase_products pp
			JOIN purchases p ON pp.purchase_id = p.id
			WHERE p.store_id = $1
			  AND p.timestamp BETWEEN $2 AND $3
			GROUP BY pp.product_id
		)
		SELECT
			COALESCE(ad.product_id, pd.product_id) AS product_id,
			COALESCE(SUM(CASE WHEN ad.action_id = 1 THEN ad.count ELSE 0 END), 0) AS views,
			COALESCE(SUM(CASE WHEN ad.action_id = 2 THEN ad.count ELSE 0 END), 0) AS atc,
			COALESCE(pd.purchase_count, 0) AS purchase,
			%s
		FROM action_data ad
		FULL OUTER JOIN purchase_data pd ON ad.product_id = pd.product_id
		GROUP BY COALESCE(ad.product_id, pd.product_id), pd.purchase_count
		ORDER BY %s %s
		LIMIT $4 OFFSET $5
	`

	// queryOrderStats lists purchases with their summed line-item counts.
	// Secondary timestamp sort keeps pagination stable for tied keys.
	queryOrderStats = `
		WITH purchases_data AS (
			SELECT
				p.id AS purchase_id,
				p.timestamp,
				p.total,
				COALESCE(SUM(pp.count), 0) AS products_count,
				%s
			FROM purchases p
			LEFT JOIN purchase_products pp ON p.id = pp.purchase_id
			WHERE p.store_id = $1
			  AND p.timestamp BETWEEN $2 AND $3
			GROUP BY p.id, p.timestamp, p.total
		)
		SELECT purchase_id, timestamp, total, products_count, total_count
		FROM purchases_data
		ORDER BY %s %s, timestamp DESC
		LIMIT $4 OFFSET $5
	`

	// queryTermStats groups search terms with per-platform counts.
	// Empty terms are folded into the "(empty)" label.
	queryTermStats = `
		WITH terms_data AS (
			SELECT
				COALESCE(NULLIF(t.term, ''), '(empty)') AS term,
				COUNT(*) AS total,
				COUNT(*) FILTER (WHERE t.platform_id = 1) AS ios,
				COUNT(*) FILTER (WHERE t.platform_id = 2) AS android,
				%s
			FROM terms t
			WHERE t.store_id = $1
			  AND t.timestamp BETWEEN $2 AND $3
			GROUP BY COALESCE(NULLIF(t.term, ''), '(empty)')
		)
		SELECT term, total, ios, android, total_count
		FROM terms_data
		ORDER BY %s %s
		LIMIT $4 OFFSET $5
	`
)

// Sort keys reach this adapter pre-validated, but the maps are consulted
// again before interpolation so an unknown key can never enter the SQL text.
var (
	productSortColumns = map[string]string{
		"views":    "views",
		"atc":      "atc",
		"purchase": "purchase",
	}
	orderSortColumns = map[string]string{
		"total":     "total",
		"count":     "products_count",
		"timestamp": "timestamp",
	}
	termSortColumns = map[string]string{
		"total":   "total",
		"ios":     "ios",
		"android": "android",
	}
)

// TableAdapter serves the ranked tabular aggregates.
type TableAdapter struct {
	db *sql.DB
}

// NewTableAdapter creates a TableAdapter sharing the given pool.
func NewTableAdapter(db *sql.DB) *TableAdapter {
	return &TableAdapter{db: db}
}

// StoreExists reports whether the store (tenant) exists.
func (a *TableAdapter) StoreExists(ctx context.Context, storeID int64) (bool, error) {
	return storeExists(ctx, a.db, storeID)
}

// ProductStats returns one ranked page of per-product view/atc/purchase
// counts. totalCount is only meaningful when q.WithCount is set.
func (a *TableAdapter) ProductStats(ctx context.Context, q storage.TableQuery) ([]storage.ProductStatRow, int64, error) {
	query, err := buildTableQuery(queryProductStats, productSortColumns, q)
	if err != nil {
		return nil, 0, err
	}

	rows, err := a.db.QueryContext(ctx, query, q.StoreID, q.Start, q.End, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query product stats: %w", err)
	}
	defer rows.Close()

	var (
		results    []storage.ProductStatRow
		totalCount int64
	)
	for rows.Next() {
		var row storage.ProductStatRow
		var windowCount sql.NullInt64

		if err := rows.Scan(&row.ProductID, &row.Views, &row.ATC, &row.Purchases, &windowCount); err != nil {
			return nil, 0, fmt.Errorf("scan product stat row: %w", err)
		}
		if windowCount.Valid {
			totalCount = windowCount.Int64
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product stat rows: %w", err)
	}

	return results, totalCount, nil
}

// OrderStats returns one ranked page of purchases with their item counts.
func (a *TableAdapter) OrderStats(ctx context.Context, q storage.TableQuery) ([]storage.OrderStatRow, int64, error) {
	query, err := buildTableQuery(queryOrderStats, orderSortColumns, q)
	if err != nil {
		return nil, 0, err
	}

	rows, err := a.db.QueryContext(ctx, query, q.StoreID, q.Start, q.End, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query order stats: %w", err)
	}
	defer rows.Close()

	var (
		results    []storage.OrderStatRow
		totalCount int64
	)
	for rows.Next() {
		var row storage.OrderStatRow
		var totalStr string
		var windowCount sql.NullInt64

		if err := rows.Scan(&row.PurchaseID, &row.Timestamp, &totalStr, &row.ItemCount, &windowCount); err != nil {
			return nil, 0, fmt.Errorf("scan order stat row: %w", err)
		}

		total, err := decimal.NewFromString(totalStr)
		if err != nil {
			return nil, 0, fmt.Errorf("parse order total %q: %w", totalStr, err)
		}
		row.Total = total

		if windowCount.Valid {
			totalCount = windowCount.Int64
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order stat rows: %w", err)
	}

	return results, totalCount, nil
}

// TermStats returns one ranked page of search terms with platform splits.
func (a *TableAdapter) TermStats(ctx context.Context, q storage.TableQuery) ([]storage.TermStatRow, int64, error) {
	query, err := buildTableQuery(queryTermStats, termSortColumns, q)
	if err != nil {
		return nil, 0, err
	}

	rows, err := a.db.QueryContext(ctx, query, q.StoreID, q.Start, q.End, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query term stats: %w", err)
	}
	defer rows.Close()

	var (
		results    []storage.TermStatRow
		totalCount int64
	)
	for rows.Next() {
		var row storage.TermStatRow
		var windowCount sql.NullInt64

		if err := rows.Scan(&row.Term, &row.Total, &row.IOS, &row.Android, &windowCount); err != nil {
			return nil, 0, fmt.Errorf("scan term stat row: %w", err)
		}
		if windowCount.Valid {
			totalCount = windowCount.Int64
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate term stat rows: %w", err)
	}

	return results, totalCount, nil
}

// buildTableQuery interpolates the count column, sort column and direction
// into a ranked-table query template. Sort values are whitelisted here —
// caller input never reaches the SQL text directly.
func buildTableQuery(template string, sortColumns map[string]string, q storage.TableQuery) (string, error) {
	column, ok := sortColumns[q.SortKey]
	if !ok {
		return "", fmt.Errorf("unsupported sort key %q", q.SortKey)
	}

	var direction string
	switch strings.ToLower(q.SortDir) {
	case "asc":
		direction = "ASC"
	case "desc":
		direction = "DESC"
	default:
		return "", fmt.Errorf("unsupported sort direction %q", q.SortDir)
	}

	count := nullCountColumn
	if q.WithCount {
		count = countColumn
	}

	return fmt.Sprintf(template, count, column, direction), nil
}
