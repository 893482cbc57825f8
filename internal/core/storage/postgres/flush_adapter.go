package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/storepulse/storepulse/internal/core/storage"
)

const (
	// queryInsertAction writes one durable action row.
	queryInsertAction = `
		INSERT INTO analytics
		(store_id, action_id, product_id, platform_id, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`

	// queryInsertPurchase writes the purchase parent row. Line items follow
	// in the same transaction.
	queryInsertPurchase = `
		INSERT INTO purchases
		(id, store_id, timestamp, total, platform_id)
		VALUES ($1, $2, $3, $4, $5)
	`

	queryInsertPurchaseLine = `
		INSERT INTO purchase_products
		(purchase_id, product_id, variant_id, count)
		VALUES ($1, $2, $3, $4)
	`

	queryInsertTerm = `
		INSERT INTO terms
		(store_id, term, platform_id, timestamp)
		VALUES ($1, $2, $3, $4)
	`
)

// FlushAdapter writes flushed staging records into the durable analytics
// tables. Each insert opens and commits its own transaction on the caller's
// connection: the flush pass holds exactly one checked-out connection and at
// most one open transaction at a time.
type FlushAdapter struct {
	db *sql.DB
}

// NewFlushAdapter creates a FlushAdapter sharing the given pool.
func NewFlushAdapter(db *sql.DB) *FlushAdapter {
	return &FlushAdapter{db: db}
}

// AcquireConn checks out a dedicated connection for one flush pass.
// The caller must Close it when the pass ends.
func (a *FlushAdapter) AcquireConn(ctx context.Context) (*sql.Conn, error) {
	conn, err := a.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire flush connection: %w", err)
	}
	return conn, nil
}

// InsertAction commits one action row transactionally.
func (a *FlushAdapter) InsertAction(ctx context.Context, conn *sql.Conn, row storage.ActionInsert) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert action: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, queryInsertAction,
		row.StoreID, row.ActionID, row.ProductID, row.PlatformID, row.Timestamp,
	); err != nil {
		return fmt.Errorf("insert action: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert action: commit: %w", err)
	}
	return nil
}

// InsertPurchase commits the parent purchase row plus all line rows in one
// transaction. A failure on any line rolls the whole purchase back.
func (a *FlushAdapter) InsertPurchase(ctx context.Context, conn *sql.Conn, row storage.PurchaseInsert) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert purchase: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, queryInsertPurchase,
		row.ID, row.StoreID, row.Timestamp, row.Total, row.PlatformID,
	); err != nil {
		return fmt.Errorf("insert purchase %s: %w", row.ID, err)
	}

	lineStmt, err := tx.PrepareContext(ctx, queryInsertPurchaseLine)
	if err != nil {
		return fmt.Errorf("insert purchase %s: prepare lines: %w", row.ID, err)
	}
	defer lineStmt.Close()

	for _, line := range row.Lines {
		if _, err := lineStmt.ExecContext(ctx,
			row.ID, line.ProductID, line.VariantID, line.Count,
		); err != nil {
			return fmt.Errorf("insert purchase %s line %d: %w", row.ID, line.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert purchase %s: commit: %w", row.ID, err)
	}
	return nil
}

// InsertTerm commits one normalized search-term row transactionally.
func (a *FlushAdapter) InsertTerm(ctx context.Context, conn *sql.Conn, row storage.TermInsert) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert term: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, queryInsertTerm,
		row.StoreID, row.Term, row.PlatformID, row.Timestamp,
	); err != nil {
		return fmt.Errorf("insert term: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert term: commit: %w", err)
	}
	return nil
}
