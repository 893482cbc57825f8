package flush

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/storepulse/storepulse/internal/core/storage"
	"github.com/storepulse/storepulse/internal/staging"
)

// DurableStore is the transactional write interface one flush pass needs
// from the relational store. AcquireConn checks out the single connection
// the whole pass runs on; each Insert opens and commits its own transaction
// on that connection.
type DurableStore interface {
	AcquireConn(ctx context.Context) (*sql.Conn, error)
	InsertAction(ctx context.Context, conn *sql.Conn, row storage.ActionInsert) error
	InsertPurchase(ctx context.Context, conn *sql.Conn, row storage.PurchaseInsert) error
	InsertTerm(ctx context.Context, conn *sql.Conn, row storage.TermInsert) error
}

// Coordinator drains one category's staging backlog into the durable store.
// Exactly one full pass runs per scheduler tick; keys are processed
// sequentially so at most one connection and one open transaction exist per
// category at any time.
//
// Cleanup on failure is category-specific and intentionally NOT unified:
//   - action/term: the staging key is deleted only on success. A failing
//     record is reprocessed on every pass, overwriting its dead-letter
//     snapshot, until it succeeds or is removed by hand.
//   - purchase: the staging key is deleted after the attempt regardless of
//     outcome. A failing purchase is quarantined exactly once.
type Coordinator struct {
	category staging.Category
	staging  staging.Store
	durable  DurableStore
	newID    func() string
}

// NewCoordinator creates a flush coordinator for one category.
func NewCoordinator(category staging.Category, stagingStore staging.Store, durable DurableStore) *Coordinator {
	return &Coordinator{
		category: category,
		staging:  stagingStore,
		durable:  durable,
		newID:    uuid.NewString,
	}
}

// Category returns the category this coordinator drains.
func (c *Coordinator) Category() staging.Category {
	return c.category
}

// Run executes one full flush pass over the category's backlog.
// Per-record failures are recovered locally (rollback + quarantine) and
// never abort the pass; only pass-level failures (staging or durable store
// unreachable) return an error.
func (c *Coordinator) Run(ctx context.Context) error {
	keys, err := c.staging.ListKeys(ctx, c.category.ListPattern())
	if err != nil {
		return fmt.Errorf("list staging keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	// Backlog confirmed — only now is a connection worth checking out.
	conn, err := c.durable.AcquireConn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	flushed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.flushKey(ctx, conn, key) {
			flushed++
		}
	}

	slog.Info("[Flush] Pass complete",
		"category", c.category,
		"backlog", len(keys),
		"flushed", flushed,
	)
	return nil
}

// flushKey moves a single staging record to the durable store.
// Returns true when the record committed.
func (c *Coordinator) flushKey(ctx context.Context, conn *sql.Conn, key string) bool {
	fields, err := c.staging.ReadHash(ctx, key)
	if err != nil {
		slog.Error("[Flush] Failed to read staging record", "category", c.category, "key", key, "error", err)
		return false
	}
	if len(fields) == 0 {
		// Key vanished between listing and read.
		return false
	}

	commitErr := c.commitRecord(ctx, conn, key, fields)
	if commitErr != nil {
		slog.Warn("[Flush] Record failed, quarantining",
			"category", c.category,
			"key", key,
			"error", commitErr,
		)
		c.quarantine(ctx, key, fields)
	}

	switch {
	case c.category == staging.CategoryPurchase:
		c.deleteKey(ctx, key)
	case commitErr == nil:
		c.deleteKey(ctx, key)
	default:
		// Key stays pending; the record is retried on the next pass.
	}

	return commitErr == nil
}

// commitRecord parses, transforms and durably inserts one record.
// Any parse or insert failure leaves no durable rows behind.
func (c *Coordinator) commitRecord(ctx context.Context, conn *sql.Conn, key string, fields map[string]string) error {
	switch c.category {
	case staging.CategoryAction:
		rec, err := staging.ParseAction(fields)
		if err != nil {
			return err
		}
		return c.durable.InsertAction(ctx, conn, storage.ActionInsert{
			StoreID:    rec.StoreID,
			ActionID:   rec.ActionID,
			ProductID:  rec.ProductID,
			PlatformID: rec.PlatformID,
			Timestamp:  rec.Time(),
		})

	case staging.CategoryPurchase:
		rec, err := staging.ParsePurchase(fields)
		if err != nil {
			return err
		}
		lines := make([]storage.PurchaseLineInsert, 0, len(rec.Products))
		for _, p := range rec.Products {
			lines = append(lines, storage.PurchaseLineInsert{
				ProductID: p.ID,
				VariantID: p.VariantID,
				Count:     p.Count,
			})
		}
		return c.durable.InsertPurchase(ctx, conn, storage.PurchaseInsert{
			ID:         c.newID(),
			StoreID:    rec.StoreID,
			Timestamp:  rec.Time(),
			Total:      rec.Total,
			PlatformID: rec.PlatformID,
			Lines:      lines,
		})

	case staging.CategoryTerm:
		rec, err := staging.ParseTerm(fields)
		if err != nil {
			return err
		}
		return c.durable.InsertTerm(ctx, conn, storage.TermInsert{
			StoreID:    rec.StoreID,
			Term:       NormalizeTerm(rec.Query),
			PlatformID: rec.PlatformID,
			Timestamp:  rec.Time(),
		})

	default:
		return fmt.Errorf("unknown staging category %q", c.category)
	}
}

// quarantine snapshots the original, untransformed hash under the
// dead-letter key. A repeat failure overwrites the prior snapshot.
func (c *Coordinator) quarantine(ctx context.Context, key string, fields map[string]string) {
	if err := c.staging.WriteHash(ctx, staging.DeadLetterKey(key), fields); err != nil {
		slog.Error("[Flush] Failed to write dead-letter snapshot",
			"category", c.category,
			"key", key,
			"error", err,
		)
	}
}

func (c *Coordinator) deleteKey(ctx context.Context, key string) {
	if err := c.staging.DeleteKey(ctx, key); err != nil {
		slog.Error("[Flush] Failed to delete staging key",
			"category", c.category,
			"key", key,
			"error", err,
		)
	}
}
