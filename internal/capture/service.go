package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/storepulse/storepulse/internal/core/catalog"
	"github.com/storepulse/storepulse/internal/staging"
)

// Service buffers incoming storefront events in the staging store. Nothing
// here touches the durable store; the flush coordinators pick the hashes up
// on their next pass.
type Service struct {
	staging staging.Store
	catalog *catalog.Catalog
	now     func() time.Time
}

func NewService(stagingStore staging.Store, cat *catalog.Catalog) *Service {
	if stagingStore == nil {
		panic("capture: staging store must not be nil")
	}
	if cat == nil {
		panic("capture: catalog must not be nil")
	}
	return &Service{
		staging: stagingStore,
		catalog: cat,
		now:     time.Now,
	}
}

// CaptureAction buffers one product-action event. The timestamp is stamped
// server-side in milliseconds.
func (s *Service) CaptureAction(ctx context.Context, rec staging.ActionRecord) error {
	rec.Timestamp = s.now().UnixMilli()
	return s.write(ctx, staging.CategoryAction, rec.Fields())
}

// CapturePurchase buffers one completed purchase.
func (s *Service) CapturePurchase(ctx context.Context, rec staging.PurchaseRecord) error {
	rec.Timestamp = s.now().UnixMilli()
	fields, err := rec.Fields()
	if err != nil {
		return err
	}
	return s.write(ctx, staging.CategoryPurchase, fields)
}

// CaptureTerm buffers one raw search query. Normalization happens at flush
// time, not here.
func (s *Service) CaptureTerm(ctx context.Context, rec staging.TermRecord) error {
	rec.Timestamp = s.now().UnixMilli()
	return s.write(ctx, staging.CategoryTerm, rec.Fields())
}

func (s *Service) write(ctx context.Context, category staging.Category, fields map[string]string) error {
	key := staging.NewKey(category)
	if err := s.staging.WriteHash(ctx, key, fields); err != nil {
		return fmt.Errorf("stage %s record: %w", category, err)
	}
	return nil
}
