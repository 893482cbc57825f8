package tables

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/storepulse/storepulse/internal/core/storage"
)

// ErrInvalidQuery marks page requests rejected before touching the store:
// unknown sort key, bad direction, non-positive page or limit, inverted
// range.
var ErrInvalidQuery = errors.New("invalid table query")

const (
	defaultLimit = 10
	maxLimit     = 100

	unknownTitle = "Unknown"
)

// Per-table sort key enums. Validation happens here with ErrInvalidQuery;
// the storage adapter re-checks before SQL interpolation.
var (
	productSortKeys = map[string]struct{}{"views": {}, "atc": {}, "purchase": {}}
	orderSortKeys   = map[string]struct{}{"total": {}, "count": {}, "timestamp": {}}
	termSortKeys    = map[string]struct{}{"total": {}, "ios": {}, "android": {}}
)

// Store is the durable-store read surface behind the ranked tables.
type Store interface {
	StoreExists(ctx context.Context, storeID int64) (bool, error)
	ProductStats(ctx context.Context, q storage.TableQuery) ([]storage.ProductStatRow, int64, error)
	OrderStats(ctx context.Context, q storage.TableQuery) ([]storage.OrderStatRow, int64, error)
	TermStats(ctx context.Context, q storage.TableQuery) ([]storage.TermStatRow, int64, error)
}

// TitleResolver maps product ids to display titles for one store. Ids with
// no title are simply absent from the result.
type TitleResolver interface {
	ProductTitles(ctx context.Context, storeID int64, productIDs []int64) (map[int64]string, error)
}

// Service serves the three ranked tabular aggregates: products, orders and
// search terms.
type Service struct {
	store  Store
	titles TitleResolver
}

func NewService(store Store, titles TitleResolver) *Service {
	if store == nil {
		panic("tables: store must not be nil")
	}
	if titles == nil {
		panic("tables: title resolver must not be nil")
	}
	return &Service{store: store, titles: titles}
}

// Products returns one ranked page of per-product view/atc/purchase counts
// with titles resolved from the search collaborator.
func (s *Service) Products(ctx context.Context, req PageRequest) (*ProductPage, error) {
	q, err := s.prepare(ctx, req, productSortKeys)
	if err != nil {
		return nil, err
	}

	rows, totalCount, err := s.store.ProductStats(ctx, q)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	titles := s.resolveTitles(ctx, req.StoreID, ids)

	data := make([]ProductRow, 0, len(rows))
	for _, row := range rows {
		title, ok := titles[row.ProductID]
		if !ok {
			title = unknownTitle
		}
		data = append(data, ProductRow{
			ProductID: row.ProductID,
			Title:     title,
			Views:     row.Views,
			ATC:       row.ATC,
			Purchases: row.Purchases,
		})
	}

	return &ProductPage{
		Data:       data,
		TotalCount: totalCount,
		HasMore:    hasMore(req, len(rows), totalCount),
	}, nil
}

// Orders returns one ranked page of purchases with their item counts.
func (s *Service) Orders(ctx context.Context, req PageRequest) (*OrderPage, error) {
	q, err := s.prepare(ctx, req, orderSortKeys)
	if err != nil {
		return nil, err
	}

	rows, totalCount, err := s.store.OrderStats(ctx, q)
	if err != nil {
		return nil, err
	}

	data := make([]OrderRow, 0, len(rows))
	for _, row := range rows {
		data = append(data, OrderRow{
			PurchaseID: row.PurchaseID,
			Timestamp:  row.Timestamp,
			Total:      row.Total,
			ItemCount:  row.ItemCount,
		})
	}

	return &OrderPage{
		Data:       data,
		TotalCount: totalCount,
		HasMore:    hasMore(req, len(rows), totalCount),
	}, nil
}

// Terms returns one ranked page of search terms with platform splits.
func (s *Service) Terms(ctx context.Context, req PageRequest) (*TermPage, error) {
	q, err := s.prepare(ctx, req, termSortKeys)
	if err != nil {
		return nil, err
	}

	rows, totalCount, err := s.store.TermStats(ctx, q)
	if err != nil {
		return nil, err
	}

	data := make([]TermRow, 0, len(rows))
	for _, row := range rows {
		data = append(data, TermRow{
			Term:    row.Term,
			IOS:     row.IOS,
			Android: row.Android,
			Total:   row.Total,
		})
	}

	return &TermPage{
		Data:       data,
		TotalCount: totalCount,
		HasMore:    hasMore(req, len(rows), totalCount),
	}, nil
}

// prepare validates the request, checks tenant existence and translates the
// page into a storage query. The window count is only requested on the
// first page.
func (s *Service) prepare(ctx context.Context, req PageRequest, sortKeys map[string]struct{}) (storage.TableQuery, error) {
	if _, ok := sortKeys[req.SortKey]; !ok {
		return storage.TableQuery{}, fmt.Errorf("%w: unsupported sort key %q", ErrInvalidQuery, req.SortKey)
	}
	if req.SortDir != "asc" && req.SortDir != "desc" {
		return storage.TableQuery{}, fmt.Errorf("%w: unsupported sort direction %q", ErrInvalidQuery, req.SortDir)
	}
	if req.Page < 1 {
		return storage.TableQuery{}, fmt.Errorf("%w: page must be >= 1", ErrInvalidQuery)
	}
	if req.Limit < 1 || req.Limit > maxLimit {
		return storage.TableQuery{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidQuery, maxLimit)
	}
	if req.End.Before(req.Start) {
		return storage.TableQuery{}, fmt.Errorf("%w: end must not precede start", ErrInvalidQuery)
	}

	exists, err := s.store.StoreExists(ctx, req.StoreID)
	if err != nil {
		return storage.TableQuery{}, fmt.Errorf("check store %d: %w", req.StoreID, err)
	}
	if !exists {
		return storage.TableQuery{}, storage.ErrStoreNotFound
	}

	return storage.TableQuery{
		StoreID:   req.StoreID,
		Start:     req.Start,
		End:       req.End,
		SortKey:   req.SortKey,
		SortDir:   req.SortDir,
		Limit:     req.Limit,
		Offset:    (req.Page - 1) * req.Limit,
		WithCount: req.Page == 1,
	}, nil
}

// resolveTitles fetches display titles for the page's product ids. Title
// lookup is enrichment only: a failing search collaborator degrades every
// title to "Unknown" instead of failing the table.
func (s *Service) resolveTitles(ctx context.Context, storeID int64, ids []int64) map[int64]string {
	if len(ids) == 0 {
		return nil
	}
	titles, err := s.titles.ProductTitles(ctx, storeID, ids)
	if err != nil {
		slog.Warn("[Tables] Title lookup failed, falling back to Unknown",
			"store_id", storeID,
			"products", len(ids),
			"error", err,
		)
		return nil
	}
	return titles
}

// hasMore reports whether another page exists. The first page can answer
// from the window count; later pages infer it from a full result set.
func hasMore(req PageRequest, rowCount int, totalCount int64) bool {
	if req.Page == 1 {
		return int64(req.Page*req.Limit) < totalCount
	}
	return rowCount == req.Limit
}
