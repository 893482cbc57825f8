package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storepulse/storepulse/internal/core/storage"
)

func newFlushMock(t *testing.T) (sqlmock.Sqlmock, *FlushAdapter) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, NewFlushAdapter(db)
}

func TestFlushAdapter_InsertAction(t *testing.T) {
	mock, adapter := newFlushMock(t)
	ctx := context.Background()

	row := storage.ActionInsert{
		StoreID:    7,
		ActionID:   1,
		ProductID:  42,
		PlatformID: 2,
		Timestamp:  time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC),
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(queryInsertAction)).
		WithArgs(row.StoreID, row.ActionID, row.ProductID, row.PlatformID, row.Timestamp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	conn, err := adapter.AcquireConn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, adapter.InsertAction(ctx, conn, row))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFlushAdapter_InsertPurchase_RollsBackOnLineFailure(t *testing.T) {
	mock, adapter := newFlushMock(t)
	ctx := context.Background()

	row := storage.PurchaseInsert{
		ID:         "p-1",
		StoreID:    7,
		Timestamp:  time.Date(2024, 3, 1, 14, 5, 0, 0, time.UTC),
		Total:      decimal.RequireFromString("49.99"),
		PlatformID: 1,
		Lines: []storage.PurchaseLineInsert{
			{ProductID: 10, VariantID: 100, Count: 2},
			{ProductID: 11, VariantID: 110, Count: 1},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(queryInsertPurchase)).
		WithArgs(row.ID, row.StoreID, row.Timestamp, "49.99", row.PlatformID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	lines := mock.ExpectPrepare(regexp.QuoteMeta(queryInsertPurchaseLine))
	lines.ExpectExec().
		WithArgs(row.ID, int64(10), int64(100), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	lines.ExpectExec().
		WithArgs(row.ID, int64(11), int64(110), int64(1)).
		WillReturnError(errors.New("foreign key violation"))
	mock.ExpectRollback()

	conn, err := adapter.AcquireConn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	err = adapter.InsertPurchase(ctx, conn, row)
	require.Error(t, err)
	require.Contains(t, err.Error(), "p-1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFlushAdapter_InsertTerm(t *testing.T) {
	mock, adapter := newFlushMock(t)
	ctx := context.Background()

	row := storage.TermInsert{
		StoreID:    7,
		Term:       "blue sneakers",
		PlatformID: 2,
		Timestamp:  time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC),
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(queryInsertTerm)).
		WithArgs(row.StoreID, row.Term, row.PlatformID, row.Timestamp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	conn, err := adapter.AcquireConn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, adapter.InsertTerm(ctx, conn, row))
	require.NoError(t, mock.ExpectationsWereMet())
}
