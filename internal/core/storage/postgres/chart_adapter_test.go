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
)

func newMockDB(t *testing.T) (sqlmock.Sqlmock, *ChartAdapter, *TableAdapter) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, NewChartAdapter(db), NewTableAdapter(db)
}

func TestChartAdapter_StoreExists(t *testing.T) {
	tests := []struct {
		name       string
		mockResult func(mock sqlmock.Sqlmock)
		want       bool
		wantErr    bool
	}{
		{
			name: "store present",
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(queryStoreExists)).
					WithArgs(int64(7)).
					WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
			},
			want: true,
		},
		{
			name: "store absent",
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(queryStoreExists)).
					WithArgs(int64(7)).
					WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
			},
			want: false,
		},
		{
			name: "query failure",
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(queryStoreExists)).
					WithArgs(int64(7)).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mock, adapter, _ := newMockDB(t)
			tc.mockResult(mock)

			got, err := adapter.StoreExists(context.Background(), 7)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestChartAdapter_PurchaseTotals(t *testing.T) {
	mock, adapter, _ := newMockDB(t)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	ts := start.Add(14 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("FROM purchases p")).
		WithArgs(int64(7), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"timestamp", "total", "platform"}).
			AddRow(ts, "49.99", "ios").
			AddRow(ts, "12.50", "android"))

	rows, err := adapter.PurchaseTotals(context.Background(), 7, start, end)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.True(t, rows[0].Total.Equal(decimal.RequireFromString("49.99")))
	require.Equal(t, "ios", rows[0].Platform)
	require.Equal(t, ts, rows[0].Timestamp)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChartAdapter_PurchaseTotals_BadDecimal(t *testing.T) {
	mock, adapter, _ := newMockDB(t)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	mock.ExpectQuery(regexp.QuoteMeta("FROM purchases p")).
		WithArgs(int64(7), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"timestamp", "total", "platform"}).
			AddRow(start, "not-a-number", "ios"))

	_, err := adapter.PurchaseTotals(context.Background(), 7, start, end)
	require.Error(t, err)
}

func TestChartAdapter_ActionCounts(t *testing.T) {
	mock, adapter, _ := newMockDB(t)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	ts := start.Add(10 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("FROM analytics a")).
		WithArgs(int64(7), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"timestamp", "platform_id", "action_name", "action_count"}).
			AddRow(ts, 1, "view", int64(3)).
			AddRow(ts, 2, "view", int64(2)))

	rows, err := adapter.ActionCounts(context.Background(), 7, start, end)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "view", rows[0].ActionName)
	require.Equal(t, 1, rows[0].PlatformID)
	require.Equal(t, int64(3), rows[0].Count)
	require.NoError(t, mock.ExpectationsWereMet())
}
