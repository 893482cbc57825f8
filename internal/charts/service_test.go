package charts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storepulse/storepulse/internal/core/catalog"
	"github.com/storepulse/storepulse/internal/core/storage"
)

type readerFake struct {
	exists       bool
	existsErr    error
	purchases    []storage.PurchaseRow
	purchasesErr error
	actions      []storage.ActionCountRow
	actionsErr   error
}

func (r *readerFake) StoreExists(context.Context, int64) (bool, error) {
	return r.exists, r.existsErr
}

func (r *readerFake) PurchaseTotals(context.Context, int64, time.Time, time.Time) ([]storage.PurchaseRow, error) {
	return r.purchases, r.purchasesErr
}

func (r *readerFake) ActionCounts(context.Context, int64, time.Time, time.Time) ([]storage.ActionCountRow, error) {
	return r.actions, r.actionsErr
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestGranularityHours(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		span time.Duration
		want int
	}{
		{"half day", 12 * time.Hour, 2},
		{"exactly one day", 24 * time.Hour, 2},
		{"day and a half", 36 * time.Hour, 4},
		{"exactly two days", 48 * time.Hour, 4},
		{"two and a half days", 60 * time.Hour, 6},
		{"exactly three days", 72 * time.Hour, 6},
		{"ten days", 240 * time.Hour, 24},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, granularityHours(base, base.Add(tc.span)))
		})
	}
}

func TestFloorToInterval(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		granularity int
		want        string
	}{
		{"2h floors odd hour", "2024-03-01T10:15:42Z", 2, "2024-03-01T10:00:00Z"},
		{"2h floors to even hour", "2024-03-01T11:59:59Z", 2, "2024-03-01T10:00:00Z"},
		{"6h floors within slice", "2024-03-01T17:30:00Z", 6, "2024-03-01T12:00:00Z"},
		{"24h floors to midnight", "2024-03-01T23:45:00Z", 24, "2024-03-01T00:00:00Z"},
		{"non-UTC input is normalized", "2024-03-01T01:30:00+02:00", 2, "2024-02-29T22:00:00Z"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := floorToInterval(day(t, tc.in), tc.granularity)
			require.Equal(t, day(t, tc.want), got)
		})
	}
}

func TestBuildChart_SeriesIsContiguous(t *testing.T) {
	svc := NewService(&readerFake{exists: true}, catalog.Default())

	start := day(t, "2024-03-01T01:30:00Z")
	end := day(t, "2024-03-02T01:30:00Z") // one day, granularity 2h

	buckets, err := svc.BuildChart(context.Background(), 7, start, end)
	require.NoError(t, err)
	require.NotEmpty(t, buckets)

	require.Equal(t, day(t, "2024-03-01T00:00:00Z"), buckets[0].Timestamp)
	require.Equal(t, day(t, "2024-03-02T00:00:00Z"), buckets[len(buckets)-1].Timestamp)
	require.Len(t, buckets, 13)

	for i := 1; i < len(buckets); i++ {
		require.Equal(t, 2*time.Hour, buckets[i].Timestamp.Sub(buckets[i-1].Timestamp))
	}
}

func TestBuildChart_EveryBucketCarriesExpectedActions(t *testing.T) {
	svc := NewService(&readerFake{exists: true}, catalog.Default())

	buckets, err := svc.BuildChart(context.Background(), 7,
		day(t, "2024-03-01T00:00:00Z"), day(t, "2024-03-01T12:00:00Z"))
	require.NoError(t, err)

	for _, b := range buckets {
		require.NotNil(t, b.Purchases)
		require.Empty(t, b.Purchases)
		for _, name := range []string{"view", "atc"} {
			byPlatform, ok := b.Actions[name]
			require.True(t, ok, "bucket %s missing action %q", b.Timestamp, name)
			require.NotNil(t, byPlatform)
			require.Empty(t, byPlatform)
		}
	}
}

func TestBuildChart_AccumulatesActionsIntoBucket(t *testing.T) {
	reader := &readerFake{
		exists: true,
		actions: []storage.ActionCountRow{
			{Timestamp: day(t, "2024-03-01T10:15:00Z"), PlatformID: 1, ActionName: "view", Count: 3},
			{Timestamp: day(t, "2024-03-01T10:40:00Z"), PlatformID: 2, ActionName: "view", Count: 2},
		},
	}
	svc := NewService(reader, catalog.Default())

	buckets, err := svc.BuildChart(context.Background(), 7,
		day(t, "2024-03-01T00:00:00Z"), day(t, "2024-03-02T00:00:00Z"))
	require.NoError(t, err)

	var target *ChartBucket
	for i := range buckets {
		if buckets[i].Timestamp.Equal(day(t, "2024-03-01T10:00:00Z")) {
			target = &buckets[i]
			break
		}
	}
	require.NotNil(t, target)
	require.Equal(t, map[string]int64{"ios": 3, "android": 2, "total": 5}, target.Actions["view"])
	require.Empty(t, target.Actions["atc"])
}

func TestBuildChart_AccumulatesPurchasesIntoBucket(t *testing.T) {
	reader := &readerFake{
		exists: true,
		purchases: []storage.PurchaseRow{
			{Timestamp: day(t, "2024-03-01T14:05:00Z"), Total: decimal.RequireFromString("49.99"), Platform: "ios"},
			{Timestamp: day(t, "2024-03-01T14:30:00Z"), Total: decimal.Zero, Platform: "android"}, // skipped
		},
	}
	svc := NewService(reader, catalog.Default())

	buckets, err := svc.BuildChart(context.Background(), 7,
		day(t, "2024-03-01T00:00:00Z"), day(t, "2024-03-02T00:00:00Z"))
	require.NoError(t, err)

	var target *ChartBucket
	for i := range buckets {
		if buckets[i].Timestamp.Equal(day(t, "2024-03-01T14:00:00Z")) {
			target = &buckets[i]
			break
		}
	}
	require.NotNil(t, target)
	require.Len(t, target.Purchases, 2)
	require.True(t, target.Purchases["ios"].Equal(decimal.RequireFromString("49.99")))
	require.True(t, target.Purchases["total_count"].Equal(decimal.RequireFromString("49.99")))
}

func TestBuildChart_UnknownStore(t *testing.T) {
	svc := NewService(&readerFake{exists: false}, catalog.Default())

	_, err := svc.BuildChart(context.Background(), 404,
		day(t, "2024-03-01T00:00:00Z"), day(t, "2024-03-02T00:00:00Z"))
	require.ErrorIs(t, err, storage.ErrStoreNotFound)
}

func TestBuildChart_ReadFailureIsFatal(t *testing.T) {
	reader := &readerFake{exists: true, purchasesErr: errors.New("connection refused")}
	svc := NewService(reader, catalog.Default())

	buckets, err := svc.BuildChart(context.Background(), 7,
		day(t, "2024-03-01T00:00:00Z"), day(t, "2024-03-02T00:00:00Z"))
	require.Error(t, err)
	require.Nil(t, buckets)
}
