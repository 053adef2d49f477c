package valstore

import (
	"context"
	"testing"
	"time"
	"valuator-backend/lib/testutil"

	"github.com/stretchr/testify/require"
)

func TestRecordAndRecent(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "valstore",
		DbSchema: Schema,
	})
	defer cleanup()
	store := NewStore(res.DB)

	ctx := context.Background()
	base := time.Now().Truncate(time.Second)

	for i, ref := range []string{"116500LN", "326.30.40.50.06.001", "5711/1A"} {
		err := store.Record(ctx, Entry{
			RefNumber:        ref,
			TargetPrice:      24000,
			MarketAverage:    31500,
			MinPrice:         30000,
			MaxPrice:         33000,
			SpreadPercentage: 10,
			Confidence:       "High",
			Duration:         45 * time.Second,
			CreatedAt:        base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	entries, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "5711/1A", entries[0].RefNumber)
	require.Equal(t, "326.30.40.50.06.001", entries[1].RefNumber)
	require.Equal(t, int64(24000), entries[0].TargetPrice)
	require.Equal(t, 45*time.Second, entries[0].Duration)
}
