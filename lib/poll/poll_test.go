package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUntilImmediateSuccess(t *testing.T) {
	calls := 0
	err := Until(context.Background(), time.Hour, time.Hour, func(ctx context.Context) (bool, error) {
		calls++
		return true, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestUntilEventualSuccess(t *testing.T) {
	calls := 0
	err := Until(context.Background(), time.Millisecond, time.Second, func(ctx context.Context) (bool, error) {
		calls++
		return calls >= 3, nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestUntilBudgetExceeded(t *testing.T) {
	start := time.Now()
	err := Until(context.Background(), time.Millisecond*5, time.Millisecond*30, func(ctx context.Context) (bool, error) {
		return false, nil
	})
	require.ErrorIs(t, err, ErrBudgetExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestUntilCheckError(t *testing.T) {
	boom := errors.New("boom")
	err := Until(context.Background(), time.Millisecond, time.Second, func(ctx context.Context) (bool, error) {
		return false, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestUntilContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(time.Millisecond * 10)
		cancel()
	}()
	err := Until(ctx, time.Millisecond*100, time.Minute, func(ctx context.Context) (bool, error) {
		return false, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
