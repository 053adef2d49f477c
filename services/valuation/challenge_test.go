package valuation

import (
	"context"
	"errors"
	"testing"
	"time"
	"valuator-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

type observation struct {
	present  bool
	tokenLen int
	err      error
}

// scripted returns an observer that replays observations in order,
// repeating the last one once exhausted.
func scripted(obs []observation) challengeObserver {
	i := 0
	return func(ctx context.Context) (bool, int, error) {
		o := obs[i]
		if i < len(obs)-1 {
			i++
		}
		return o.present, o.tokenLen, o.err
	}
}

func noIdle(context.Context) {}

func TestClassifyChallenge(t *testing.T) {
	telemetry.SetupForTesting(t, "valuation")

	testCases := []struct {
		name         string
		observations []observation
		want         ChallengeOutcome
	}{
		{
			name:         "no challenge shown",
			observations: []observation{{present: false}},
			want:         ChallengeOutcome{Resolved: true},
		},
		{
			name: "challenge clears",
			observations: []observation{
				{present: true, tokenLen: 0},
				{present: true, tokenLen: 40},
				{present: false, tokenLen: 40},
			},
			want: ChallengeOutcome{Resolved: true, TokenLength: 40},
		},
		{
			name: "verification token populates while challenge still shown",
			observations: []observation{
				{present: true, tokenLen: 0},
				{present: true, tokenLen: 2048},
			},
			want: ChallengeOutcome{Resolved: true, TokenLength: 2048},
		},
		{
			name: "token below threshold never resolves",
			observations: []observation{
				{present: true, tokenLen: 999},
			},
			want: ChallengeOutcome{TimedOut: true, StillPresent: true, TokenLength: 999},
		},
		{
			name: "observation errors are tolerated",
			observations: []observation{
				{err: errors.New("page reloading")},
				{present: false},
			},
			want: ChallengeOutcome{Resolved: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyChallenge(context.Background(), "test",
				time.Millisecond, 50*time.Millisecond,
				scripted(tc.observations), noIdle)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestClassifyChallengeCancelledContext(t *testing.T) {
	telemetry.SetupForTesting(t, "valuation")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := classifyChallenge(ctx, "test", time.Millisecond, time.Minute,
		scripted([]observation{{present: true}}), noIdle)
	require.True(t, got.TimedOut)
	require.False(t, got.Resolved)
	// a cancelled wait never claims the challenge is confirmed present
	require.False(t, got.StillPresent)
}

func TestClassifyChallengeIdlesOnlyWhileChallengeShown(t *testing.T) {
	telemetry.SetupForTesting(t, "valuation")

	idles := 0
	classifyChallenge(context.Background(), "test",
		time.Millisecond, 50*time.Millisecond,
		scripted([]observation{
			{present: true},
			{present: false},
		}),
		func(context.Context) { idles++ })
	require.Equal(t, 1, idles)
}
