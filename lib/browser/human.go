package browser

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/mazen160/go-random"
)

// Human-timing bounds. Per-character typing delay is a functional
// requirement of the target, not cosmetics: uniform machine-speed
// keystrokes trip its behavioral fingerprinting.
const (
	TypeDelayMin = 50 * time.Millisecond
	TypeDelayMax = 150 * time.Millisecond

	pauseChancePercent = 10
	pauseMin           = 200 * time.Millisecond
	pauseMax           = 800 * time.Millisecond
)

// RandomDelay sleeps for a duration drawn uniformly from [min, max],
// honoring ctx cancellation.
func RandomDelay(ctx context.Context, min, max time.Duration) error {
	ms, err := random.IntRange(int(min.Milliseconds()), int(max.Milliseconds())+1)
	if err != nil {
		ms = int((min + max).Milliseconds() / 2)
	}
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TypeHumanly clicks sel and types text character by character with
// randomized inter-character delays and the occasional longer pause.
func TypeHumanly(ctx context.Context, sel, text string) error {
	err := chromedp.Run(ctx,
		chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible),
	)
	if err != nil {
		return err
	}
	if err := RandomDelay(ctx, 300*time.Millisecond, 700*time.Millisecond); err != nil {
		return err
	}

	for _, ch := range text {
		err := chromedp.Run(ctx, chromedp.KeyEvent(string(ch)))
		if err != nil {
			return err
		}
		if err := RandomDelay(ctx, TypeDelayMin, TypeDelayMax); err != nil {
			return err
		}

		roll, rerr := random.IntRange(0, 100)
		if rerr == nil && roll < pauseChancePercent {
			if err := RandomDelay(ctx, pauseMin, pauseMax); err != nil {
				return err
			}
		}
	}
	return nil
}

// JiggleMouse performs a few small mouse movements so the page sees an
// active user while the pipeline is waiting on something else.
func JiggleMouse(ctx context.Context, viewport Viewport) error {
	moves, err := random.IntRange(2, 5)
	if err != nil {
		moves = 3
	}
	for i := 0; i < moves; i++ {
		x, _ := random.IntRange(0, int(viewport.Width))
		y, _ := random.IntRange(0, int(viewport.Height))

		err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			return input.DispatchMouseEvent(input.MouseMoved, float64(x), float64(y)).Do(ctx)
		}))
		if err != nil {
			return err
		}
		if err := RandomDelay(ctx, 100*time.Millisecond, 300*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}
