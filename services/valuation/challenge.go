package valuation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"valuator-backend/lib/browser"
	"valuator-backend/lib/poll"

	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/attribute"
)

// ChallengeOutcome reports what the challenge handler observed by the
// time it returned.
type ChallengeOutcome struct {
	Resolved     bool
	StillPresent bool
	TimedOut     bool
	// TokenLength is the last observed length of the hidden
	// verification token field.
	TokenLength int
}

const challengePollInterval = time.Second

// challengeObserver is one authoritative read of the challenge
// surface. Injectable so outcome classification is testable without a
// browser.
type challengeObserver func(ctx context.Context) (present bool, tokenLen int, err error)

// resolveChallenges waits for an interstitial bot challenge to clear.
// It never tries to solve anything computationally: it polls for the
// challenge markers to disappear or for the verification token to
// populate, wiggling the mouse occasionally so the page doesn't see a
// frozen visitor. Timing out is non-fatal; the caller decides whether
// to proceed.
func resolveChallenges(ctx context.Context, sess *browser.Session, budget time.Duration) ChallengeOutcome {
	observe := func(ctx context.Context) (bool, int, error) {
		return observeChallenge(sess.Context())
	}
	idle := func(ctx context.Context) {
		if err := browser.JiggleMouse(sess.Context(), sess.Profile.Viewport); err != nil {
			slog.DebugContext(ctx, "mouse jiggle failed", "err", err)
		}
	}
	return classifyChallenge(ctx, sess.ID, challengePollInterval, budget, observe, idle)
}

func classifyChallenge(
	ctx context.Context,
	sessionID string,
	interval, budget time.Duration,
	observe challengeObserver,
	idle func(ctx context.Context),
) ChallengeOutcome {
	ctx, span := tracer.Start(ctx, "resolveChallenges")
	defer span.End()

	outcome := ChallengeOutcome{}
	sawChallenge := false

	err := poll.Until(ctx, interval, budget, func(ctx context.Context) (bool, error) {
		present, tokenLen, err := observe(ctx)
		if err != nil {
			// observation errors during a challenge reload are
			// expected, keep polling
			slog.DebugContext(ctx, "challenge observation failed", "err", err)
			return false, nil
		}
		outcome.TokenLength = tokenLen

		if !present || tokenLen >= verificationTokenMinLength {
			return true, nil
		}

		sawChallenge = true
		idle(ctx)
		return false, nil
	})

	switch {
	case err == nil:
		outcome.Resolved = true
		if sawChallenge {
			slog.InfoContext(ctx, "challenge resolved",
				"session", sessionID, "token_length", outcome.TokenLength)
		}
	case err == poll.ErrBudgetExceeded:
		outcome.TimedOut = true
		outcome.StillPresent = true
		slog.WarnContext(ctx, "challenge wait timed out",
			"session", sessionID,
			"budget", budget,
			"last_token_length", outcome.TokenLength)
	default:
		// context cancellation; the deadline handling upstream owns this
		outcome.TimedOut = true
	}

	span.SetAttributes(
		attribute.Bool("challenge.resolved", outcome.Resolved),
		attribute.Int("challenge.token_length", outcome.TokenLength),
	)
	return outcome
}

// observeChallenge is the single authoritative read of the challenge
// surface: title markers, embedded challenge containers and the hidden
// verification token length.
func observeChallenge(ctx context.Context) (present bool, tokenLen int, err error) {
	var title string
	var containerCount int

	script := fmt.Sprintf(`(function () {
		const token = document.querySelector(%q);
		return {
			containers: document.querySelectorAll(%q).length,
			tokenLength: token && token.value ? token.value.length : 0,
		};
	})()`, verificationTokenQuery, challengeContainerQuery)

	var observed struct {
		Containers  int `json:"containers"`
		TokenLength int `json:"tokenLength"`
	}
	err = chromedp.Run(ctx,
		chromedp.Title(&title),
		chromedp.Evaluate(script, &observed),
	)
	if err != nil {
		return false, 0, err
	}

	containerCount = observed.Containers
	for _, marker := range challengeTitleMarkers {
		if strings.Contains(title, marker) {
			present = true
		}
	}
	if containerCount > 0 {
		present = true
	}
	return present, observed.TokenLength, nil
}

// resolveConsent clicks the first visible consent-affirmation control.
// Finding nothing is not an error: the overlay is only shown once per
// cookie jar.
func resolveConsent(ctx context.Context, sess *browser.Session) bool {
	ctx, span := tracer.Start(ctx, "resolveConsent")
	defer span.End()

	for _, loc := range consentLocators {
		clicked, err := clickConsent(sess.Context(), loc)
		if err != nil {
			slog.DebugContext(ctx, "consent locator failed", "locator", loc.Name, "err", err)
			continue
		}
		if clicked {
			slog.InfoContext(ctx, "consent overlay dismissed",
				"session", sess.ID, "locator", loc.Name)
			// give the overlay time to animate out before the flow
			// starts clicking underneath it
			_ = browser.RandomDelay(sess.Context(), 500*time.Millisecond, 1200*time.Millisecond)
			return true
		}
	}

	slog.DebugContext(ctx, "no consent overlay found", "session", sess.ID)
	return false
}

func clickConsent(ctx context.Context, loc Locator) (bool, error) {
	var script string
	if loc.ButtonText != "" {
		script = fmt.Sprintf(`(function () {
			const buttons = document.querySelectorAll('button');
			for (const b of buttons) {
				const text = (b.textContent || '').trim().toLowerCase();
				if (text.includes(%q) && b.offsetWidth > 0 && b.offsetHeight > 0) {
					b.click();
					return true;
				}
			}
			return false;
		})()`, strings.ToLower(loc.ButtonText))
	} else {
		script = fmt.Sprintf(`(function () {
			const el = document.querySelector(%q);
			if (el && el.offsetWidth > 0 && el.offsetHeight > 0) {
				el.click();
				return true;
			}
			return false;
		})()`, loc.Query)
	}

	var clicked bool
	err := chromedp.Run(ctx, chromedp.Evaluate(script, &clicked))
	return clicked, err
}
