package valuation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"valuator-backend/lib/browser"
	"valuator-backend/lib/htmlutil"
	"valuator-backend/lib/poll"

	"github.com/antzucaro/matchr"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// FlowConfig carries the tunables of one navigation run.
type FlowConfig struct {
	TargetURL       string
	ChallengeBudget time.Duration
	SuggestionWait  time.Duration
	ResultsWait     time.Duration
}

func (c FlowConfig) withDefaults() FlowConfig {
	if c.TargetURL == "" {
		c.TargetURL = "https://www.chrono24.com/info/valuation.htm"
	}
	if c.ChallengeBudget <= 0 {
		c.ChallengeBudget = 30 * time.Second
	}
	if c.SuggestionWait <= 0 {
		c.SuggestionWait = 10 * time.Second
	}
	if c.ResultsWait <= 0 {
		c.ResultsWait = 15 * time.Second
	}
	return c
}

// flow drives one session from a blank page to an extracted price
// record. State transitions are strictly sequential; there is exactly
// one logical thread of control per session.
type flow struct {
	sess  *browser.Session
	cfg   FlowConfig
	state NavigationState
}

func newFlow(sess *browser.Session, cfg FlowConfig) *flow {
	return &flow{sess: sess, cfg: cfg.withDefaults(), state: StateStart}
}

func (f *flow) to(ctx context.Context, state NavigationState) {
	slog.DebugContext(ctx, "navigation transition",
		"session", f.sess.ID, "from", string(f.state), "to", string(state))
	f.state = state
}

func (f *flow) fail(ctx context.Context, kind Kind, step string, err error) error {
	f.state = StateFailed
	slog.WarnContext(ctx, "navigation failed",
		"session", f.sess.ID, "step", step, "kind", string(kind), "err", err)
	return newError(kind, step, err)
}

// Run executes the full navigation sequence and returns the extracted
// price record.
func (f *flow) Run(ctx context.Context, refNumber string) (PriceRecord, error) {
	ctx, span := tracer.Start(ctx, "flow:Run")
	defer span.End()
	span.SetAttributes(attribute.String("ref_number", refNumber))

	record, err := f.run(ctx, refNumber)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
		return PriceRecord{}, err
	}
	span.SetAttributes(
		attribute.Int64("price.min", record.MinPrice),
		attribute.Int64("price.max", record.MaxPrice),
	)
	return record, nil
}

func (f *flow) run(ctx context.Context, refNumber string) (PriceRecord, error) {
	pctx := f.sess.Context()

	// Start -> PageLoading
	f.to(ctx, StatePageLoading)
	err := chromedp.Run(pctx,
		chromedp.Navigate(f.cfg.TargetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return PriceRecord{}, f.fail(ctx, KindInternal, "navigate", err)
	}

	// interstitial challenges may appear on any navigation
	outcome := resolveChallenges(ctx, f.sess, f.cfg.ChallengeBudget)
	if outcome.StillPresent {
		f.to(ctx, StateChallengePresent)
	}
	if outcome.Resolved {
		f.to(ctx, StateChallengeResolved)
	}
	// a timed-out challenge is non-fatal by policy: proceed and let
	// submission fail naturally if we are actually blocked

	if resolveConsent(ctx, f.sess) {
		f.to(ctx, StateConsentPresent)
	}
	f.to(ctx, StateConsentResolved)

	// SearchReady
	searchInput, err := f.firstVisible(ctx, searchInputLocators, 10*time.Second)
	if err != nil {
		return PriceRecord{}, f.fail(ctx, KindElementNotFound, "search_input", err)
	}
	f.to(ctx, StateSearchReady)

	// ReferenceEntered
	err = browser.TypeHumanly(pctx, searchInput.Query, refNumber)
	if err != nil {
		return PriceRecord{}, f.fail(ctx, KindInternal, "type_reference", err)
	}
	f.to(ctx, StateReferenceEntered)

	// SuggestionSelected
	err = f.selectFirstSuggestion(ctx, refNumber)
	if err != nil {
		return PriceRecord{}, err
	}
	f.to(ctx, StateSuggestionSelected)

	// ConditionSet / DeliverySet
	err = f.setSelector(ctx, conditionLocators, conditionValue, "condition")
	if err != nil {
		return PriceRecord{}, err
	}
	f.to(ctx, StateConditionSet)

	err = f.setSelector(ctx, deliveryLocators, deliveryValue, "delivery")
	if err != nil {
		return PriceRecord{}, err
	}
	f.to(ctx, StateDeliverySet)

	// Submitted
	submit, err := f.firstVisible(ctx, submitLocators, 5*time.Second)
	if err != nil {
		return PriceRecord{}, f.fail(ctx, KindElementNotFound, "submit", err)
	}
	err = chromedp.Run(pctx, chromedp.Click(submit.Query, chromedp.ByQuery, chromedp.NodeVisible))
	if err != nil {
		return PriceRecord{}, f.fail(ctx, KindInternal, "submit", err)
	}
	f.to(ctx, StateSubmitted)

	// submission is exactly where the target re-challenges
	outcome = resolveChallenges(ctx, f.sess, f.cfg.ChallengeBudget)

	// ResultsRendered only once a content marker is visible
	_, err = f.firstVisible(ctx, resultsRegionLocators, f.cfg.ResultsWait)
	if err != nil {
		if outcome.StillPresent {
			return PriceRecord{}, f.fail(ctx, KindBlocked, "results",
				fmt.Errorf("challenge still present after submission (token length %d)", outcome.TokenLength))
		}
		return PriceRecord{}, f.fail(ctx, KindResultsNotRendered, "results", err)
	}
	f.to(ctx, StateResultsRendered)

	// Extracted
	record, err := extract(ctx, f.sess)
	if err != nil {
		f.state = StateFailed
		return PriceRecord{}, err
	}
	f.to(ctx, StateExtracted)
	return record, nil
}

func (f *flow) selectFirstSuggestion(ctx context.Context, refNumber string) error {
	pctx := f.sess.Context()

	loc, err := f.firstVisible(ctx, suggestionLocators, f.cfg.SuggestionWait)
	if err != nil {
		return f.fail(ctx, KindNoSuggestions, "suggestions",
			fmt.Errorf("no suggestions within %s: %w", f.cfg.SuggestionWait, err))
	}

	// brief settle so the full list is populated before we pick the
	// first entry
	_ = browser.RandomDelay(pctx, 500*time.Millisecond, 1*time.Second)

	// ByQuery resolves to the first match, which is the entry the
	// autocomplete ranks highest
	first := loc.Query

	var text string
	err = chromedp.Run(pctx, chromedp.Text(first, &text, chromedp.ByQuery))
	if err == nil && text != "" {
		// sanity check: a first suggestion wildly unlike the typed
		// reference usually means the search misfired
		suggestion := htmlutil.CleanText(text)
		distance := matchr.Levenshtein(
			strings.ToUpper(suggestion),
			strings.ToUpper(refNumber),
		)
		if !strings.Contains(strings.ToUpper(suggestion), strings.ToUpper(refNumber)) &&
			distance > len(refNumber) {
			slog.WarnContext(ctx, "first suggestion does not resemble reference",
				"session", f.sess.ID, "suggestion", suggestion, "distance", distance)
		}
	}

	err = chromedp.Run(pctx, chromedp.Click(first, chromedp.ByQuery, chromedp.NodeVisible))
	if err != nil {
		return f.fail(ctx, KindNoSuggestions, "suggestions", err)
	}

	// let the page process the selection
	_ = browser.RandomDelay(pctx, 1*time.Second, 2*time.Second)
	return nil
}

// setSelector sets a categorical <select> to its required value. A
// missing selector is benign only when the product is confirmed
// selected already (the target hides the selectors in that layout);
// otherwise it is a hard ElementNotFound.
func (f *flow) setSelector(ctx context.Context, locators []Locator, value, step string) error {
	pctx := f.sess.Context()

	loc, err := f.firstVisible(ctx, locators, 3*time.Second)
	if err != nil {
		selected, verr := f.productSelected(pctx)
		if verr == nil && selected {
			slog.InfoContext(ctx, "selector absent but product already selected, continuing",
				"session", f.sess.ID, "step", step)
			return nil
		}
		return f.fail(ctx, KindElementNotFound, step, err)
	}

	script := fmt.Sprintf(`(function () {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.value = %q;
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, loc.Query, value)

	var ok bool
	err = chromedp.Run(pctx, chromedp.Evaluate(script, &ok))
	if err != nil || !ok {
		return f.fail(ctx, KindInternal, step, fmt.Errorf("set %s to %q: %v", step, value, err))
	}
	return nil
}

// productSelected reports whether the search input carries a populated
// value, the target's signal that a suggestion was accepted.
func (f *flow) productSelected(pctx context.Context) (bool, error) {
	for _, loc := range searchInputLocators {
		script := fmt.Sprintf(`(function () {
			const el = document.querySelector(%q);
			return !!(el && el.value && el.value.length > 0);
		})()`, loc.Query)

		var populated bool
		err := chromedp.Run(pctx, chromedp.Evaluate(script, &populated))
		if err != nil {
			return false, err
		}
		if populated {
			return true, nil
		}
	}
	return false, nil
}

// firstVisible polls the locator list until one matches a visible
// element, in list order, first match wins.
func (f *flow) firstVisible(ctx context.Context, locators []Locator, budget time.Duration) (Locator, error) {
	var found Locator

	err := poll.Until(ctx, 500*time.Millisecond, budget, func(ctx context.Context) (bool, error) {
		for _, loc := range locators {
			if loc.Query == "" {
				continue
			}
			visible, err := isVisible(f.sess.Context(), loc.Query)
			if err != nil {
				return false, nil
			}
			if visible {
				found = loc
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		names := make([]string, len(locators))
		for i, loc := range locators {
			names[i] = loc.Name
		}
		return Locator{}, fmt.Errorf("no visible match among locators [%s]: %w",
			strings.Join(names, ", "), err)
	}

	slog.DebugContext(ctx, "locator matched", "session", f.sess.ID, "locator", found.Name)
	return found, nil
}

func isVisible(pctx context.Context, query string) (bool, error) {
	script := fmt.Sprintf(`(function () {
		const el = document.querySelector(%q);
		return !!(el && el.offsetWidth > 0 && el.offsetHeight > 0);
	})()`, query)

	var visible bool
	err := chromedp.Run(pctx, chromedp.Evaluate(script, &visible))
	return visible, err
}
