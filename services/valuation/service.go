// Package valuation evaluates a watch reference number against the
// market by driving a disposable stealth browser session through the
// target's valuation form and extracting the rendered price range.
package valuation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
	"valuator-backend/lib/browser"
	"valuator-backend/lib/telemetry"
	"valuator-backend/lib/valstore"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"
)

var tracer = telemetry.Tracer("valuator.services.valuation")

const (
	defaultDeadline    = 120 * time.Second
	defaultMaxSessions = 2
)

// session is the slice of browser.Session the orchestrator needs.
type session interface {
	Context() context.Context
	Close()
}

type Options struct {
	Headless  bool
	RemoteURL string
	// Deadline is the wall-clock budget of one evaluation, browser
	// launch included.
	Deadline        time.Duration
	ChallengeBudget time.Duration
	// MaxSessions caps concurrent browser sessions; each one costs a
	// full Chrome process.
	MaxSessions int64
	// RetryOnce re-runs a failed evaluation once with a fresh session
	// when the failure looks transient.
	RetryOnce       bool
	RotateUserAgent bool
	// CookiePath persists consent cookies between sessions. Empty
	// disables persistence.
	CookiePath string
	TargetURL  string
	// Store records completed valuations. Nil disables recording.
	Store *valstore.Store
}

func (o Options) withDefaults() Options {
	if o.Deadline <= 0 {
		o.Deadline = defaultDeadline
	}
	if o.MaxSessions <= 0 {
		o.MaxSessions = defaultMaxSessions
	}
	return o
}

type Service struct {
	opts Options
	sem  *semaphore.Weighted

	// injectable seams, production values set in NewService
	openSession func(ctx context.Context, opts browser.Options) (session, error)
	runPipeline func(ctx context.Context, sess session, refNumber string) (PriceRecord, error)
}

func NewService(opts Options) *Service {
	opts = opts.withDefaults()
	s := &Service{
		opts: opts,
		sem:  semaphore.NewWeighted(opts.MaxSessions),
	}
	s.openSession = func(ctx context.Context, bopts browser.Options) (session, error) {
		return browser.Open(ctx, bopts)
	}
	s.runPipeline = s.runFlow
	return s
}

// Evaluate runs the full pipeline for one reference number. Every
// session opened on its behalf is closed by the time it returns,
// whatever the outcome.
func (s *Service) Evaluate(ctx context.Context, refNumber string) (ValuationResult, error) {
	ctx, span := tracer.Start(ctx, "Evaluate")
	defer span.End()
	span.SetAttributes(attribute.String("ref_number", refNumber))

	ref := NormalizeRef(refNumber)
	if ref == "" {
		err := errorf(KindInvalidInput, "validate", "empty reference number")
		span.SetStatus(codes.Error, err.Error())
		return ValuationResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Deadline)
	defer cancel()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		err = s.classify(ctx, newError(KindInternal, "admission", err))
		span.SetStatus(codes.Error, err.Error())
		return ValuationResult{}, err
	}
	defer s.sem.Release(1)

	result, err := s.attempt(ctx, ref)
	if err != nil && s.opts.RetryOnce && retryable(KindOf(err)) && ctx.Err() == nil {
		slog.WarnContext(ctx, "evaluation failed, retrying with fresh session",
			"ref_number", ref, "kind", string(KindOf(err)), "err", err)
		result, err = s.attempt(ctx, ref)
	}
	if err != nil {
		err = s.classify(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
		return ValuationResult{}, err
	}

	span.SetAttributes(
		attribute.Int64("target_price", result.TargetPrice),
		attribute.String("confidence", string(result.Confidence)),
	)
	return result, nil
}

func (s *Service) attempt(ctx context.Context, ref string) (ValuationResult, error) {
	start := time.Now()

	profile := browser.DefaultProfile()
	if s.opts.RotateUserAgent {
		profile = profile.WithRotatedUserAgent()
	}

	sess, err := s.openSession(ctx, browser.Options{
		Profile:   profile,
		Headless:  s.opts.Headless,
		RemoteURL: s.opts.RemoteURL,
		Deadline:  s.opts.Deadline,
	})
	if err != nil {
		return ValuationResult{}, newError(KindSessionStart, "open_session", err)
	}

	// the session is released exactly once per attempt, whether the
	// normal path or the watchdog gets there first
	var releaseOnce sync.Once
	release := func() { releaseOnce.Do(sess.Close) }
	defer release()

	// last line of defense against a wedged browser
	watchdog := time.AfterFunc(s.opts.Deadline, func() {
		slog.Warn("session watchdog fired, force-closing", "ref_number", ref)
		release()
	})
	defer watchdog.Stop()

	record, err := s.runPipeline(ctx, sess, ref)
	if err != nil {
		return ValuationResult{}, err
	}

	result, err := Calculate(ref, record)
	if err != nil {
		return ValuationResult{}, err
	}

	s.record(ctx, result, time.Since(start))

	slog.InfoContext(ctx, "evaluation complete",
		"ref_number", ref,
		"target_price", result.TargetPrice,
		"confidence", string(result.Confidence),
		"duration", time.Since(start),
	)
	return result, nil
}

// runFlow is the production pipeline: cookie restore, navigation flow,
// cookie persist.
func (s *Service) runFlow(ctx context.Context, sess session, ref string) (PriceRecord, error) {
	bs, ok := sess.(*browser.Session)
	if !ok {
		return PriceRecord{}, errorf(KindInternal, "pipeline", "unexpected session type %T", sess)
	}

	if s.opts.CookiePath != "" {
		_, err := bs.LoadCookies(s.opts.CookiePath, browser.DefaultCookieMaxAge)
		if err != nil {
			slog.WarnContext(ctx, "cookie restore failed", "err", err)
		}
	}

	record, err := newFlow(bs, FlowConfig{
		TargetURL:       s.opts.TargetURL,
		ChallengeBudget: s.opts.ChallengeBudget,
	}).Run(ctx, ref)
	if err != nil {
		return PriceRecord{}, err
	}

	if s.opts.CookiePath != "" {
		if err := bs.SaveCookies(s.opts.CookiePath); err != nil {
			slog.WarnContext(ctx, "cookie persist failed", "err", err)
		}
	}
	return record, nil
}

// record writes the valuation to the history store. Failures are
// logged, never surfaced: history is an audit trail, not a dependency.
func (s *Service) record(ctx context.Context, result ValuationResult, duration time.Duration) {
	if s.opts.Store == nil {
		return
	}
	err := s.opts.Store.Record(ctx, valstore.Entry{
		RefNumber:        result.RefNumber,
		TargetPrice:      result.TargetPrice,
		MarketAverage:    result.MarketAverage,
		MinPrice:         result.PriceRange.Min,
		MaxPrice:         result.PriceRange.Max,
		SpreadPercentage: result.PriceRange.SpreadPercentage,
		Confidence:       string(result.Confidence),
		Duration:         duration,
		CreatedAt:        result.Timestamp,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to record valuation", "err", err)
	}
}

// History returns recent recorded valuations, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]valstore.Entry, error) {
	if s.opts.Store == nil {
		return nil, nil
	}
	return s.opts.Store.Recent(ctx, limit)
}

// ProbeTarget checks target reachability without a browser.
func (s *Service) ProbeTarget(ctx context.Context) (ProbeResult, error) {
	url := FlowConfig{TargetURL: s.opts.TargetURL}.withDefaults().TargetURL
	return Probe(ctx, url, browser.DefaultProfile().UserAgent)
}

// classify upgrades failures caused by the wall-clock budget expiring
// to the deadline kind, whatever step they surfaced at.
func (s *Service) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return newError(KindDeadline, "deadline", err)
	}
	return err
}

// retryable reports whether a fresh session has a real chance of
// succeeding where the last one failed.
func retryable(kind Kind) bool {
	switch kind {
	case KindSessionStart, KindBlocked, KindResultsNotRendered:
		return true
	}
	return false
}
