// Package browser owns the lifecycle of a single isolated Chrome
// session: one browser process, one browsing context, one page. A
// session belongs to exactly one evaluation and is never shared or
// reused, leaked sessions exhaust memory and file descriptors so
// callers must guarantee Close on every exit path.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
)

type Options struct {
	Profile  Profile
	Headless bool
	// RemoteURL points at an already-running Chrome devtools endpoint
	// (e.g. a headless-shell container). When empty a local browser
	// process is launched.
	RemoteURL string
	// Deadline bounds everything the session will ever do. Zero means
	// no deadline beyond the parent context's.
	Deadline time.Duration
}

// Session is an exclusively-owned browser/context/page triple.
type Session struct {
	ID         string
	CreatedAt  time.Time
	Profile    Profile
	DeadlineAt time.Time

	ctx       context.Context
	cancels   []context.CancelFunc
	closeOnce sync.Once
}

// Context returns the chromedp context all page operations run
// against. It is cancelled when the session is closed.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Close releases the page, browsing context and browser process. It is
// idempotent and safe to call after partial failures.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		// cancel in reverse order: page context before allocator
		for i := len(s.cancels) - 1; i >= 0; i-- {
			s.cancels[i]()
		}
		slog.Debug("browser session closed", "session", s.ID)
	})
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-ipc-flooding-protection", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("force-color-profile", "srgb"),
		chromedp.Flag("password-store", "basic"),
		chromedp.Flag("use-mock-keychain", true),
		chromedp.UserAgent(opts.Profile.UserAgent),
		chromedp.WindowSize(int(opts.Profile.Viewport.Width), int(opts.Profile.Viewport.Height)),
	)
}

// Open launches a fresh browser session and applies the stealth
// profile before any network navigation happens: headers, geolocation,
// timezone, locale, viewport and the automation-marker scrub are all
// in effect from the first request the session makes.
func Open(ctx context.Context, opts Options) (*Session, error) {
	createdAt := time.Now()
	deadlineAt := time.Time{}

	cancels := []context.CancelFunc{}
	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		deadlineAt = createdAt.Add(opts.Deadline)
		ctx, cancel = context.WithDeadline(ctx, deadlineAt)
		cancels = append(cancels, cancel)
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, opts.RemoteURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	}
	cancels = append(cancels, allocCancel)

	pageCtx, pageCancel := chromedp.NewContext(allocCtx)
	cancels = append(cancels, pageCancel)

	s := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  createdAt,
		Profile:    opts.Profile,
		DeadlineAt: deadlineAt,
		ctx:        pageCtx,
		cancels:    cancels,
	}

	err := chromedp.Run(pageCtx, applyProfile(opts.Profile)...)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("apply stealth profile: %w", err)
	}

	slog.Debug("browser session opened",
		"session", s.ID,
		"headless", opts.Headless,
		"remote", opts.RemoteURL != "",
	)
	return s, nil
}

func applyProfile(p Profile) []chromedp.Action {
	headers := make(network.Headers, len(p.ExtraHeaders))
	for k, v := range p.ExtraHeaders {
		headers[k] = v
	}

	actions := []chromedp.Action{
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		emulation.SetUserAgentOverride(p.UserAgent).
			WithAcceptLanguage(p.Locale),
		emulation.SetTimezoneOverride(p.TimezoneID),
		emulation.SetLocaleOverride().WithLocale(p.Locale),
		emulation.SetGeolocationOverride().
			WithLatitude(p.Geolocation.Latitude).
			WithLongitude(p.Geolocation.Longitude).
			WithAccuracy(p.Geolocation.Accuracy),
		chromedp.EmulateViewport(p.Viewport.Width, p.Viewport.Height),
	}
	if p.SuppressAutomationMarkers {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}))
	}
	return actions
}
