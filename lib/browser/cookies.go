package browser

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// DefaultCookieMaxAge matches the longest consent cookie lifetime the
// target issues.
const DefaultCookieMaxAge = 90 * 24 * time.Hour

type cookieFile struct {
	Cookies   []*network.Cookie `json:"cookies"`
	Timestamp time.Time         `json:"timestamp"`
}

// SaveCookies writes the session's cookies to path as JSON. Failures
// are returned but are safe to treat as non-fatal, a lost cookie jar
// only costs one extra consent round-trip.
func (s *Session) SaveCookies(path string) error {
	var cookies []*network.Cookie
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cookieFile{
		Cookies:   cookies,
		Timestamp: time.Now(),
	}, "", "  ")
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return err
	}
	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return err
	}

	slog.Debug("saved cookies", "session", s.ID, "count", len(cookies), "path", path)
	return nil
}

// LoadCookies restores cookies previously written by SaveCookies. It
// reports whether anything was loaded; a missing or expired file is
// not an error.
func (s *Session) LoadCookies(path string, maxAge time.Duration) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var file cookieFile
	err = json.Unmarshal(data, &file)
	if err != nil {
		return false, err
	}

	if maxAge <= 0 {
		maxAge = DefaultCookieMaxAge
	}
	if time.Since(file.Timestamp) > maxAge {
		slog.Debug("saved cookies expired, ignoring", "path", path)
		_ = os.Remove(path)
		return false, nil
	}
	if len(file.Cookies) == 0 {
		return false, nil
	}

	err = chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range file.Cookies {
			err := setCookieParams(c).Do(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	}))
	if err != nil {
		return false, err
	}

	slog.Debug("loaded cookies", "session", s.ID, "count", len(file.Cookies), "path", path)
	return true, nil
}

func setCookieParams(c *network.Cookie) *network.SetCookieParams {
	p := network.SetCookie(c.Name, c.Value).
		WithDomain(c.Domain).
		WithPath(c.Path).
		WithSecure(c.Secure).
		WithHTTPOnly(c.HTTPOnly)
	// session cookies report Expires as -1; converting that through
	// the epoch would restore them already expired and Chrome would
	// drop them on arrival
	if c.Expires > 0 {
		expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
		p = p.WithExpires(&expires)
	}
	return p
}
