package browser

import (
	browserua "github.com/EDDYCJY/fake-useragent"
)

type Geolocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

type Viewport struct {
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

// Profile is the declarative bundle of browser characteristics applied
// to a session at creation time. It is a value type and never mutated
// after Open.
type Profile struct {
	UserAgent                 string            `json:"user_agent"`
	Locale                    string            `json:"locale"`
	TimezoneID                string            `json:"timezone_id"`
	Geolocation               Geolocation       `json:"geolocation"`
	Viewport                  Viewport          `json:"viewport"`
	ExtraHeaders              map[string]string `json:"extra_headers"`
	SuppressAutomationMarkers bool              `json:"suppress_automation_markers"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36"

// DefaultProfile returns the profile the valuation pipeline runs with:
// a desktop Chrome in the US east coast. The target renders prices in
// USD for this locale, which the extractor depends on.
func DefaultProfile() Profile {
	return Profile{
		UserAgent:  defaultUserAgent,
		Locale:     "en-US",
		TimezoneID: "America/New_York",
		Geolocation: Geolocation{
			Latitude:  26.3683064,
			Longitude: -80.1289321,
			Accuracy:  100,
		},
		Viewport: Viewport{Width: 1920, Height: 1080},
		ExtraHeaders: map[string]string{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
			"Accept-Language":           "en-US,en;q=0.9",
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "none",
			"Sec-Fetch-User":            "?1",
			"Sec-Ch-Ua":                 `"Google Chrome";v="140", "Chromium";v="140", "Not;A=Brand";v="24"`,
			"Sec-Ch-Ua-Mobile":          "?0",
			"Sec-Ch-Ua-Platform":        `"Windows"`,
			"Upgrade-Insecure-Requests": "1",
		},
		SuppressAutomationMarkers: true,
	}
}

// WithRotatedUserAgent returns a copy of the profile with a random
// real-world Chrome user agent. The Sec-Ch-Ua headers are left alone
// on purpose, rotating those too makes the fingerprint less
// consistent, not more.
func (p Profile) WithRotatedUserAgent() Profile {
	ua := browserua.Chrome()
	if ua == "" {
		return p
	}
	p.UserAgent = ua
	return p
}
