package valuation

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"valuator-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// Probe issues a plain HTTP GET against the target without launching a
// browser. It answers "is the target reachable and what page does it
// serve" for the health surface and the CLI, nothing more: a 403 here
// does not mean a full session would be blocked.
func Probe(ctx context.Context, targetURL, userAgent string) (ProbeResult, error) {
	ctx, span := tracer.Start(ctx, "Probe")
	defer span.End()

	client := resty.New().
		SetTimeout(15 * time.Second).
		SetHeader("User-Agent", userAgent)
	client.SetTransport(cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport))
	telemetry.InstrumentResty(client, "valuator.services.valuation")

	start := time.Now()
	res, err := client.R().SetContext(ctx).Get(targetURL)
	if err != nil {
		return ProbeResult{}, errorf(KindInternal, "probe", "probe %s: %v", targetURL, err)
	}

	result := ProbeResult{
		StatusCode: res.StatusCode(),
		Duration:   time.Since(start),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.String()))
	if err == nil {
		result.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	slog.InfoContext(ctx, "target probed",
		"url", targetURL,
		"status", result.StatusCode,
		"title", result.Title,
		"duration", result.Duration,
	)
	return result, nil
}
