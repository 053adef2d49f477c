package valuation

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"valuator-backend/lib/browser"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/codes"
)

var currencyRe = regexp.MustCompile(`[$€£]\s?[\d][\d.,]*`)

// extract parses the rendered results surface into a PriceRecord. The
// structured strategy reads the labeled value-range layout; when any
// of the three figures is missing it falls back to scanning every
// currency-looking text node in the region.
func extract(ctx context.Context, sess *browser.Session) (PriceRecord, error) {
	ctx, span := tracer.Start(ctx, "extract")
	defer span.End()

	var regionHTML string
	var lastErr error
	for _, loc := range resultsRegionLocators {
		visible, err := isVisible(sess.Context(), loc.Query)
		if err != nil || !visible {
			continue
		}
		err = chromedp.Run(sess.Context(),
			chromedp.OuterHTML(loc.Query, &regionHTML, chromedp.ByQuery),
		)
		if err != nil {
			lastErr = err
			continue
		}
		break
	}
	if regionHTML == "" {
		err := errorf(KindInsufficientData, "extract", "results region not found: %v", lastErr)
		span.SetStatus(codes.Error, err.Error())
		return PriceRecord{}, err
	}

	record, err := ExtractFromHTML(regionHTML)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return PriceRecord{}, err
	}

	slog.InfoContext(ctx, "prices extracted",
		"session", sess.ID,
		"min", record.MinPrice,
		"max", record.MaxPrice,
		"samples", record.SamplesObserved,
	)
	return record, nil
}

// ExtractFromHTML parses one results-region fragment. Exposed for
// tests; extraction itself has no browser dependency.
func ExtractFromHTML(html string) (PriceRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return PriceRecord{}, errorf(KindInsufficientData, "extract", "parse results html: %v", err)
	}

	samples := currencyTexts(doc.Selection)

	min, okMin := structuredPrice(doc, ".text-left")
	max, okMax := structuredPrice(doc, ".text-right")
	avg, okAvg := averagePrice(doc)

	if !okMin || !okMax {
		// fall back to the scan when the labeled layout is incomplete
		record, err := fallbackFromTexts(samples)
		if err != nil {
			return PriceRecord{}, err
		}
		// keep a structured average if we did find one
		if okAvg {
			record.AvgPrice = &avg
		}
		return normalize(record), nil
	}

	record := PriceRecord{
		MinPrice:        min,
		MaxPrice:        max,
		SamplesObserved: len(samples),
	}
	if okAvg {
		record.AvgPrice = &avg
	}
	return normalize(record), nil
}

// fallbackFromTexts derives min/avg/max from raw currency strings by
// sorting all parsed values and taking minimum, median and maximum.
// Fewer than 3 values is not enough to claim a range.
func fallbackFromTexts(texts []string) (PriceRecord, error) {
	var values []int64
	for _, t := range texts {
		v, ok := parsePrice(t)
		if ok {
			values = append(values, v)
		}
	}
	if len(values) < 3 {
		return PriceRecord{}, errorf(KindInsufficientData, "extract",
			"only %d price values recovered, need at least 3", len(values))
	}

	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	avg := values[len(values)/2]
	return PriceRecord{
		MinPrice:        values[0],
		MaxPrice:        values[len(values)-1],
		AvgPrice:        &avg,
		SamplesObserved: len(values),
	}, nil
}

// normalize enforces min <= max: the page occasionally renders the
// range reversed and a swap is the right fix, not a failure. An
// average outside the range is a mis-parse and is dropped rather than
// trusted.
func normalize(r PriceRecord) PriceRecord {
	if r.MinPrice > r.MaxPrice {
		r.MinPrice, r.MaxPrice = r.MaxPrice, r.MinPrice
	}
	if r.AvgPrice != nil && (*r.AvgPrice < r.MinPrice || *r.AvgPrice > r.MaxPrice) {
		r.AvgPrice = nil
	}
	return r
}

func structuredPrice(doc *goquery.Document, side string) (int64, bool) {
	sel := doc.Find(".value-range " + side).First()
	if sel.Length() == 0 {
		sel = doc.Find(side).First()
	}
	if sel.Length() == 0 {
		return 0, false
	}
	node := sel.Find(".h2, .h1, span").First()
	if node.Length() == 0 {
		node = sel
	}
	return parsePrice(node.Text())
}

func averagePrice(doc *goquery.Document) (int64, bool) {
	var avg int64
	found := false
	// Text() flattens descendants, so ancestor wrappers match the
	// "average" label too. Last match wins: document order puts the
	// innermost labeled element after its wrappers.
	doc.Find("div").Each(func(_ int, s *goquery.Selection) {
		if !strings.Contains(strings.ToLower(s.Text()), "average") {
			return
		}
		node := s.Find(".h1, .h2, span").First()
		if node.Length() == 0 {
			return
		}
		v, ok := parsePrice(node.Text())
		if ok {
			avg = v
			found = true
		}
	})
	return avg, found
}

// currencyTexts returns every currency-formatted string in the region,
// duplicates included: repeated figures are distinct samples on the
// page, not parse artifacts.
func currencyTexts(sel *goquery.Selection) []string {
	return currencyRe.FindAllString(sel.Text(), -1)
}

// parsePrice strips everything non-numeric and parses the remainder.
// Prices on the results surface are whole currency units.
func parsePrice(text string) (int64, bool) {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
