package valuation

import (
	"math"
	"strings"
	"time"
)

// targetMultiplier is the fraction of the observed minimum market
// price recommended as the buy target.
const targetMultiplier = 0.8

// Confidence thresholds on the min-to-max spread percentage.
const (
	highConfidenceSpread   = 15.0
	mediumConfidenceSpread = 30.0
)

// NormalizeRef canonicalizes a reference number for lookup and
// storage: surrounding whitespace trimmed, letters upper-cased.
func NormalizeRef(refNumber string) string {
	return strings.ToUpper(strings.TrimSpace(refNumber))
}

// Calculate turns an extracted PriceRecord into a ValuationResult.
//
// The target price is 80% of the observed minimum, rounded to the
// nearest whole unit. Market average prefers the page's own average
// and falls back to the midpoint of the range. Confidence is derived
// from the spread of the range relative to the minimum: a tight
// spread means the market agrees on the model's value.
func Calculate(refNumber string, record PriceRecord) (ValuationResult, error) {
	ref := NormalizeRef(refNumber)
	if ref == "" {
		return ValuationResult{}, errorf(KindInvalidInput, "calculate", "empty reference number")
	}
	if record.MinPrice <= 0 || record.MaxPrice <= 0 {
		return ValuationResult{}, errorf(KindInvalidInput, "calculate",
			"non-positive price range %d..%d", record.MinPrice, record.MaxPrice)
	}
	if record.MinPrice > record.MaxPrice {
		record.MinPrice, record.MaxPrice = record.MaxPrice, record.MinPrice
	}

	targetPrice := int64(math.Round(targetMultiplier * float64(record.MinPrice)))

	marketAverage := int64(math.Round(float64(record.MinPrice+record.MaxPrice) / 2))
	if record.AvgPrice != nil && *record.AvgPrice > 0 {
		marketAverage = *record.AvgPrice
	}

	spread := float64(record.MaxPrice-record.MinPrice) / float64(record.MinPrice) * 100
	spread = math.Round(spread*100) / 100

	confidence := ConfidenceLow
	switch {
	case spread <= highConfidenceSpread:
		confidence = ConfidenceHigh
	case spread <= mediumConfidenceSpread:
		confidence = ConfidenceMedium
	}

	return ValuationResult{
		RefNumber:     ref,
		TargetPrice:   targetPrice,
		MarketAverage: marketAverage,
		Confidence:    confidence,
		PriceRange: PriceRange{
			Min:              record.MinPrice,
			Max:              record.MaxPrice,
			SpreadPercentage: spread,
		},
		Calculation: Calculation{
			Multiplier:      targetMultiplier,
			BasedOnMinPrice: record.MinPrice,
		},
		Timestamp: time.Now().UTC(),
	}, nil
}
