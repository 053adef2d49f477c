package valuation

import "time"

// PriceRecord is the structured min/avg/max extracted from one
// rendered results page. AvgPrice is nil when the page genuinely does
// not render an average; MinPrice and MaxPrice are always present.
type PriceRecord struct {
	MinPrice        int64
	MaxPrice        int64
	AvgPrice        *int64
	SamplesObserved int
}

type PriceRange struct {
	Min              int64   `json:"min"`
	Max              int64   `json:"max"`
	SpreadPercentage float64 `json:"spreadPercentage"`
}

type Calculation struct {
	Multiplier      float64 `json:"multiplier"`
	BasedOnMinPrice int64   `json:"basedOnMinPrice"`
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ValuationResult is the target-price recommendation derived from a
// PriceRecord. It is computed deterministically, everything except
// Timestamp is a pure function of the inputs.
type ValuationResult struct {
	RefNumber     string      `json:"refNumber"`
	TargetPrice   int64       `json:"targetPrice"`
	MarketAverage int64       `json:"marketAverage"`
	Confidence    Confidence  `json:"confidence"`
	PriceRange    PriceRange  `json:"priceRange"`
	Calculation   Calculation `json:"calculation"`
	Timestamp     time.Time   `json:"timestamp"`
}

// ProbeResult reports target reachability, used by the health surface
// and the CLI.
type ProbeResult struct {
	StatusCode int           `json:"statusCode"`
	Title      string        `json:"title"`
	Duration   time.Duration `json:"duration"`
}
