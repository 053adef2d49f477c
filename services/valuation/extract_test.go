package valuation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const structuredResultsHTML = `
<div class="market-value">
	<div class="value-range">
		<div class="text-left">
			<span class="h2">$30,000</span>
			<p>Lowest price</p>
		</div>
		<div class="text-right">
			<span class="h2">$33,000</span>
			<p>Highest price</p>
		</div>
	</div>
	<div class="market-average">
		Market average
		<span class="h1">$31,500</span>
	</div>
</div>`

const reversedResultsHTML = `
<div class="market-value">
	<div class="value-range">
		<div class="text-left"><span class="h2">$33,000</span></div>
		<div class="text-right"><span class="h2">$30,000</span></div>
	</div>
</div>`

const unstructuredResultsHTML = `
<div class="market-value">
	<p>Prices observed: <b>$9,800</b>, <b>$10,400</b>, <b>$11,000</b>, <b>$12,250</b>, <b>$13,100</b></p>
</div>`

func TestExtractFromStructuredHTML(t *testing.T) {
	record, err := ExtractFromHTML(structuredResultsHTML)
	require.NoError(t, err)

	require.Equal(t, int64(30000), record.MinPrice)
	require.Equal(t, int64(33000), record.MaxPrice)
	require.NotNil(t, record.AvgPrice)
	require.Equal(t, int64(31500), *record.AvgPrice)
}

func TestExtractSwapsReversedRange(t *testing.T) {
	record, err := ExtractFromHTML(reversedResultsHTML)
	require.NoError(t, err)

	require.Equal(t, int64(30000), record.MinPrice)
	require.Equal(t, int64(33000), record.MaxPrice)
}

func TestExtractFallsBackToTextScan(t *testing.T) {
	record, err := ExtractFromHTML(unstructuredResultsHTML)
	require.NoError(t, err)

	require.Equal(t, int64(9800), record.MinPrice)
	require.Equal(t, int64(13100), record.MaxPrice)
	require.NotNil(t, record.AvgPrice)
	require.Equal(t, int64(11000), *record.AvgPrice)
	require.Equal(t, 5, record.SamplesObserved)
}

func TestExtractNoPricesFails(t *testing.T) {
	_, err := ExtractFromHTML(`<div class="market-value"><p>No results found.</p></div>`)
	require.Error(t, err)
	require.Equal(t, KindInsufficientData, KindOf(err))
}

func TestFallbackFromTexts(t *testing.T) {
	record, err := fallbackFromTexts([]string{"$100", "$250", "$400"})
	require.NoError(t, err)
	require.Equal(t, int64(100), record.MinPrice)
	require.Equal(t, int64(400), record.MaxPrice)
	require.NotNil(t, record.AvgPrice)
	require.Equal(t, int64(250), *record.AvgPrice)
	require.Equal(t, 3, record.SamplesObserved)
}

func TestFallbackFromTextsUnsorted(t *testing.T) {
	record, err := fallbackFromTexts([]string{"$400", "$100", "$250", "$175"})
	require.NoError(t, err)
	require.Equal(t, int64(100), record.MinPrice)
	require.Equal(t, int64(400), record.MaxPrice)
}

func TestFallbackFromTextsTooFew(t *testing.T) {
	_, err := fallbackFromTexts([]string{"$100", "$250"})
	require.Error(t, err)
	require.Equal(t, KindInsufficientData, KindOf(err))

	_, err = fallbackFromTexts(nil)
	require.Error(t, err)
	require.Equal(t, KindInsufficientData, KindOf(err))
}

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{in: "$30,500", want: 30500, ok: true},
		{in: "$ 1,234,567", want: 1234567, ok: true},
		{in: "€9.800", want: 9800, ok: true},
		{in: "12000", want: 12000, ok: true},
		{in: "free", ok: false},
		{in: "", ok: false},
		{in: "$0", ok: false},
	}

	for _, tc := range testCases {
		got, ok := parsePrice(tc.in)
		require.Equal(t, tc.ok, ok, "parsePrice(%q)", tc.in)
		if tc.ok {
			require.Equal(t, tc.want, got, "parsePrice(%q)", tc.in)
		}
	}
}
