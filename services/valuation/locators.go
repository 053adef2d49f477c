package valuation

// The target's UI is a third-party surface that changes without
// notice. Every element the flow touches is found through an ordered
// list of locator strategies tried first-match-wins, so surface
// changes mean editing these lists, not the state machine.

// Locator is one way of finding an element. Query is a CSS selector;
// ButtonText instead matches a visible <button> by case-insensitive
// substring.
type Locator struct {
	Name       string
	Query      string
	ButtonText string
}

var searchInputLocators = []Locator{
	{Name: "id", Query: "#productSearch"},
	{Name: "name", Query: `input[name="model"]`},
	{Name: "placeholder-reference", Query: `input[placeholder*="Reference" i]`},
	{Name: "placeholder-model", Query: `input[placeholder*="model" i]`},
	{Name: "class", Query: ".wt-product-search-input"},
}

var suggestionLocators = []Locator{
	{Name: "result-list", Query: `.wt-product-search-result-list li[role="listitem"]`},
	{Name: "menu", Query: ".productsearch-menu li"},
	{Name: "data-test", Query: `[data-test="menu"] li`},
	{Name: "dropdown", Query: ".dropdown-menu li"},
}

var conditionLocators = []Locator{
	{Name: "id", Query: "#condition"},
	{Name: "name", Query: `select[name="condition"]`},
}

var deliveryLocators = []Locator{
	{Name: "id", Query: "#scopeOfDelivery"},
	{Name: "name", Query: `select[name="scopeOfDelivery"]`},
}

var submitLocators = []Locator{
	{Name: "id", Query: "#calculateStats"},
	{Name: "name", Query: `input[name="calculateStats"]`},
	{Name: "type", Query: `button[type="submit"]`},
}

var resultsRegionLocators = []Locator{
	{Name: "market-value", Query: ".market-value"},
	{Name: "value-range", Query: ".value-range"},
	{Name: "market-any", Query: `[class*="market"]`},
	{Name: "valuation-any", Query: `[class*="valuation"]`},
}

var consentLocators = []Locator{
	{Name: "text-ok", ButtonText: "ok"},
	{Name: "text-accept", ButtonText: "accept"},
	{Name: "text-agree", ButtonText: "agree"},
	{Name: "attr-accept-id", Query: `button[id*="accept"]`},
	{Name: "attr-accept-class", Query: `button[class*="accept"]`},
	{Name: "attr-accept-testid", Query: `button[data-testid*="accept"]`},
	{Name: "banner", Query: ".cookie-consent button, .cookie-banner button, #cookie-consent button"},
}

// Fixed categorical values required before submission.
const (
	conditionValue = "Used"
	deliveryValue  = "WatchOnly"
)

// challengeMarkers are title substrings that identify an interstitial
// bot-challenge page.
var challengeTitleMarkers = []string{
	"Just a moment",
	"Security check",
	"Checking",
	"Attention Required",
}

// challengeContainerQuery matches the widgets a challenge page embeds.
const challengeContainerQuery = `#cf-wrapper, .cf-challenge, .cf-browser-verification, iframe[src*="turnstile"], .cf-turnstile`

// verificationTokenQuery is the hidden field the target populates once
// a challenge is satisfied; a real token is well over a thousand
// characters.
const (
	verificationTokenQuery     = `input[name="challengeToken"]`
	verificationTokenMinLength = 1000
)
