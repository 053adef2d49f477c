package valuation

// NavigationState is the single source of truth for how far the flow
// has progressed. Transitions are driven by observed page conditions,
// never by fixed sleeps alone.
type NavigationState string

const (
	StateStart              NavigationState = "Start"
	StatePageLoading        NavigationState = "PageLoading"
	StateChallengePresent   NavigationState = "ChallengePresent"
	StateChallengeResolved  NavigationState = "ChallengeResolved"
	StateConsentPresent     NavigationState = "ConsentPresent"
	StateConsentResolved    NavigationState = "ConsentResolved"
	StateSearchReady        NavigationState = "SearchReady"
	StateReferenceEntered   NavigationState = "ReferenceEntered"
	StateSuggestionSelected NavigationState = "SuggestionSelected"
	StateConditionSet       NavigationState = "ConditionSet"
	StateDeliverySet        NavigationState = "DeliverySet"
	StateSubmitted          NavigationState = "Submitted"
	StateResultsRendered    NavigationState = "ResultsRendered"
	StateExtracted          NavigationState = "Extracted"
	StateFailed             NavigationState = "Failed"
)
