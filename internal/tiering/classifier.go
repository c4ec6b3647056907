package tiering

import "strings"

// Keyword sets for complexity detection. Matching is case-insensitive
// substring matching against the lower-cased question, evaluated in rule
// order with first match winning.
var (
	enterpriseKeywords  = []string{"complex", "advanced analysis", "multiple perspectives", "enterprise", "strategic"}
	explanatoryKeywords = []string{"why", "how", "explain", "analyze", "describe", "compare"}
	thoroughKeywords    = []string{"detailed", "comprehensive", "in depth", "thorough", "elaborate", "extensive", "complete"}
	mildDetailKeywords  = []string{"detail", "more", "information", "about", "tell", "show"}
)

// Classify maps a question to a complexity score in 1..4. It is pure and
// total: every input maps to exactly one score, defaulting to 1. The image
// flag never changes the score, only downstream pricing.
func Classify(question string, hasImage bool) int {
	_ = hasImage

	lower := strings.ToLower(question)
	wordCount := len(strings.Fields(question))

	if wordCount > 30 || containsAny(lower, enterpriseKeywords) {
		return 4
	}

	if containsAny(lower, explanatoryKeywords) {
		return 3
	}
	if containsAny(lower, thoroughKeywords) {
		return 3
	}

	if wordCount > 15 {
		return 2
	}
	if containsAny(lower, mildDetailKeywords) {
		return 2
	}

	return 1
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
