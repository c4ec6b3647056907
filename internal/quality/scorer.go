package quality

import (
	"strings"
	"unicode/utf8"
)

const (
	baseScore = 0.70
	minScore  = 0.30
	maxScore  = 1.00
)

// uncertaintyMarkers lower a response's score when present. The list mixes
// English and Turkish phrasings because the service answers in both.
var uncertaintyMarkers = []string{
	// English
	"i don't know",
	"i lack",
	"i lack the ability",
	"unclear",
	"unable to process",
	"cannot determine",
	"hard to say",
	"unable to",
	"cannot provide",
	// Turkish
	"bilmiyorum",
	"emin değilim",
	"bilinmiyor",
	"belirlenemedi",
	"kesin",
}

// confidenceMarkers raise the score when at least two appear: topical words
// plus copulas that signal an affirmative answer.
var confidenceMarkers = []string{
	"ankara",
	"turkey",
	"türkiye",
	"capital",
	"başkent",
	"located",
	"yer al",
	"is",
	"dir",
	"was",
	"are",
}

// Score rates a response against the question that produced it, returning a
// value clamped to [0.3, 1.0]. Pure and deterministic; safe to call from
// any number of goroutines.
func Score(response, question string, isImageQuery bool) float64 {
	score := baseScore
	lowerResponse := strings.ToLower(response)

	// Uncertainty markers cost 0.10 each.
	for _, marker := range uncertaintyMarkers {
		if strings.Contains(lowerResponse, marker) {
			score -= 0.10
		}
	}

	// Very short answers are penalized. Lengths are counted in characters,
	// not bytes, so Turkish responses are measured fairly.
	responseLen := utf8.RuneCountInString(response)
	if responseLen < 10 {
		score -= 0.20
	} else if responseLen < 30 {
		score -= 0.05
	}

	// Two or more confidence markers earn a bonus.
	confidenceCount := 0
	for _, marker := range confidenceMarkers {
		if strings.Contains(lowerResponse, marker) {
			confidenceCount++
		}
	}
	if confidenceCount >= 2 {
		score += 0.20
	}

	// Relevance: more than half of the question's substantial words
	// appearing in the response earns a bonus.
	questionWords := substantialWords(question)
	if len(questionWords) > 0 {
		matching := 0
		for _, w := range questionWords {
			if strings.Contains(lowerResponse, w) {
				matching++
			}
		}
		if float64(matching)/float64(len(questionWords)) > 0.5 {
			score += 0.10
		}
	}

	// Image analysis is worth more.
	if isImageQuery {
		score += 0.15
	}

	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// substantialWords splits the question into lower-cased words longer than
// three characters.
func substantialWords(question string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(question)) {
		if utf8.RuneCountInString(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}
