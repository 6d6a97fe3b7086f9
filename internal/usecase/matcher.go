package usecase

import (
	"regexp"
	"sort"
	"strings"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	punctuationRegex = regexp.MustCompile(`[^\w\s]`)
	numericRegex     = regexp.MustCompile(`^\d+$`)
)

// receiptStopWords are tokens that carry no product identity: Dutch/English
// stop words plus unit and packaging noise common on receipt lines and in
// catalog titles.
var receiptStopWords = map[string]bool{
	// Dutch stop words
	"de": true, "het": true, "een": true, "en": true, "of": true,
	"met": true, "van": true, "voor": true, "per": true, "in": true,
	// English stop words (catalog titles mix languages)
	"a": true, "an": true, "the": true, "and": true, "or": true, "with": true,
	// Units
	"kg": true, "gr": true, "gram": true, "ml": true, "cl": true,
	"liter": true, "stuk": true, "stuks": true, "st": true,
	// Packaging
	"pak": true, "fles": true, "zak": true, "doos": true, "blik": true,
	"bak": true, "pot": true, "tray": true, "stapel": true,
	// Marketing noise
	"voordeel": true, "bonus": true, "actie": true, "nieuw": true,
}

// abbreviationExpansions maps common receipt shorthand to the full words a
// catalog title uses. Applied per token before scoring.
var abbreviationExpansions = map[string]string{
	"halfv":     "halfvolle",
	"volk":      "volkoren",
	"choc":      "chocolade",
	"yogh":      "yoghurt",
	"aardb":     "aardbei",
	"kipf":      "kipfilet",
	"rundergeh": "rundergehakt",
}

// CandidateMatcher scores external catalog candidates against receipt text so
// search results can be presented best-first.
type CandidateMatcher struct{}

// NewCandidateMatcher creates a new candidate matcher
func NewCandidateMatcher() *CandidateMatcher {
	return &CandidateMatcher{}
}

// Rank scores each candidate against the receipt text and returns them in
// descending score order. The input slice is not modified.
func (m *CandidateMatcher) Rank(receiptText string, candidates []domain.CatalogCandidate) []domain.CatalogCandidate {
	ranked := make([]domain.CatalogCandidate, len(candidates))
	copy(ranked, candidates)

	for i := range ranked {
		ranked[i].MatchScore = m.Score(receiptText, ranked[i].Title)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MatchScore > ranked[j].MatchScore
	})

	return ranked
}

// Score computes similarity between receipt text and a catalog title on a
// 0-100 scale. Weighted combination of:
//   - receipt token coverage: what share of the receipt tokens appear in the
//     title (most important signal)
//   - title token coverage: what share of the title tokens appear in the
//     receipt text
//   - Jaccard overlap of the two token sets
//
// plus a bonus for an exact substring match.
func (m *CandidateMatcher) Score(receiptText, candidateTitle string) float64 {
	receiptTokens := tokenize(receiptText)
	titleTokens := tokenize(candidateTitle)

	if len(receiptTokens) == 0 || len(titleTokens) == 0 {
		return 0
	}

	receiptMatched := countIntersection(receiptTokens, titleTokens)
	receiptCoverage := float64(receiptMatched) / float64(len(receiptTokens))

	titleMatched := countIntersection(titleTokens, receiptTokens)
	titleCoverage := float64(titleMatched) / float64(len(titleTokens))

	union := countUnion(receiptTokens, titleTokens)
	jaccard := float64(receiptMatched) / float64(union)

	score := (receiptCoverage*0.60 + titleCoverage*0.20 + jaccard*0.20) * 100

	receiptLower := strings.ToLower(strings.TrimSpace(receiptText))
	titleLower := strings.ToLower(candidateTitle)
	if len(receiptLower) > 3 && (strings.Contains(titleLower, receiptLower) || strings.Contains(receiptLower, titleLower)) {
		score += 10
	}

	if score > 100 {
		score = 100
	}

	return score
}

// tokenize splits a string into normalized lowercase tokens: punctuation
// stripped, stop words, single characters and pure numbers dropped, receipt
// abbreviations expanded.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 {
			continue
		}
		if receiptStopWords[word] {
			continue
		}
		if numericRegex.MatchString(word) {
			continue
		}
		if full, ok := abbreviationExpansions[word]; ok {
			word = full
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// countIntersection returns how many distinct tokens of tokens1 appear in tokens2
func countIntersection(tokens1, tokens2 []string) int {
	set := make(map[string]bool)
	for _, t := range tokens2 {
		set[t] = true
	}

	seen := make(map[string]bool)
	count := 0
	for _, t := range tokens1 {
		if set[t] && !seen[t] {
			count++
			seen[t] = true
		}
	}
	return count
}

// countUnion returns the number of unique tokens across both sets
func countUnion(tokens1, tokens2 []string) int {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}
	for _, t := range tokens2 {
		set[t] = true
	}
	return len(set)
}
