package jobs

import (
	"strings"
	"unicode"
)

// stopWords filters common English words that add noise to keyword matching.
var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"work": true, "team": true, "role": true, "job": true, "join": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true, "new": true,
	"use": true, "using": true, "used": true, "well": true, "able": true,
	"per": true, "week": true, "hours": true, "hour": true, "apply": true,
}

// ExtractKeywords tokenizes text into a lowercase keyword set (>= 3 chars,
// stop words removed). Call once per resume and reuse for batch scoring.
// Treats + # . as word characters so "c++", "c#" and "node.js" survive.
func ExtractKeywords(text string) map[string]bool {
	kw := make(map[string]bool)
	var word strings.Builder
	flush := func() {
		w := strings.TrimRight(word.String(), ".")
		word.Reset()
		if len([]rune(w)) >= 3 && !stopWords[w] {
			kw[w] = true
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return kw
}

// KeywordScore computes a Jaccard keyword-overlap score in [0,1] between
// pre-extracted resume keywords and job text. Fallback relevance measure for
// runs without an embedding backend; higher means more similar, nothing more.
func KeywordScore(resumeKW map[string]bool, jobText string) float64 {
	jobKW := ExtractKeywords(jobText)
	if len(resumeKW) == 0 || len(jobKW) == 0 {
		return 0
	}

	inter := 0
	for kw := range resumeKW {
		if jobKW[kw] {
			inter++
		}
	}
	union := len(resumeKW) + len(jobKW) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
