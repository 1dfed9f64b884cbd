// Package namematch canonicalizes event names for fuzzy matching.
// Odds pages and results pages disagree on transliteration and
// formatting of the same team, so exact keys would miss most
// settlements.
package namematch

import "strings"

// MatchThreshold is the minimum similarity ratio for a fuzzy match.
const MatchThreshold = 0.70

// Latin letters that render identically to Cyrillic ones. Sources mix
// the two alphabets freely inside otherwise-Cyrillic team names.
var homoglyphs = strings.NewReplacer(
	"c", "с",
	"a", "а",
	"e", "е",
	"o", "о",
	"p", "р",
	"x", "х",
	"y", "у",
	"k", "к",
	"b", "б",
)

// Normalize lowercases the name, folds confusable Latin letters to
// their Cyrillic homoglyphs and collapses internal whitespace. Used
// only for comparison, never persisted.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return ""
	}
	s = homoglyphs.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Ratio returns a similarity measure in [0,1] between two normalized
// names: twice the longest common subsequence length over the summed
// lengths, computed rune-wise.
func Ratio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// FindBestMatch returns the candidate that best matches target. An
// exact match after normalization wins immediately (first encountered);
// otherwise the candidate with the highest ratio above MatchThreshold
// is returned. The second result is false when nothing qualifies.
func FindBestMatch(target string, candidates []string) (string, bool) {
	normTarget := Normalize(target)

	best := ""
	bestRatio := 0.0
	for _, cand := range candidates {
		normCand := Normalize(cand)
		if normTarget == normCand {
			return cand, true
		}
		if r := Ratio(normTarget, normCand); r > bestRatio && r > MatchThreshold {
			bestRatio = r
			best = cand
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}
