package validation

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize trims s, collapses internal whitespace and applies Unicode case
// folding. With foldAccents, combining marks are removed as well so that
// "Café" and "cafe" compare equal.
func Normalize(s string, foldAccents bool) string {
	s = strings.Join(strings.Fields(s), " ")
	if foldAccents {
		t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		if folded, _, err := transform.String(t, s); err == nil {
			s = folded
		}
	}
	return cases.Fold().String(s)
}

// Similarity scores two normalized strings from 0 (nothing in common) to
// 100 (identical) with the Indel ratio: 100 * 2*LCS / (lenA+lenB), where LCS
// is the longest common subsequence. Lengths are counted in runes, so a
// transposition costs two edits rather than a full mismatch.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	return 100 * float64(2*lcsLen(ra, rb)) / float64(total)
}

// lcsLen is the length of the longest common subsequence of a and b, kept to
// two rows.
func lcsLen(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

type match struct {
	index int
	score float64
	// tied holds every candidate index that scored within the tie margin of
	// the best score when more than one did.
	tied []int
}

func (m match) found() bool     { return m.index >= 0 }
func (m match) ambiguous() bool { return len(m.tied) > 1 }

// bestMatch resolves input against names. Exact normalized equality wins
// outright. Otherwise the single highest score at or above threshold is
// selected; several candidates within margin of the top score are a tie.
func bestMatch(input string, names []string, threshold, margin float64, foldAccents bool) match {
	in := Normalize(input, foldAccents)

	normalized := make([]string, len(names))
	var exact []int
	for i, name := range names {
		normalized[i] = Normalize(name, foldAccents)
		if normalized[i] == in {
			exact = append(exact, i)
		}
	}
	switch len(exact) {
	case 0:
	case 1:
		return match{index: exact[0], score: 100}
	default:
		return match{index: -1, score: 100, tied: exact}
	}

	top := -1.0
	scores := make([]float64, len(names))
	for i, name := range normalized {
		scores[i] = Similarity(in, name)
		top = max(top, scores[i])
	}
	if top < threshold {
		return match{index: -1, score: max(top, 0)}
	}

	var tied []int
	for i, s := range scores {
		if s >= threshold && top-s <= margin {
			tied = append(tied, i)
		}
	}
	if len(tied) > 1 {
		return match{index: -1, score: top, tied: tied}
	}
	return match{index: tied[0], score: top}
}
