// Package similarity provides the string-distance and normalization
// primitives used to judge typed recall of verses and references.
//
// All functions are pure and safe for concurrent use.
package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// EditDistance returns the Levenshtein distance between a and b: the minimum
// number of single-rune insertions, deletions and substitutions that turn
// one into the other.
//
// The table has len(b)+1 rows and len(a)+1 columns.
func EditDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	matrix := make([][]int, len(rb)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(ra)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(ra); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(rb); i++ {
		for j := 1; j <= len(ra); j++ {
			if rb[i-1] == ra[j-1] {
				matrix[i][j] = matrix[i-1][j-1]
				continue
			}
			matrix[i][j] = min(
				matrix[i-1][j-1]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j]+1,
			)
		}
	}

	return matrix[len(rb)][len(ra)]
}

// Similarity compares a and b case-insensitively after trimming surrounding
// whitespace. It returns 1 for equal strings (including two empty strings)
// and otherwise 1 - EditDistance/max(len(a), len(b)), measured in runes.
func Similarity(a, b string) float64 {
	na := strings.TrimSpace(strings.ToLower(a))
	nb := strings.TrimSpace(strings.ToLower(b))

	if na == nb {
		return 1
	}

	maxLen := max(len([]rune(na)), len([]rune(nb)))
	if maxLen == 0 {
		return 1
	}

	return 1 - float64(EditDistance(na, nb))/float64(maxLen)
}

// combiningMarks is the Combining Diacritical Marks block (U+0300..U+036F),
// which is what NFD splits Latin and Greek accents into.
var combiningMarks = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

// strippedPunctuation is the fixed set removed before comparison.
const strippedPunctuation = `.,;:!?"'()[]{}`

// NormalizeForComparison lowercases text, removes accents, strips the
// punctuation set . , ; : ! ? " ' ( ) [ ] { }, collapses whitespace runs to a
// single space and trims the result.
func NormalizeForComparison(text string) string {
	lowered := strings.ToLower(text)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(combiningMarks)))
	folded, _, err := transform.String(t, lowered)
	if err != nil {
		folded = lowered
	}

	var sb strings.Builder
	sb.Grow(len(folded))
	for _, r := range folded {
		if strings.ContainsRune(strippedPunctuation, r) {
			continue
		}
		sb.WriteRune(r)
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}
