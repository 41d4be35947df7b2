package matcher

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/FocuswithJustin/versemem/core/similarity"
)

// WordStatus classifies one aligned word of an answer.
type WordStatus string

// Word statuses reported by Diagnose.
const (
	WordExact       WordStatus = "exact"
	WordClose       WordStatus = "close"
	WordSoundsAlike WordStatus = "sounds-alike"
	WordWrong       WordStatus = "wrong"
	WordMissing     WordStatus = "missing"
	WordExtra       WordStatus = "extra"
)

// WordFeedback describes how one reference word was rendered in the answer.
type WordFeedback struct {
	Index       int        `json:"index"`
	Expected    string     `json:"expected,omitempty"`
	Given       string     `json:"given,omitempty"`
	Status      WordStatus `json:"status"`
	Similarity  float64    `json:"similarity"`
	JaroWinkler float64    `json:"jaro_winkler"`
}

// Diagnose aligns the normalized answer and reference word by word, the same
// way CheckMatch does, and reports each position. It never changes a
// verdict; it only explains one.
func Diagnose(userAnswer, correctAnswer string) []WordFeedback {
	given := strings.Fields(similarity.NormalizeForComparison(userAnswer))
	expected := strings.Fields(similarity.NormalizeForComparison(correctAnswer))

	feedback := make([]WordFeedback, 0, max(len(given), len(expected)))
	for i := 0; i < max(len(given), len(expected)); i++ {
		fb := WordFeedback{Index: i}

		switch {
		case i >= len(given):
			fb.Expected = expected[i]
			fb.Status = WordMissing
		case i >= len(expected):
			fb.Given = given[i]
			fb.Status = WordExtra
		default:
			fb.Expected = expected[i]
			fb.Given = given[i]
			fb.Similarity = similarity.Similarity(given[i], expected[i])
			fb.JaroWinkler = matchr.JaroWinkler(given[i], expected[i], false)
			fb.Status = classifyWord(given[i], expected[i], fb.Similarity)
		}

		feedback = append(feedback, fb)
	}

	return feedback
}

func classifyWord(given, expected string, score float64) WordStatus {
	switch {
	case given == expected:
		return WordExact
	case score >= WordThreshold:
		return WordClose
	case soundsAlike(given, expected):
		return WordSoundsAlike
	default:
		return WordWrong
	}
}

// soundsAlike reports whether any Double Metaphone code of a matches any
// code of b.
func soundsAlike(a, b string) bool {
	ap, as := matchr.DoubleMetaphone(a)
	bp, bs := matchr.DoubleMetaphone(b)

	for _, x := range []string{ap, as} {
		if x == "" {
			continue
		}
		if x == bp || x == bs {
			return true
		}
	}
	return false
}
