// Package matcher decides whether a typed recall of a verse, or of its
// reference, is correct enough.
//
// Verse text is judged with CheckMatch: a whole-string similarity pass
// followed by a positional word-alignment pass, so that an answer with one
// badly misspelled word still passes while a generally sloppy one does not.
// References are judged with CheckReferenceGuess, which is strict substring
// containment rather than similarity.
package matcher

import (
	"math"
	"strings"

	"github.com/FocuswithJustin/versemem/core/similarity"
)

// Default thresholds.
const (
	DefaultToleranceLevel = 0.85

	// WordThreshold is the per-word similarity at which an aligned word
	// counts as matching. It is deliberately lower than the overall
	// tolerance.
	WordThreshold = 0.75

	// WordCountSlack is the fraction of the reference word count by which
	// the answer may differ before a word-count note is recorded.
	WordCountSlack = 0.2
)

// ErrWordCountMismatch is the diagnostic note recorded when the answer and
// the reference differ in length by more than WordCountSlack.
const ErrWordCountMismatch = "word count differs significantly from the reference"

// Options holds the resolved tolerance policy for CheckMatch.
type Options struct {
	// ToleranceLevel is the minimum score accepted as a match, in [0,1].
	ToleranceLevel float64 `json:"tolerance_level" mapstructure:"tolerance_level"`

	// AllowCharacterSwaps accepts the answer on whole-string similarity.
	AllowCharacterSwaps bool `json:"allow_character_swaps" mapstructure:"allow_character_swaps"`

	// AllowSimilarChars enables the positional word-alignment pass.
	AllowSimilarChars bool `json:"allow_similar_chars" mapstructure:"allow_similar_chars"`
}

// DefaultOptions returns tolerance 0.85 with both strategies enabled.
func DefaultOptions() Options {
	return Options{
		ToleranceLevel:      DefaultToleranceLevel,
		AllowCharacterSwaps: true,
		AllowSimilarChars:   true,
	}
}

// Option is a functional option applied on top of DefaultOptions.
type Option func(*Options)

// WithTolerance sets the minimum accepted score.
func WithTolerance(level float64) Option {
	return func(o *Options) {
		o.ToleranceLevel = level
	}
}

// WithCharacterSwaps toggles acceptance on whole-string similarity.
func WithCharacterSwaps(allow bool) Option {
	return func(o *Options) {
		o.AllowCharacterSwaps = allow
	}
}

// WithSimilarChars toggles the word-alignment pass.
func WithSimilarChars(allow bool) Option {
	return func(o *Options) {
		o.AllowSimilarChars = allow
	}
}

// WithOptions replaces every field at once, typically from configuration.
func WithOptions(opts Options) Option {
	return func(o *Options) {
		*o = opts
	}
}

// Resolve applies opts on top of DefaultOptions.
func Resolve(opts ...Option) Options {
	resolved := DefaultOptions()
	for _, opt := range opts {
		opt(&resolved)
	}
	return resolved
}

// MatchResult is the verdict for one answer.
type MatchResult struct {
	IsMatch    bool     `json:"is_match"`
	Similarity float64  `json:"similarity"`
	Errors     []string `json:"errors"`
}

// CheckMatch compares a typed answer against the correct verse text.
//
// Both strings are normalized with similarity.NormalizeForComparison first,
// so accents, punctuation and case never affect the verdict. The result is
// always well formed, for any input including empty strings.
func CheckMatch(userAnswer, correctAnswer string, options ...Option) MatchResult {
	opts := Resolve(options...)

	answer := similarity.NormalizeForComparison(userAnswer)
	reference := similarity.NormalizeForComparison(correctAnswer)

	if answer == reference {
		return MatchResult{IsMatch: true, Similarity: 1, Errors: []string{}}
	}

	errs := []string{}

	answerWords := strings.Split(answer, " ")
	referenceWords := strings.Split(reference, " ")

	diff := math.Abs(float64(len(answerWords) - len(referenceWords)))
	if diff > float64(len(referenceWords))*WordCountSlack {
		errs = append(errs, ErrWordCountMismatch)
	}

	whole := similarity.Similarity(answer, reference)

	if opts.AllowCharacterSwaps && whole >= opts.ToleranceLevel {
		return MatchResult{IsMatch: true, Similarity: whole, Errors: errs}
	}

	if opts.AllowSimilarChars {
		ratio := wordMatchRatio(answerWords, referenceWords)
		if ratio >= opts.ToleranceLevel {
			return MatchResult{IsMatch: true, Similarity: ratio, Errors: errs}
		}
	}

	return MatchResult{IsMatch: whole >= opts.ToleranceLevel, Similarity: whole, Errors: errs}
}

// wordMatchRatio aligns words by position and returns the fraction of the
// reference words that have a counterpart at or above WordThreshold.
func wordMatchRatio(answerWords, referenceWords []string) float64 {
	if len(referenceWords) == 0 {
		return 0
	}

	matching := 0
	for i := 0; i < min(len(answerWords), len(referenceWords)); i++ {
		if similarity.Similarity(answerWords[i], referenceWords[i]) >= WordThreshold {
			matching++
		}
	}

	return float64(matching) / float64(len(referenceWords))
}

// CheckStrict is the non-tolerant comparison: punctuation is removed,
// whitespace collapsed and case folded, but accents must be typed exactly.
func CheckStrict(userAnswer, correctAnswer string) bool {
	return stripPunctuation(userAnswer) == stripPunctuation(correctAnswer)
}

func stripPunctuation(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`.,;:!?"'()[]{}`, r) {
			return -1
		}
		return r
	}, text)
	return strings.ToLower(strings.Join(strings.Fields(cleaned), " "))
}
