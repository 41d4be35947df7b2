package matcher

import (
	"strconv"
	"strings"
)

// ReferenceTarget is the verse whose reference the learner has to name.
type ReferenceTarget struct {
	BookKey  string // internal book key, e.g. "gen" or "1-cor"
	BookName string // canonical display name in the learner's language
	Chapter  int
	Verse    int
}

// CheckReferenceGuess judges a "guess the reference" answer. The answer is
// only lowercased and trimmed. It must contain the book key or the book name,
// then the chapter number, then the verse number, each as a plain substring.
//
// The chapter and the verse must be found at distinct occurrences: the
// chapter's first occurrence is consumed before the verse is looked up, so
// "genesis 2 1" does not satisfy Genesis 1:1 while "genesis 1 1" does. Digits
// that belong to unrelated numbers still count; "gen 12 1" is accepted for
// Genesis 1:1.
func CheckReferenceGuess(answer string, target ReferenceTarget) bool {
	normalized := strings.ToLower(strings.TrimSpace(answer))

	if !containsBook(normalized, target) {
		return false
	}

	chapter := strconv.Itoa(target.Chapter)
	idx := strings.Index(normalized, chapter)
	if idx < 0 {
		return false
	}
	rest := normalized[:idx] + " " + normalized[idx+len(chapter):]

	return strings.Contains(rest, strconv.Itoa(target.Verse))
}

func containsBook(answer string, target ReferenceTarget) bool {
	for _, candidate := range []string{target.BookKey, target.BookName} {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate != "" && strings.Contains(answer, candidate) {
			return true
		}
	}
	return false
}
