package matcher

import (
	"math/rand/v2"
	"strings"
)

// DefaultWordsPerLine is the chunk size of line-by-line practice.
const DefaultWordsPerLine = 5

// HiddenWord replaces words that have not been revealed yet.
const HiddenWord = "____"

// SplitLines cuts verse text into consecutive lines of wordsPerLine words
// for line-by-line practice. A non-positive size uses DefaultWordsPerLine.
func SplitLines(text string, wordsPerLine int) []string {
	if wordsPerLine <= 0 {
		wordsPerLine = DefaultWordsPerLine
	}

	words := strings.Fields(text)
	lines := make([]string, 0, (len(words)+wordsPerLine-1)/wordsPerLine)
	for i := 0; i < len(words); i += wordsPerLine {
		end := min(i+wordsPerLine, len(words))
		lines = append(lines, strings.Join(words[i:end], " "))
	}
	return lines
}

// RevealHint picks a uniformly random word index of text that is not yet in
// revealed. It returns -1 once every word is revealed.
func RevealHint(text string, revealed map[int]bool, rng *rand.Rand) int {
	words := strings.Fields(text)

	hidden := make([]int, 0, len(words))
	for i := range words {
		if !revealed[i] {
			hidden = append(hidden, i)
		}
	}
	if len(hidden) == 0 {
		return -1
	}

	return hidden[rng.IntN(len(hidden))]
}

// MaskText renders text with every unrevealed word replaced by HiddenWord.
func MaskText(text string, revealed map[int]bool) string {
	words := strings.Fields(text)
	for i := range words {
		if !revealed[i] {
			words[i] = HiddenWord
		}
	}
	return strings.Join(words, " ")
}
