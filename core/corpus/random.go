package corpus

import (
	"math/rand/v2"

	"github.com/FocuswithJustin/versemem/core/books"
)

// RandomVerse samples a verse: a uniform book among the candidates, a
// uniform chapter in 1..ChapterCount, then a uniform verse of that chapter.
//
// testament restricts the candidate books; "" means any book. When no book
// passes the filter the whole corpus is sampled instead. It returns false
// when the corpus is empty or the drawn chapter has no verses.
func (c *Corpus) RandomVerse(rng *rand.Rand, testament books.Testament) (Verse, bool) {
	candidates := c.candidates(testament)
	if len(candidates) == 0 {
		return Verse{}, false
	}

	b := candidates[rng.IntN(len(candidates))]
	if b.ChapterCount < 1 {
		return Verse{}, false
	}
	chapter := rng.IntN(b.ChapterCount) + 1

	verses := c.chapters[chapterKey{b.Key, chapter}]
	if len(verses) == 0 {
		return Verse{}, false
	}
	return verses[rng.IntN(len(verses))], true
}

func (c *Corpus) candidates(testament books.Testament) []BookRecord {
	if testament == "" {
		return c.books
	}

	tc := c.testamentsOrDefault()
	var filtered []BookRecord
	for _, b := range c.books {
		if tc.Classify(b.Key) == testament {
			filtered = append(filtered, b)
		}
	}
	if len(filtered) == 0 {
		return c.books
	}
	return filtered
}
