// Package corpus builds and queries the parsed form of one source text.
//
// Build scans the raw text line by line, classifies each line, and groups
// verse records by book and chapter. A Corpus is immutable once built and
// safe for concurrent readers.
package corpus

import (
	"github.com/FocuswithJustin/versemem/core/books"
	"github.com/FocuswithJustin/versemem/core/errors"
)

// BookRecord describes one book as it appears in a source.
type BookRecord struct {
	Key          string `json:"book"`
	Abbrev       string `json:"abbrev"`    // abbreviation as typed on the book's first verse line
	Name         string `json:"book_name"` // title line before 1:1, else Abbrev
	ChapterCount int    `json:"chapters"`
}

// Verse is a single verse record.
type Verse struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
	Text    string `json:"text"`
}

type chapterKey struct {
	book    string
	chapter int
}

// Corpus is the parsed form of one source. The zero value is an empty
// corpus.
type Corpus struct {
	sourceID   string
	books      []BookRecord
	byKey      map[string]int
	chapters   map[chapterKey][]Verse
	verseCount int
	textBytes  int64

	catalog    *books.Catalog
	testaments *books.TestamentClassifier
}

// SourceID returns the identifier the corpus was built from.
func (c *Corpus) SourceID() string {
	return c.sourceID
}

// Empty reports whether the source produced no books. A fetched source in
// an unrecognized format builds successfully but is empty.
func (c *Corpus) Empty() bool {
	return len(c.books) == 0
}

// VerseCount returns the number of verse records.
func (c *Corpus) VerseCount() int {
	return c.verseCount
}

// EstimateBytes approximates the memory held by verse text.
func (c *Corpus) EstimateBytes() int64 {
	return c.textBytes
}

// Books returns the book records in first-encountered order.
func (c *Corpus) Books() []BookRecord {
	out := make([]BookRecord, len(c.books))
	copy(out, c.books)
	return out
}

// BookKeys returns the book keys in first-encountered order.
func (c *Corpus) BookKeys() []string {
	keys := make([]string, len(c.books))
	for i, b := range c.books {
		keys[i] = b.Key
	}
	return keys
}

// Book returns the record for bookKey.
func (c *Corpus) Book(bookKey string) (BookRecord, bool) {
	i, ok := c.byKey[bookKey]
	if !ok {
		return BookRecord{}, false
	}
	return c.books[i], true
}

// ListChapters returns 1..ChapterCount for bookKey. The range is dense even
// when the source skips chapters. An unknown book is an error.
func (c *Corpus) ListChapters(bookKey string) ([]int, error) {
	b, ok := c.Book(bookKey)
	if !ok {
		return nil, errors.NewNotFound("book", bookKey)
	}

	chapters := make([]int, b.ChapterCount)
	for i := range chapters {
		chapters[i] = i + 1
	}
	return chapters, nil
}

// Verses returns the verses of one chapter in source order, or nil when the
// chapter has none.
func (c *Corpus) Verses(bookKey string, chapter int) []Verse {
	vs := c.chapters[chapterKey{bookKey, chapter}]
	if len(vs) == 0 {
		return nil
	}
	out := make([]Verse, len(vs))
	copy(out, vs)
	return out
}

// GetVerse looks up a verse by number. A miss is not an error.
func (c *Corpus) GetVerse(bookKey string, chapter, verse int) (Verse, bool) {
	for _, v := range c.chapters[chapterKey{bookKey, chapter}] {
		if v.Verse == verse {
			return v, true
		}
	}
	return Verse{}, false
}

// BookName returns the source's own name for bookKey: the title line that
// introduced the book, or its abbreviation.
func (c *Corpus) BookName(bookKey string) (string, bool) {
	b, ok := c.Book(bookKey)
	if !ok {
		return "", false
	}
	return b.Name, true
}

// DisplayName returns the name of bookKey in lang. Books with a canonical
// code get the catalog name; others fall back to BookName. Unknown keys
// return the key itself.
func (c *Corpus) DisplayName(bookKey string, lang books.Language) string {
	b, ok := c.Book(bookKey)
	if !ok {
		return bookKey
	}
	return c.catalogOrDefault().ResolveCanonicalName(bookKey, b.Name, lang)
}

// Testament classifies bookKey with the corpus's testament heuristic.
func (c *Corpus) Testament(bookKey string) books.Testament {
	return c.testamentsOrDefault().Classify(bookKey)
}

func (c *Corpus) catalogOrDefault() *books.Catalog {
	if c.catalog == nil {
		return books.DefaultCatalog()
	}
	return c.catalog
}

func (c *Corpus) testamentsOrDefault() *books.TestamentClassifier {
	if c.testaments == nil {
		return books.DefaultTestamentClassifier()
	}
	return c.testaments
}
