package corpus

import (
	"strings"

	"github.com/FocuswithJustin/versemem/core/books"
	"github.com/FocuswithJustin/versemem/core/parser"
)

// Sample sizes kept in BuildStats.
const (
	MaxMatchedSamples = 3
	MaxSkippedSamples = 10
	maxSampleLength   = 150
)

// Book used for verse lines without an abbreviation when no title line or
// earlier book names them.
const (
	UntitledBookKey  = "untitled"
	UntitledBookName = "Untitled"
)

// BuildStats summarizes a build for diagnostics.
type BuildStats struct {
	Lines          int                 `json:"lines"` // non-blank lines scanned
	Matched        int                 `json:"matched"`
	Skipped        int                 `json:"skipped"`
	Books          int                 `json:"books"`
	Verses         int                 `json:"verses"`
	MatchedSamples []parser.ParsedLine `json:"matched_samples,omitempty"`
	SkippedSamples []string            `json:"skipped_samples,omitempty"`
}

// Option configures Build.
type Option func(*Corpus)

// WithCatalog sets the catalog used for display names.
func WithCatalog(cat *books.Catalog) Option {
	return func(c *Corpus) {
		c.catalog = cat
	}
}

// WithTestaments sets the testament classifier used by RandomVerse.
func WithTestaments(tc *books.TestamentClassifier) Option {
	return func(c *Corpus) {
		c.testaments = tc
	}
}

// Build parses rawText into a Corpus. It never fails: lines that are not
// verses are skipped, and a source with no verse lines yields an empty
// corpus.
//
// A non-verse line immediately followed by the 1:1 verse of a book not yet
// seen becomes that book's name. A book's chapter count is the highest
// chapter number seen for it anywhere in the source.
//
// A verse line whose abbreviation reduces to an empty key ("1:1 text")
// is filed under the key of the title line just before it, else under the
// current book, else under UntitledBookKey.
func Build(sourceID, rawText string, opts ...Option) (*Corpus, BuildStats) {
	c := &Corpus{
		sourceID: sourceID,
		byKey:    make(map[string]int),
		chapters: make(map[chapterKey][]Verse),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.testaments == nil {
		c.testaments = books.DefaultTestamentClassifier()
	}

	var (
		stats       BuildStats
		currentBook string
		lastHeading string
	)

	skip := func(line string) {
		stats.Skipped++
		if len(stats.SkippedSamples) < MaxSkippedSamples {
			stats.SkippedSamples = append(stats.SkippedSamples, truncate(line, maxSampleLength))
		}
	}

	for _, raw := range strings.Split(rawText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		stats.Lines++

		p, ok := parser.ClassifyLine(line)
		if !ok {
			skip(line)
			lastHeading = line
			continue
		}

		key := books.DeriveBookKey(p.BookAbbrev)
		if key == "" {
			key, p.BookAbbrev = bareBook(lastHeading, currentBook)
		}

		stats.Matched++
		if len(stats.MatchedSamples) < MaxMatchedSamples {
			stats.MatchedSamples = append(stats.MatchedSamples, p)
		}

		if key != currentBook {
			currentBook = key
			if _, seen := c.byKey[key]; !seen {
				name := p.BookAbbrev
				if p.Chapter == 1 && p.Verse == 1 && lastHeading != "" {
					name = lastHeading
				}
				c.byKey[key] = len(c.books)
				c.books = append(c.books, BookRecord{Key: key, Abbrev: p.BookAbbrev, Name: name})
			}
		}
		lastHeading = ""

		rec := &c.books[c.byKey[key]]
		if p.Chapter > rec.ChapterCount {
			rec.ChapterCount = p.Chapter
		}

		ck := chapterKey{key, p.Chapter}
		c.chapters[ck] = append(c.chapters[ck], Verse{
			Book:    key,
			Chapter: p.Chapter,
			Verse:   p.Verse,
			Text:    p.Text,
		})
		c.verseCount++
		c.textBytes += int64(len(p.Text))
	}

	stats.Books = len(c.books)
	stats.Verses = c.verseCount
	return c, stats
}

// bareBook picks the key and abbreviation for a verse line that names no
// book.
func bareBook(heading, current string) (key, abbrev string) {
	if k := books.DeriveBookKey(heading); k != "" {
		return k, heading
	}
	if current != "" {
		return current, ""
	}
	return UntitledBookKey, UntitledBookName
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
