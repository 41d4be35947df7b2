// Package reference parses human-typed verse references such as
// "Gen 1:1", "1 Cor 13:4-7", "Genèse 1" or "Gen.1.1" and resolves them
// against a corpus.
package reference

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/versemem/core/books"
	"github.com/FocuswithJustin/versemem/core/corpus"
	"github.com/FocuswithJustin/versemem/core/errors"
)

// Query is a parsed reference. Chapter and Verse are 0 when absent.
type Query struct {
	Book     string `json:"book"`
	Chapter  int    `json:"chapter,omitempty"`
	Verse    int    `json:"verse,omitempty"`
	VerseEnd int    `json:"verse_end,omitempty"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type queryGrammar struct {
	Number  *int         `( @Int "."? )?`
	Words   []string     `@Word+`
	Chapter *chapterPart `( "."? @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type chapterPart struct {
	Chapter int        `@Int`
	Verse   *versePart `( (":" | ".") @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type versePart struct {
	Verse int  `@Int`
	End   *int `( "-" @Int )?`
}

var queryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Word", Pattern: `[\p{L}][\p{L}\p{M}'’]*`},
	{Name: "Punct", Pattern: `[.:\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var queryParser = participle.MustBuild[queryGrammar](
	participle.Lexer(queryLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a reference query. Supported forms:
//   - "Ps" (book only)
//   - "Ps 23" (chapter)
//   - "Ps 23:1" or "Ps.23.1" (verse)
//   - "Ps 23:1-4" (verse range)
//   - "1 Cor 13:4", "1.Cor 13:4", "Song of Solomon 2:1"
func Parse(s string) (*Query, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.NewValidation("reference", "empty reference")
	}

	parsed, err := queryParser.ParseString("", s)
	if err != nil {
		return nil, &errors.ParseError{Format: "reference", Input: s, Message: err.Error(), Err: err}
	}

	q := &Query{Book: strings.Join(parsed.Words, " ")}
	if parsed.Number != nil {
		q.Book = strconv.Itoa(*parsed.Number) + " " + q.Book
	}

	if parsed.Chapter != nil {
		q.Chapter = parsed.Chapter.Chapter
		if v := parsed.Chapter.Verse; v != nil {
			q.Verse = v.Verse
			if v.End != nil {
				q.VerseEnd = *v.End
			}
		}
	}

	if q.VerseEnd != 0 && q.VerseEnd < q.Verse {
		return nil, errors.NewParse("reference", s, "range ends before it starts")
	}

	return q, nil
}

// String formats the query as "Book C:V-W".
func (q *Query) String() string {
	var sb strings.Builder
	sb.WriteString(q.Book)
	if q.Chapter > 0 {
		sb.WriteString(" ")
		sb.WriteString(strconv.Itoa(q.Chapter))
		if q.Verse > 0 {
			sb.WriteString(":")
			sb.WriteString(strconv.Itoa(q.Verse))
			if q.IsRange() {
				sb.WriteString("-")
				sb.WriteString(strconv.Itoa(q.VerseEnd))
			}
		}
	}
	return sb.String()
}

// IsRange reports whether the query spans more than one verse.
func (q *Query) IsRange() bool {
	return q.VerseEnd > q.Verse
}

// ResolveBook finds the corpus book the query names. The book is matched
// by derived key first, then by canonical code, so "Genesis 1:1" finds a
// source that abbreviates the book as "Gen".
func (q *Query) ResolveBook(c *corpus.Corpus) (string, bool) {
	key := books.DeriveBookKey(q.Book)
	if _, ok := c.Book(key); ok {
		return key, true
	}

	code, ok := books.CanonicalCode(key)
	if !ok {
		return "", false
	}
	for _, k := range c.BookKeys() {
		if kc, ok := books.CanonicalCode(k); ok && kc == code {
			return k, true
		}
	}
	return "", false
}

// Select returns the verses the query names. A book-only query selects
// chapter 1 and a chapter query selects the whole chapter. An unknown book
// is a NotFound error; a chapter or verse range with no verses yields an
// empty result.
func (q *Query) Select(c *corpus.Corpus) ([]corpus.Verse, error) {
	key, ok := q.ResolveBook(c)
	if !ok {
		return nil, errors.NewNotFound("book", q.Book)
	}

	chapter := q.Chapter
	if chapter == 0 {
		chapter = 1
	}
	verses := c.Verses(key, chapter)
	if q.Verse == 0 {
		return verses, nil
	}

	end := q.Verse
	if q.IsRange() {
		end = q.VerseEnd
	}

	var out []corpus.Verse
	for _, v := range verses {
		if v.Verse >= q.Verse && v.Verse <= end {
			out = append(out, v)
		}
	}
	return out, nil
}
