package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want ParsedLine
	}{
		{
			name: "dotted abbreviation",
			line: "Gen.1:1 In the beginning God created the heaven and the earth.",
			want: ParsedLine{BookAbbrev: "Gen", Chapter: 1, Verse: 1, Text: "In the beginning God created the heaven and the earth.", Rule: "dotted"},
		},
		{
			name: "numbered book",
			line: "1 Cor 13:4 Charity suffereth long...",
			want: ParsedLine{BookAbbrev: "1 Cor", Chapter: 13, Verse: 4, Text: "Charity suffereth long...", Rule: "any-book"},
		},
		{
			name: "letter book",
			line: "Genèse 1:2 La terre était informe et vide",
			want: ParsedLine{BookAbbrev: "Genèse", Chapter: 1, Verse: 2, Text: "La terre était informe et vide", Rule: "letter-book"},
		},
		{
			name: "surrounding whitespace",
			line: "   Ps 23:1   The LORD is my shepherd  ",
			want: ParsedLine{BookAbbrev: "Ps", Chapter: 23, Verse: 1, Text: "The LORD is my shepherd", Rule: "letter-book"},
		},
		{
			name: "bare reference",
			line: "Song of Solomon 2:1",
			want: ParsedLine{BookAbbrev: "Song of Solomon", Chapter: 2, Verse: 1, Text: "", Rule: "bare-reference"},
		},
		{
			name: "reference glued to text",
			line: "Gen1:1In the beginning",
			want: ParsedLine{BookAbbrev: "Gen", Chapter: 1, Verse: 1, Text: "In the beginning", Rule: "first-reference"},
		},
		{
			name: "verse suffix",
			line: "Gen 1:1a In the beginning",
			want: ParsedLine{BookAbbrev: "Gen", Chapter: 1, Verse: 1, Text: "a In the beginning", Rule: "first-reference"},
		},
		{
			name: "reference only",
			line: "3:16",
			want: ParsedLine{BookAbbrev: "", Chapter: 3, Verse: 16, Text: "", Rule: "first-reference"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyLine(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyLine_NonVerse(t *testing.T) {
	for _, line := range []string{
		"",
		"   ",
		"The First Book of Moses, called Genesis",
		"Chapter 1",
		"Gen 99999999999999999999:1 overflow",
	} {
		_, ok := ClassifyLine(line)
		assert.False(t, ok, "line %q", line)
	}
}

func TestRules_Order(t *testing.T) {
	names := make([]string, 0, len(Rules))
	for _, r := range Rules {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"dotted", "letter-book", "any-book", "bare-reference", "first-reference"}, names)
}

func TestRules_Individually(t *testing.T) {
	rule := func(name string) Rule {
		for _, r := range Rules {
			if r.Name == name {
				return r
			}
		}
		t.Fatalf("no rule %q", name)
		return Rule{}
	}

	t.Run("letter-book rejects leading digit", func(t *testing.T) {
		_, ok := rule("letter-book").Match("1 Cor 13:4 Charity")
		assert.False(t, ok)

		p, ok := rule("any-book").Match("1 Cor 13:4 Charity")
		require.True(t, ok)
		assert.Equal(t, "1 Cor", p.BookAbbrev)
	})

	t.Run("dotted needs text", func(t *testing.T) {
		_, ok := rule("dotted").Match("Gen.1:1")
		assert.False(t, ok)
	})

	t.Run("bare-reference needs a book token", func(t *testing.T) {
		_, ok := rule("bare-reference").Match("1:1")
		assert.False(t, ok)

		p, ok := rule("bare-reference").Match("1  Cor   13:4")
		require.True(t, ok)
		assert.Equal(t, ParsedLine{BookAbbrev: "1 Cor", Chapter: 13, Verse: 4}, p)
	})

	t.Run("first-reference takes the leftmost reference", func(t *testing.T) {
		p, ok := rule("first-reference").Match("Jn3:16 cf. 1Jn4:8")
		require.True(t, ok)
		assert.Equal(t, "Jn", p.BookAbbrev)
		assert.Equal(t, 3, p.Chapter)
		assert.Equal(t, 16, p.Verse)
		assert.Equal(t, "cf. 1Jn4:8", p.Text)
	})
}
