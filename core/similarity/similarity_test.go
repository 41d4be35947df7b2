package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"beginning", "begining", 1},
		{"gen", "gen", 0},
		{"Genèse", "Genese", 1},
		{"ab", "ba", 2},
	}

	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, EditDistance(tt.a, tt.b))
			assert.Equal(t, tt.want, EditDistance(tt.b, tt.a))
		})
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"both empty", "", "", 1},
		{"whitespace only", "   ", "", 1},
		{"case and padding", "  In The Beginning ", "in the beginning", 1},
		{"one edit in ten", "abcdefghij", "abcdefghix", 0.9},
		{"completely different", "abc", "xyz", 0},
		{"empty against word", "", "word", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilaritySymmetricAndReflexive(t *testing.T) {
	samples := []string{
		"",
		"a",
		"In the beginning",
		"in the begining",
		"Au commencement, Dieu créa les cieux et la terre.",
		"Ἐν ἀρχῇ ἦν ὁ λόγος",
		"בְּרֵאשִׁית",
	}

	for _, a := range samples {
		assert.Equal(t, 1.0, Similarity(a, a), "reflexive for %q", a)
		for _, b := range samples {
			assert.Equal(t, Similarity(a, b), Similarity(b, a), "symmetric for %q / %q", a, b)
			s := Similarity(a, b)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestNormalizeForComparison(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"punctuation and case", "In the beginning, God created the heaven and the earth.", "in the beginning god created the heaven and the earth"},
		{"french accents", "Au commencement, Dieu créa les cieux et la terre.", "au commencement dieu crea les cieux et la terre"},
		{"german umlaut", "Im Anfang schuf Gott Himmel und Erde; über", "im anfang schuf gott himmel und erde uber"},
		{"brackets and quotes", `"Jesus wept" (John [11] {35})!?`, "jesus wept john 11 35"},
		{"whitespace runs", "  a \t b\n\nc  ", "a b c"},
		{"apostrophe", "l'Éternel", "leternel"},
		{"empty", "", ""},
		{"only punctuation", ".,;:!?", ""},
		{"hyphen kept", "re-read", "re-read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeForComparison(tt.in))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	in := "Ô Éternel!  Écoute ma prière; (Psaume 102:1)"
	once := NormalizeForComparison(in)
	assert.Equal(t, once, NormalizeForComparison(once))
}
