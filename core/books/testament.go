package books

import "strings"

// DefaultNewTestamentStems are the key substrings that mark a book as New
// Testament, grouped by the language that contributed them. A stem listed
// under one language still matches keys from any source.
var DefaultNewTestamentStems = map[Language][]string{
	English: {
		"matt", "mark", "luke", "john", "act", "rom", "cor", "corinth",
		"gal", "galat", "eph", "ephes", "phil", "philip", "col", "coloss",
		"thess", "tim", "timoth", "tit", "philem", "heb", "hebr",
		"jam", "james", "pet", "jude", "rev", "revel", "apoc", "apocal",
	},
	French: {
		"matthieu", "marc", "luc", "jean", "actes", "romains", "tite",
		"hebreux", "jacq", "pier", "apocalypse",
	},
	Spanish: {
		"mateo", "marcos", "lucas", "juan", "hechos", "romanos",
		"corintios", "filipenses", "tesal", "tito", "santiago", "pedro",
		"judas",
	},
	Italian: {
		"matteo", "marco", "luca", "giovanni", "atti", "romani", "corinzi",
		"efes", "filippesi", "tessalon", "timoteo", "filem", "ebrei",
		"giacomo", "pietro", "giuda",
	},
	German: {
		"matth", "joh",
	},
}

// TestamentClassifier decides testament membership from a book key alone.
// It is a substring heuristic, not a canon lookup: a key is New Testament
// when it contains any stem.
type TestamentClassifier struct {
	stems []string
}

// NewTestamentClassifier builds a classifier from the given stems. Stems are
// lowercased and blanks are ignored.
func NewTestamentClassifier(stems ...string) *TestamentClassifier {
	c := &TestamentClassifier{}
	seen := make(map[string]bool, len(stems))
	for _, s := range stems {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		c.stems = append(c.stems, s)
	}
	return c
}

// DefaultTestamentClassifier returns a classifier over every language in
// DefaultNewTestamentStems plus any extra stems.
func DefaultTestamentClassifier(extra ...string) *TestamentClassifier {
	var stems []string
	for _, lang := range Languages {
		stems = append(stems, DefaultNewTestamentStems[lang]...)
	}
	return NewTestamentClassifier(append(stems, extra...)...)
}

// Stems returns the classifier's stems.
func (c *TestamentClassifier) Stems() []string {
	out := make([]string, len(c.stems))
	copy(out, c.stems)
	return out
}

// IsNewTestament reports whether bookKey contains any stem.
func (c *TestamentClassifier) IsNewTestament(bookKey string) bool {
	key := strings.ToLower(bookKey)
	for _, s := range c.stems {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// Classify returns the testament of bookKey.
func (c *TestamentClassifier) Classify(bookKey string) Testament {
	if c.IsNewTestament(bookKey) {
		return NewTestament
	}
	return OldTestament
}

// ParseTestament maps "old"/"new" (any case) to a Testament.
func ParseTestament(s string) (Testament, bool) {
	switch Testament(strings.ToLower(strings.TrimSpace(s))) {
	case OldTestament:
		return OldTestament, true
	case NewTestament:
		return NewTestament, true
	}
	return "", false
}
