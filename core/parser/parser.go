// Package parser classifies lines of plain-text Bible sources.
//
// Source files have no fixed grammar, so a line is tried against an ordered
// list of rules and the first rule that matches wins. Rules are exported so
// callers and tests can inspect them one by one.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedLine is a verse line split into its reference and text.
type ParsedLine struct {
	BookAbbrev string `json:"book_abbrev"`
	Chapter    int    `json:"chapter"`
	Verse      int    `json:"verse"`
	Text       string `json:"text"`
	Rule       string `json:"rule"` // name of the rule that matched
}

// Rule is one classification strategy. Match receives a trimmed, non-empty
// line.
type Rule struct {
	Name  string
	Match func(line string) (ParsedLine, bool)
}

var (
	dottedPattern     = regexp.MustCompile(`^(.+?)\.(\d+):(\d+)\s+(.*)$`)
	letterBookPattern = regexp.MustCompile(`^([^\d]+?)\s+(\d+):(\d+)\s+(.*)$`)
	anyBookPattern    = regexp.MustCompile(`^(.+?)\s+(\d+):(\d+)\s+(.*)$`)
	bareRefPattern    = regexp.MustCompile(`^(\d+):(\d+)$`)
	refPattern        = regexp.MustCompile(`(\d+):(\d+)`)
)

// Rules is the classification cascade in priority order.
var Rules = []Rule{
	{Name: "dotted", Match: matchPattern(dottedPattern)},         // "Gen.1:1 text"
	{Name: "letter-book", Match: matchPattern(letterBookPattern)}, // "Gen 1:1 text"
	{Name: "any-book", Match: matchPattern(anyBookPattern)},       // "1 Cor 13:4 text"
	{Name: "bare-reference", Match: matchBareReference},           // "Gen 1:1"
	{Name: "first-reference", Match: matchFirstReference},         // "Gen1:1text"
}

// ClassifyLine runs the rule cascade over rawLine. It returns false for
// blank lines and for lines no rule accepts; such lines are headings or
// noise, and the caller decides what to do with them.
func ClassifyLine(rawLine string) (ParsedLine, bool) {
	line := strings.TrimSpace(rawLine)
	if line == "" {
		return ParsedLine{}, false
	}

	for _, r := range Rules {
		if p, ok := r.Match(line); ok {
			p.Rule = r.Name
			return p, true
		}
	}

	return ParsedLine{}, false
}

func matchPattern(re *regexp.Regexp) func(string) (ParsedLine, bool) {
	return func(line string) (ParsedLine, bool) {
		m := re.FindStringSubmatch(line)
		if m == nil {
			return ParsedLine{}, false
		}
		return build(m[1], m[2], m[3], m[4])
	}
}

// matchBareReference accepts lines whose last whitespace-separated token is
// exactly "C:V". The verse text is empty.
func matchBareReference(line string) (ParsedLine, bool) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return ParsedLine{}, false
	}

	m := bareRefPattern.FindStringSubmatch(parts[len(parts)-1])
	if m == nil {
		return ParsedLine{}, false
	}

	return build(strings.Join(parts[:len(parts)-1], " "), m[1], m[2], "")
}

// matchFirstReference splits the line around the first "C:V" anywhere in
// it.
func matchFirstReference(line string) (ParsedLine, bool) {
	loc := refPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return ParsedLine{}, false
	}

	return build(line[:loc[0]], line[loc[2]:loc[3]], line[loc[4]:loc[5]], line[loc[1]:])
}

func build(abbrev, chapter, verse, text string) (ParsedLine, bool) {
	c, err := strconv.Atoi(chapter)
	if err != nil {
		return ParsedLine{}, false
	}
	v, err := strconv.Atoi(verse)
	if err != nil {
		return ParsedLine{}, false
	}

	return ParsedLine{
		BookAbbrev: strings.TrimSpace(abbrev),
		Chapter:    c,
		Verse:      v,
		Text:       strings.TrimSpace(text),
	}, true
}
