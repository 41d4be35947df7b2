package practice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/FocuswithJustin/versemem/core/books"
	"github.com/FocuswithJustin/versemem/core/corpus"
	verrors "github.com/FocuswithJustin/versemem/core/errors"
	"github.com/FocuswithJustin/versemem/core/matcher"
	"github.com/FocuswithJustin/versemem/core/progress"
)

// Mode selects what the learner types.
type Mode string

const (
	ModeVerse     Mode = "verse"     // the whole verse text
	ModeLines     Mode = "lines"     // the verse a few words at a time
	ModeReference Mode = "reference" // where the shown verse is found
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeVerse, ModeLines, ModeReference:
		return m, nil
	}
	return "", verrors.NewValidation("mode", fmt.Sprintf("unknown practice mode %q", s))
}

// Checker is the part of the service a session needs.
type Checker interface {
	CheckDyslexiaFriendlyMatch(ctx context.Context, userAnswer, correctAnswer string, opts ...matcher.Option) matcher.MatchResult
	CheckReference(ctx context.Context, sourceID, answer string, v corpus.Verse, lang books.Language) (bool, error)
	GetBookName(ctx context.Context, sourceID, bookKey string, lang books.Language) (string, error)
	RevealHint(text string, revealed map[int]bool) int
}

// Session runs practice rounds over a line-oriented terminal.
type Session struct {
	checker      Checker
	tracker      *Tracker
	sourceID     string
	lang         books.Language
	wordsPerLine int
	lineOpts     []matcher.Option

	in  *bufio.Scanner
	out io.Writer
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTracker records every round's outcome.
func WithTracker(t *Tracker) SessionOption {
	return func(s *Session) { s.tracker = t }
}

// WithLanguage sets the book-name language.
func WithLanguage(lang books.Language) SessionOption {
	return func(s *Session) { s.lang = lang }
}

// WithLines sets the line size and the matcher options used per line.
func WithLines(wordsPerLine int, opts ...matcher.Option) SessionOption {
	return func(s *Session) {
		s.wordsPerLine = wordsPerLine
		s.lineOpts = opts
	}
}

// NewSession creates a session reading answers from in and writing
// prompts to out.
func NewSession(checker Checker, sourceID string, in io.Reader, out io.Writer, opts ...SessionOption) *Session {
	s := &Session{
		checker:      checker,
		sourceID:     sourceID,
		wordsPerLine: matcher.DefaultWordsPerLine,
		in:           bufio.NewScanner(in),
		out:          out,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is the outcome of one round.
type Result struct {
	Correct  bool
	Progress *progress.Progress // nil without a tracker
}

// Run plays one round on v. It returns io.EOF when input ends before the
// round is decided.
func (s *Session) Run(ctx context.Context, v corpus.Verse, mode Mode) (Result, error) {
	name, err := s.checker.GetBookName(ctx, s.sourceID, v.Book, s.lang)
	if err != nil {
		return Result{}, err
	}
	ref := fmt.Sprintf("%s %d:%d", name, v.Chapter, v.Verse)

	var correct bool
	switch mode {
	case ModeLines:
		correct, err = s.lines(ctx, ref, v.Text)
	case ModeReference:
		correct, err = s.reference(ctx, v)
	default:
		correct, err = s.verse(ctx, ref, v.Text)
	}
	if err != nil {
		return Result{}, err
	}

	res := Result{Correct: correct}
	if s.tracker != nil {
		p, err := s.tracker.Record(ctx, s.sourceID, progress.Ref{Book: v.Book, Chapter: v.Chapter, Verse: v.Verse}, correct)
		if err != nil {
			return Result{}, err
		}
		res.Progress = &p
		fmt.Fprintf(s.out, "Mastery %d/%d (%s)\n", p.MasteryLevel, progress.MaxMastery, p.Status())
	}
	return res, nil
}

// verse asks for the whole text. "?" reveals one more word; an empty
// answer gives up.
func (s *Session) verse(ctx context.Context, ref, text string) (bool, error) {
	revealed := make(map[int]bool)
	fmt.Fprintf(s.out, "%s\n%s\n", ref, matcher.MaskText(text, revealed))

	for {
		answer, err := s.prompt("> ")
		if err != nil {
			return false, err
		}

		switch answer {
		case "":
			fmt.Fprintf(s.out, "Answer: %s\n", text)
			return false, nil
		case "?":
			idx := s.checker.RevealHint(text, revealed)
			if idx < 0 {
				fmt.Fprintln(s.out, "Every word is already shown.")
				continue
			}
			revealed[idx] = true
			fmt.Fprintln(s.out, matcher.MaskText(text, revealed))
			continue
		}

		res := s.checker.CheckDyslexiaFriendlyMatch(ctx, answer, text)
		if res.IsMatch {
			fmt.Fprintf(s.out, "Correct (%.0f%%)\n", res.Similarity*100)
			return true, nil
		}
		fmt.Fprintf(s.out, "Not quite (%.0f%%)\n", res.Similarity*100)
		for _, fb := range matcher.Diagnose(answer, text) {
			if fb.Status != matcher.WordExact {
				fmt.Fprintf(s.out, "  word %d: %s %q -> %q\n", fb.Index+1, fb.Status, fb.Given, fb.Expected)
			}
		}
	}
}

// lines asks for the verse one line at a time. A wrong line is shown and
// the round continues; the round is correct only when every line was.
func (s *Session) lines(ctx context.Context, ref, text string) (bool, error) {
	fmt.Fprintln(s.out, ref)
	all := true
	for i, line := range matcher.SplitLines(text, s.wordsPerLine) {
		answer, err := s.prompt(fmt.Sprintf("line %d> ", i+1))
		if err != nil {
			return false, err
		}
		res := s.checker.CheckDyslexiaFriendlyMatch(ctx, answer, line, s.lineOpts...)
		if res.IsMatch {
			fmt.Fprintln(s.out, "ok")
			continue
		}
		all = false
		fmt.Fprintf(s.out, "expected: %s\n", line)
	}
	return all, nil
}

func (s *Session) reference(ctx context.Context, v corpus.Verse) (bool, error) {
	fmt.Fprintf(s.out, "%s\nWhere is this verse?\n", v.Text)
	answer, err := s.prompt("> ")
	if err != nil {
		return false, err
	}

	ok, err := s.checker.CheckReference(ctx, s.sourceID, answer, v, s.lang)
	if err != nil {
		return false, err
	}
	if ok {
		fmt.Fprintln(s.out, "Correct")
		return true, nil
	}
	name, err := s.checker.GetBookName(ctx, s.sourceID, v.Book, s.lang)
	if err != nil {
		return false, err
	}
	fmt.Fprintf(s.out, "It was %s %d:%d\n", name, v.Chapter, v.Verse)
	return false, nil
}

func (s *Session) prompt(p string) (string, error) {
	fmt.Fprint(s.out, p)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}
