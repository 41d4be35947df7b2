package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/FocuswithJustin/versemem/core/corpus"
	verrors "github.com/FocuswithJustin/versemem/core/errors"
	"github.com/FocuswithJustin/versemem/core/matcher"
	"github.com/FocuswithJustin/versemem/core/progress"
	"github.com/FocuswithJustin/versemem/internal/practice"
)

// CheckCmd checks a typed answer against a verse.
type CheckCmd struct {
	Answer    string  `arg:"" help:"The typed answer"`
	Text      string  `help:"Correct verse text" xor:"target" required:""`
	At        string  `help:"Reference of the correct verse, e.g. 'John 3:16'" xor:"target" required:""`
	Tolerance float64 `help:"Similarity threshold in (0, 1] (default from config)"`
	NoSwaps   bool    `name:"no-swaps" help:"Judge on word matches only"`
	NoSimilar bool    `name:"no-similar" help:"Disable the per-word match ratio"`
	Strict    bool    `help:"Require an exact match apart from case, spacing and punctuation"`
	Diagnose  bool    `help:"Show per-word feedback"`
}

func (c *CheckCmd) Run(rt *Runtime) error {
	correct := c.Text
	if c.At != "" {
		v, err := lookupOne(rt, c.At)
		if err != nil {
			return err
		}
		correct = v.Text
	}

	if c.Strict {
		ok := matcher.CheckStrict(c.Answer, correct)
		fmt.Fprintf(rt.out, "match: %t\n", ok)
		return nil
	}

	svc, err := rt.Service()
	if err != nil {
		return err
	}

	var opts []matcher.Option
	if c.Tolerance != 0 {
		if c.Tolerance < 0 || c.Tolerance > 1 {
			return verrors.NewValidation("tolerance", "must be in (0, 1]")
		}
		opts = append(opts, matcher.WithTolerance(c.Tolerance))
	}
	if c.NoSwaps {
		opts = append(opts, matcher.WithCharacterSwaps(false))
	}
	if c.NoSimilar {
		opts = append(opts, matcher.WithSimilarChars(false))
	}

	res := svc.CheckDyslexiaFriendlyMatch(rt.ctx, c.Answer, correct, opts...)
	fmt.Fprintf(rt.out, "match: %t\nsimilarity: %.2f\n", res.IsMatch, res.Similarity)
	for _, e := range res.Errors {
		fmt.Fprintf(rt.out, "note: %s\n", e)
	}

	if c.Diagnose {
		tw := tabwriter.NewWriter(rt.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tEXPECTED\tGIVEN\tSTATUS\tSCORE")
		for _, fb := range matcher.Diagnose(c.Answer, correct) {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\n", fb.Index+1, fb.Expected, fb.Given, fb.Status, fb.Similarity)
		}
		return tw.Flush()
	}
	return nil
}

// GuessCmd checks a guess of where a verse is found.
type GuessCmd struct {
	Answer string `arg:"" help:"The guess, e.g. 'Jean 3 16'"`
	At     string `help:"The verse being guessed, e.g. 'John 3:16'" required:""`
}

func (c *GuessCmd) Run(rt *Runtime) error {
	v, err := lookupOne(rt, c.At)
	if err != nil {
		return err
	}
	svc, err := rt.Service()
	if err != nil {
		return err
	}
	lang, err := rt.Language()
	if err != nil {
		return err
	}

	ok, err := svc.CheckReference(rt.ctx, rt.Source, c.Answer, v, lang)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "correct: %t\n", ok)
	return nil
}

// PracticeCmd runs interactive practice rounds on stdin.
type PracticeCmd struct {
	Mode      string `help:"What to type: the verse, the verse line by line, or its reference" enum:"verse,lines,reference" default:"verse"`
	At        string `help:"Practice this reference instead of random verses"`
	Testament string `help:"Restrict random verses to a testament" enum:"old,new,all" default:"all"`
	Rounds    int    `help:"Number of rounds" default:"1"`
}

func (c *PracticeCmd) Run(rt *Runtime) error {
	mode, err := practice.ParseMode(c.Mode)
	if err != nil {
		return err
	}
	cfg, err := rt.Config()
	if err != nil {
		return err
	}
	svc, err := rt.Service()
	if err != nil {
		return err
	}
	tracker, err := rt.Tracker()
	if err != nil {
		return err
	}
	lang, err := rt.Language()
	if err != nil {
		return err
	}

	var fixed []corpus.Verse
	if c.At != "" {
		_, fixed, err = svc.Lookup(rt.ctx, rt.Source, c.At)
		if err != nil {
			return err
		}
		if len(fixed) == 0 {
			return verrors.NewNotFound("reference", c.At)
		}
	}

	session := practice.NewSession(svc, rt.Source, rt.in, rt.out,
		practice.WithTracker(tracker),
		practice.WithLanguage(lang),
		practice.WithLines(cfg.Matching.WordsPerLine, matcher.WithTolerance(cfg.Matching.LineTolerance)))

	played, correct := 0, 0
	for i := 0; i < max(c.Rounds, 1); i++ {
		var v corpus.Verse
		if len(fixed) > 0 {
			v = fixed[i%len(fixed)]
		} else {
			var ok bool
			v, ok, err = svc.GetRandomVerse(rt.ctx, rt.Source, testamentFilter(c.Testament))
			if err != nil {
				return err
			}
			if !ok {
				return verrors.NewNotFound("verse", rt.Source)
			}
		}

		res, err := session.Run(rt.ctx, v, mode)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		played++
		if res.Correct {
			correct++
		}
		fmt.Fprintln(rt.out)
	}

	fmt.Fprintf(rt.out, "%d/%d correct\n", correct, played)
	return nil
}

// ProgressGroup contains practice progress operations.
type ProgressGroup struct {
	List     ProgressListCmd     `cmd:"" default:"1" help:"List practiced verses"`
	Memorize ProgressMemorizeCmd `cmd:"" help:"Toggle the memorized flag of a verse"`
	Reset    ProgressResetCmd    `cmd:"" help:"Forget all progress for the source"`
}

// ProgressListCmd lists practiced verses, most recent first.
type ProgressListCmd struct{}

func (c *ProgressListCmd) Run(rt *Runtime) error {
	tracker, err := rt.Tracker()
	if err != nil {
		return err
	}
	list, err := tracker.List(rt.ctx, rt.Source)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintf(rt.out, "no progress recorded for %s\n", rt.Source)
		return nil
	}

	tw := tabwriter.NewWriter(rt.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSE\tSTATUS\tMASTERY\tCORRECT\tMEMORIZED\tLAST")
	for _, p := range list {
		ref, err := verseRef(rt, corpus.Verse{Book: p.Book, Chapter: p.Chapter, Verse: p.Verse})
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d/%d\t%t\t%s\n", ref, p.Status(),
			p.MasteryLevel, progress.MaxMastery, p.CorrectGuesses, p.Attempts, p.Memorized,
			p.LastPracticed.Format("2006-01-02 15:04"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sum := progress.Summarize(list)
	fmt.Fprintf(rt.out, "\n%d verses, %d completed, %d memorized, %.0f%% accuracy\n",
		sum.Total, sum.Completed, sum.Memorized, sum.Accuracy)
	return nil
}

// ProgressMemorizeCmd toggles the memorized flag.
type ProgressMemorizeCmd struct {
	At []string `arg:"" help:"Reference of the verse, e.g. John 3:16"`
}

func (c *ProgressMemorizeCmd) Run(rt *Runtime) error {
	v, err := lookupOne(rt, strings.Join(c.At, " "))
	if err != nil {
		return err
	}
	tracker, err := rt.Tracker()
	if err != nil {
		return err
	}
	p, err := tracker.ToggleMemorized(rt.ctx, rt.Source, progress.Ref{Book: v.Book, Chapter: v.Chapter, Verse: v.Verse})
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "memorized: %t\n", p.Memorized)
	return nil
}

// ProgressResetCmd deletes progress for the source.
type ProgressResetCmd struct{}

func (c *ProgressResetCmd) Run(rt *Runtime) error {
	tracker, err := rt.Tracker()
	if err != nil {
		return err
	}
	if err := tracker.Reset(rt.ctx, rt.Source); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "progress reset for %s\n", rt.Source)
	return nil
}

// lookupOne resolves a reference to its first verse.
func lookupOne(rt *Runtime, ref string) (corpus.Verse, error) {
	svc, err := rt.Service()
	if err != nil {
		return corpus.Verse{}, err
	}
	q, verses, err := svc.Lookup(rt.ctx, rt.Source, ref)
	if err != nil {
		return corpus.Verse{}, err
	}
	if len(verses) == 0 {
		return corpus.Verse{}, verrors.NewNotFound("verse", q.String())
	}
	return verses[0], nil
}
