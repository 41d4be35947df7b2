package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/FocuswithJustin/versemem/core/books"
	"github.com/FocuswithJustin/versemem/core/corpus"
	verrors "github.com/FocuswithJustin/versemem/core/errors"
)

// BooksCmd lists the books of the selected source.
type BooksCmd struct{}

func (c *BooksCmd) Run(rt *Runtime) error {
	svc, err := rt.Service()
	if err != nil {
		return err
	}
	lang, err := rt.Language()
	if err != nil {
		return err
	}

	list, err := svc.BookList(rt.ctx, rt.Source, lang)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintf(rt.out, "%s contains no books\n", rt.Source)
		return nil
	}

	tw := tabwriter.NewWriter(rt.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tCHAPTERS\tTESTAMENT")
	for _, b := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", b.Key, b.DisplayName, b.ChapterCount, b.Testament)
	}
	return tw.Flush()
}

// ChaptersCmd lists the chapters of a book.
type ChaptersCmd struct {
	Book string `arg:"" help:"Book key as listed by 'books', e.g. gen or 1-cor"`
}

func (c *ChaptersCmd) Run(rt *Runtime) error {
	svc, err := rt.Service()
	if err != nil {
		return err
	}
	chapters, err := svc.GetChapters(rt.ctx, rt.Source, c.Book)
	if err != nil {
		return err
	}

	nums := make([]string, len(chapters))
	for i, n := range chapters {
		nums[i] = strconv.Itoa(n)
	}
	fmt.Fprintln(rt.out, strings.Join(nums, " "))
	return nil
}

// VersesCmd prints a chapter.
type VersesCmd struct {
	Book    string `arg:"" help:"Book key"`
	Chapter int    `arg:"" help:"Chapter number"`
}

func (c *VersesCmd) Run(rt *Runtime) error {
	svc, err := rt.Service()
	if err != nil {
		return err
	}
	verses, err := svc.GetVerses(rt.ctx, rt.Source, c.Book, c.Chapter)
	if err != nil {
		return err
	}
	if len(verses) == 0 {
		return verrors.NewNotFound("chapter", fmt.Sprintf("%s %d", c.Book, c.Chapter))
	}
	for _, v := range verses {
		fmt.Fprintf(rt.out, "%d %s\n", v.Verse, v.Text)
	}
	return nil
}

// VerseCmd prints one verse.
type VerseCmd struct {
	Book    string `arg:"" help:"Book key"`
	Chapter int    `arg:"" help:"Chapter number"`
	Verse   int    `arg:"" help:"Verse number"`
}

func (c *VerseCmd) Run(rt *Runtime) error {
	svc, err := rt.Service()
	if err != nil {
		return err
	}
	v, ok, err := svc.GetVerse(rt.ctx, rt.Source, c.Book, c.Chapter, c.Verse)
	if err != nil {
		return err
	}
	if !ok {
		return verrors.NewNotFound("verse", fmt.Sprintf("%s %d:%d", c.Book, c.Chapter, c.Verse))
	}
	return printVerse(rt, v)
}

// RandomCmd prints a random verse.
type RandomCmd struct {
	Testament string `help:"Restrict to a testament" enum:"old,new,all" default:"all"`
}

func (c *RandomCmd) Run(rt *Runtime) error {
	svc, err := rt.Service()
	if err != nil {
		return err
	}
	v, ok, err := svc.GetRandomVerse(rt.ctx, rt.Source, testamentFilter(c.Testament))
	if err != nil {
		return err
	}
	if !ok {
		return verrors.NewNotFound("verse", rt.Source)
	}
	return printVerse(rt, v)
}

// LookupCmd prints the verses a reference names.
type LookupCmd struct {
	Query []string `arg:"" help:"Reference, e.g. John 3:16 or Ps 23"`
}

func (c *LookupCmd) Run(rt *Runtime) error {
	svc, err := rt.Service()
	if err != nil {
		return err
	}
	q, verses, err := svc.Lookup(rt.ctx, rt.Source, strings.Join(c.Query, " "))
	if err != nil {
		return err
	}
	if len(verses) == 0 {
		return verrors.NewNotFound("reference", q.String())
	}
	for _, v := range verses {
		if err := printVerse(rt, v); err != nil {
			return err
		}
	}
	return nil
}

func printVerse(rt *Runtime, v corpus.Verse) error {
	ref, err := verseRef(rt, v)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "%s  %s\n", ref, v.Text)
	return nil
}

// verseRef renders v as "Name C:V" in the runtime language.
func verseRef(rt *Runtime, v corpus.Verse) (string, error) {
	svc, err := rt.Service()
	if err != nil {
		return "", err
	}
	lang, err := rt.Language()
	if err != nil {
		return "", err
	}
	name, err := svc.GetBookName(rt.ctx, rt.Source, v.Book, lang)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %d:%d", name, v.Chapter, v.Verse), nil
}

func testamentFilter(s string) books.Testament {
	t, _ := books.ParseTestament(s)
	return t
}
