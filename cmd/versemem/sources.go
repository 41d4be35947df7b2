package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	verrors "github.com/FocuswithJustin/versemem/core/errors"
	"github.com/FocuswithJustin/versemem/internal/source"
	"github.com/FocuswithJustin/versemem/internal/validation"
)

// SourcesGroup contains source download and import operations.
type SourcesGroup struct {
	List     SourcesListCmd     `cmd:"" default:"1" help:"List known and downloaded sources"`
	Download SourcesDownloadCmd `cmd:"" help:"Download translations into the local store"`
	Remove   SourcesRemoveCmd   `cmd:"" help:"Remove sources from the local store"`
	Import   SourcesImportCmd   `cmd:"" help:"Import a plain-text or Zefania XML file as a custom source"`
}

// SourcesListCmd lists registry translations and stored sources.
type SourcesListCmd struct{}

func (c *SourcesListCmd) Run(rt *Runtime) error {
	registry, err := rt.Registry()
	if err != nil {
		return err
	}
	st, err := rt.Store()
	if err != nil {
		return err
	}
	recs, err := st.List(rt.ctx)
	if err != nil {
		return err
	}

	stored := make(map[string]source.Record, len(recs))
	for _, r := range recs {
		stored[r.ID] = r
	}

	tw := tabwriter.NewWriter(rt.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLANG\tSTORED\tSIZE\tDOWNLOADED")
	row := func(id, lang string) {
		r, ok := stored[id]
		if !ok {
			fmt.Fprintf(tw, "%s\t%s\tno\t\t\n", id, lang)
			return
		}
		fmt.Fprintf(tw, "%s\t%s\tyes\t%d\t%s\n", id, lang, r.Size, r.DownloadedAt.Format("2006-01-02"))
		delete(stored, id)
	}
	for _, e := range registry.Entries() {
		row(e.ID, e.Language)
	}
	for _, r := range recs {
		if _, ok := stored[r.ID]; ok {
			row(r.ID, "")
		}
	}
	return tw.Flush()
}

// SourcesDownloadCmd downloads translations.
type SourcesDownloadCmd struct {
	IDs []string `arg:"" optional:"" name:"id" help:"Translation codes (default: --source)"`
	All bool     `help:"Download every registry translation"`
}

func (c *SourcesDownloadCmd) Run(rt *Runtime) error {
	provider, err := rt.Provider()
	if err != nil {
		return err
	}

	ids := c.IDs
	switch {
	case c.All:
		registry, err := rt.Registry()
		if err != nil {
			return err
		}
		ids = nil
		for _, e := range registry.Entries() {
			ids = append(ids, e.ID)
		}
	case len(ids) == 0:
		ids = []string{rt.Source}
	}

	return provider.Download(rt.ctx, ids, func(p source.Progress) {
		if p.Status == source.StatusPending {
			return
		}
		line := fmt.Sprintf("%-10s %-11s %3d%%", p.SourceID, p.Status, p.Percent)
		if p.Error != "" {
			line += "  " + p.Error
		}
		fmt.Fprintln(rt.out, line)
	})
}

// SourcesRemoveCmd deletes stored sources.
type SourcesRemoveCmd struct {
	IDs []string `arg:"" optional:"" name:"id" help:"Source ids to remove"`
	All bool     `help:"Remove every stored source"`
}

func (c *SourcesRemoveCmd) Run(rt *Runtime) error {
	st, err := rt.Store()
	if err != nil {
		return err
	}
	if c.All {
		if err := st.Clear(rt.ctx); err != nil {
			return err
		}
		fmt.Fprintln(rt.out, "removed all stored sources")
		return nil
	}
	if len(c.IDs) == 0 {
		return verrors.NewValidation("id", "give source ids or --all")
	}
	for _, id := range c.IDs {
		if err := st.Remove(rt.ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(rt.out, "removed %s\n", id)
	}
	return nil
}

// SourcesImportCmd stores a local file as a custom source.
type SourcesImportCmd struct {
	Path   string `arg:"" help:"File to import" type:"existingfile"`
	ID     string `help:"Source id (default: a new custom- id)"`
	Format string `help:"Input format" enum:"auto,text,zefania" default:"auto"`
}

func (c *SourcesImportCmd) Run(rt *Runtime) error {
	format := validation.Format(c.Format)
	if c.Format == "auto" {
		detected, err := validation.ImportFile(c.Path)
		if err != nil {
			return err
		}
		format = detected
	}
	if c.ID != "" {
		if err := validation.SourceID(c.ID); err != nil {
			return err
		}
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return verrors.NewIO("open", c.Path, err)
	}
	defer f.Close()

	var text string
	if format == validation.FormatZefania {
		text, err = source.ImportZefania(f)
		if err != nil {
			return err
		}
	} else {
		data, err := io.ReadAll(f)
		if err != nil {
			return verrors.NewIO("read", c.Path, err)
		}
		text = string(data)
	}

	id := c.ID
	if id == "" {
		id = source.NewCustomID()
	}

	st, err := rt.Store()
	if err != nil {
		return err
	}
	rec, err := st.Put(rt.ctx, id, text)
	if err != nil {
		return err
	}

	svc, err := rt.Service()
	if err != nil {
		return err
	}
	svc.Invalidate(id)
	corp, err := svc.Corpus(rt.ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(rt.out, "imported %s: %d books, %d verses\n", rec.ID, len(corp.Books()), corp.VerseCount())
	if corp.Empty() {
		fmt.Fprintln(rt.out, "warning: no verse lines were recognized")
	}
	return nil
}
