// Command versemem is the CLI for verse memorization: it reads plain-text
// translations, checks typed answers and runs practice sessions and the
// HTTP API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	verrors "github.com/FocuswithJustin/versemem/core/errors"
)

const version = "0.1.0"

// Globals are flags shared by every command.
type Globals struct {
	ConfigFile string `name:"config" short:"c" help:"Config file (default ./config.yaml or ~/.versemem/config.yaml)" type:"path"`
	LogLevel   string `name:"log-level" help:"Override the configured log level (debug, info, warn, error)"`
	Source     string `short:"s" help:"Source id: a translation code or a custom import id" default:"KJV" env:"VERSEMEM_SOURCE"`
	Lang       string `short:"l" help:"Book name language (en, fr, es, it, de)"`
}

// CLI defines the command-line interface for versemem.
type CLI struct {
	Globals

	Books    BooksCmd    `cmd:"" help:"List the books of a source"`
	Chapters ChaptersCmd `cmd:"" help:"List the chapters of a book"`
	Verses   VersesCmd   `cmd:"" help:"Print a chapter"`
	Verse    VerseCmd    `cmd:"" help:"Print one verse"`
	Random   RandomCmd   `cmd:"" help:"Print a random verse"`
	Lookup   LookupCmd   `cmd:"" help:"Print the verses of a reference such as '1 Cor 13:4-7'"`

	Check    CheckCmd      `cmd:"" help:"Check a typed answer against a verse"`
	Guess    GuessCmd      `cmd:"" help:"Check a guess of where a verse is found"`
	Practice PracticeCmd   `cmd:"" help:"Practice verses interactively"`
	Progress ProgressGroup `cmd:"" help:"Practice progress"`

	Sources SourcesGroup `cmd:"" help:"Source downloads and imports"`
	Serve   ServeCmd     `cmd:"" help:"Start the REST and WebSocket API server"`
	Cfg     ConfigGroup  `cmd:"" name:"config" help:"Configuration files"`
	Version VersionCmd   `cmd:"" help:"Print version information"`
}

func main() {
	// A missing .env is fine; it only seeds VERSEMEM_* variables.
	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		for _, hint := range verrors.GetHints(err) {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		os.Exit(1)
	}
}

// run parses args and executes the selected command.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("versemem"),
		kong.Description("versemem - memorize Bible verses from plain-text translations"),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err != nil {
		return err
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	rt := newRuntime(ctx, &cli.Globals, stdin, stdout, stderr)
	defer rt.Close()

	return kctx.Run(rt)
}
