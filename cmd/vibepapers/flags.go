package main

import (
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared with any future subcommand.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// runFlags holds all flags for the daily run.
type runFlags struct {
	common      commonFlags
	date        string
	top         int
	output      string
	language    string
	model       string
	templateDir string
	offline     bool
	skipEmail   bool
	skipAssets  bool
	version     bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug output")
}

// parseFlags parses the command line. Positional arguments are rejected.
func parseFlags(args []string) (*runFlags, error) {
	fs := flag.NewFlagSet("vibepapers", flag.ContinueOnError)
	f := &runFlags{}

	fs.StringVarP(&f.date, "date", "d", "", "target date YYYY-MM-DD (default: last weekday, UTC)")
	fs.IntVarP(&f.top, "top", "n", 0, "papers to select by upvotes (0 = config value)")
	fs.StringVarP(&f.output, "output", "o", "", "output directory (\"\" = config value)")
	fs.StringVar(&f.language, "language", "", "analysis language code (\"\" = config value)")
	fs.StringVar(&f.model, "model", "", "analysis model name (\"\" = config value)")
	fs.StringVar(&f.templateDir, "template-dir", "", "directory with page template overrides")
	fs.BoolVar(&f.offline, "offline", false, "skip model calls, build pages from abstracts")
	fs.BoolVar(&f.skipEmail, "skip-email", false, "do not send the report email")
	fs.BoolVar(&f.skipAssets, "skip-assets", false, "do not download front-end assets")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printUsage(os.Stderr, fs) }

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return f, nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `vibepapers — render daily AI paper analyses into browsable HTML

Usage:
  vibepapers [flags]

Fetches the HuggingFace daily papers list, analyzes each paper, and writes
one HTML page per paper plus a daily index, a cross-run papers index, and a
multi-day summary dashboard.

Flags:
%s`, fs.FlagUsages())
}
