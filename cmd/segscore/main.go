// Command segscore compares two directories of bracketed segmentations and
// prints inter-annotator agreement statistics as tab-separated values.
package main

import (
	"flag"
	"fmt"
	"os"

	"discoseg/internal/agree"
	"discoseg/internal/format"
	"discoseg/internal/logging"
)

func main() {
	fs := flag.NewFlagSet("segscore", flag.ContinueOnError)
	suffix := fs.String("suffix", ".seg", "Only compare files carrying this suffix")
	delex := fs.Bool("delex", false, "Replace tokens before alignment; compare structure only")
	logLevel := fs.String("log-level", "warn", "Log level (debug, info, warn, error)")
	fs.Usage = printUsage

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 2 {
		printUsage()
		os.Exit(1)
	}

	if err := logging.Setup(logging.Options{Level: *logLevel}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	res, err := agree.Evaluate(fs.Arg(0), fs.Arg(1), agree.Config{
		Suffix: *suffix,
		Delex:  *delex,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(agree.FormatReport(res, format.TSV))
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `segscore — inter-annotator agreement for discourse segmentations

Compares every suffix-matched document present in both directories.
The first directory is the reference side; span coordinates are
expressed on its token axis. Documents whose token streams cannot be
aligned are skipped with a diagnostic on standard error.

Usage:
  segscore [-suffix S] [-delex] <gold-dir> <pred-dir>
`)
}
