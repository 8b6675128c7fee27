package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrUsage marks invalid command lines: unknown flags, bad values, extra
// arguments.
var ErrUsage = errors.New("invalid usage")

// maxPositionalArgs is [format] [input] [output].
const maxPositionalArgs = 3

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// pageFlags holds page layout flags.
type pageFlags struct {
	size      string
	margin    float64
	marginSet bool // 0 is a valid margin
}

// styleFlags holds HTML styling flags.
type styleFlags struct {
	style     string // Name or path for CSS
	highlight string // chroma style name
}

// runFlags holds flags that change how the conversion runs.
type runFlags struct {
	timeout   string
	noSandbox bool
	watch     bool
	open      bool
}

// convertFlags holds all flags for a conversion.
type convertFlags struct {
	common  commonFlags
	page    pageFlags
	style   styleFlags
	run     runFlags
	help    bool
	version bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVar(&f.verbose, "verbose", false, "show debug logs")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: a4, letter, legal")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in millimeters (0-50)")
}

// addStyleFlags adds styling flags to a FlagSet.
func addStyleFlags(fs *flag.FlagSet, f *styleFlags) {
	fs.StringVar(&f.style, "style", "", "CSS style name or file path")
	fs.StringVar(&f.highlight, "highlight", "", "syntax highlighting style (e.g. github, monokai)")
}

// addRunFlags adds run-control flags to a FlagSet.
func addRunFlags(fs *flag.FlagSet, f *runFlags) {
	fs.StringVarP(&f.timeout, "timeout", "t", "", "PDF generation timeout (e.g., 30s, 2m)")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox (containers)")
	fs.BoolVar(&f.watch, "watch", false, "convert again whenever the input changes")
	fs.BoolVar(&f.open, "open", false, "open the result after the first conversion")
}

// newConvertFlagSet builds the flag set bound to f.
func newConvertFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("convert-md", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	addCommonFlags(fs, &f.common)
	addPageFlags(fs, &f.page)
	addStyleFlags(fs, &f.style)
	addRunFlags(fs, &f.run)
	fs.BoolVarP(&f.help, "help", "h", false, "show help")
	fs.BoolVarP(&f.version, "version", "v", false, "show version")

	return fs
}

// parseConvertFlags parses flags and returns positional args.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f)

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	f.page.marginSet = fs.Changed("margin")

	positional := fs.Args()
	if len(positional) > maxPositionalArgs && !f.help && !f.version {
		return nil, nil, fmt.Errorf("%w: too many arguments: %q", ErrUsage, positional[maxPositionalArgs:])
	}
	return f, positional, nil
}

// parseDoctorFlags parses doctor flags.
func parseDoctorFlags(args []string) (jsonOutput, offline bool, err error) {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&jsonOutput, "json", false, "print results as JSON")
	fs.BoolVar(&offline, "offline", false, "skip the diagram library reachability check")

	if err := fs.Parse(args); err != nil {
		return false, false, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return false, false, fmt.Errorf("%w: unexpected arguments: %q", ErrUsage, fs.Args())
	}
	return jsonOutput, offline, nil
}
