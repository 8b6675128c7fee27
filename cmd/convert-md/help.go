package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: convert-md [format] [input] [output] [flags]")
	fmt.Fprintln(w, "       convert-md doctor [--json] [--offline]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert a Markdown document with Mermaid diagrams to HTML and/or PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  format    html, pdf, or both (default: both)")
	fmt.Fprintln(w, "  input     Markdown file (default: CODE_SUMMARY.md)")
	fmt.Fprintln(w, "  output    Output file; for 'both', a base path whose extension")
	fmt.Fprintln(w, "            becomes .html and .pdf (default: <input name> in the")
	fmt.Fprintln(w, "            current directory)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  doctor    Check that PDF conversion can run here")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --style <s>           CSS style name (default, print) or file path")
	fmt.Fprintln(w, "      --highlight <s>       Highlight code blocks (github, monokai, ...)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: a4, letter, legal (default: a4)")
	fmt.Fprintln(w, "      --margin <mm>         Margin in millimeters, 0-50 (default: 20)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -t, --timeout <dur>       PDF generation timeout (default: 2m)")
	fmt.Fprintln(w, "      --no-sandbox          Disable the Chrome sandbox")
	fmt.Fprintln(w, "      --watch               Convert again when the input changes")
	fmt.Fprintln(w, "      --open                Open the result when done")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "      --verbose             Show debug logs")
	fmt.Fprintln(w, "  -h, --help                Show this help")
	fmt.Fprintln(w, "  -v, --version             Show version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  CONVERT_MD_CONFIG, CONVERT_MD_TIMEOUT, CONVERT_MD_STYLE, CONVERT_MD_PAGE_SIZE")
	fmt.Fprintln(w, "  ROD_BROWSER_BIN           Chrome/Chromium executable")
	fmt.Fprintln(w, "  ROD_NO_SANDBOX=1          Disable the Chrome sandbox")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: convert-md doctor [--json] [--offline]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome, sandbox, environment, temp directory and diagram library access.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Print results as JSON")
	fmt.Fprintln(w, "      --offline             Skip the diagram library reachability check")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: convert-md help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
