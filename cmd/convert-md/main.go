package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alnah/go-convert-md/internal/log"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		if os.Getenv("CONVERT_MD_DEBUG") != "" {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}))

	ctx, stop := notifyContext(context.Background())
	code := runMain(ctx, os.Args, DefaultEnv())
	stop()
	os.Exit(code)
}

// runMain dispatches args (program name first) and returns the exit code.
func runMain(ctx context.Context, args []string, env *Environment) int {
	if len(args) <= 1 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[1] {
	case "doctor":
		return runDoctorCmd(ctx, args[2:], env)
	case "help":
		return runHelp(args[2:], env)
	}

	flags, positional, err := parseConvertFlags(args[1:])
	if err != nil {
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		fmt.Fprintln(env.Stderr, "Run 'convert-md --help' for usage.")
		return ExitUsage
	}

	switch {
	case flags.help:
		printUsage(env.Stdout)
		return ExitSuccess
	case flags.version:
		fmt.Fprintf(env.Stdout, "convert-md version %s\n", Version)
		return ExitSuccess
	}

	ctx = log.Human(ctx, env.Stderr, flags.common.verbose)
	defer log.Sync(ctx)

	if err := runConvert(ctx, positional, flags, env); err != nil {
		fmt.Fprintf(env.Stderr, "Error: %v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}
