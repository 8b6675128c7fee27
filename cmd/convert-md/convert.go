package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cdr.dev/slog"

	convertmd "github.com/alnah/go-convert-md"
	"github.com/alnah/go-convert-md/internal/assets"
	"github.com/alnah/go-convert-md/internal/config"
	"github.com/alnah/go-convert-md/internal/hints"
	"github.com/alnah/go-convert-md/internal/log"
	"github.com/alnah/go-convert-md/internal/watch"
)

// runConvert orchestrates one invocation: resolve the job, layer the
// configuration, build the converter and run it once or on every change.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	job, err := resolveJob(positionalArgs)
	if err != nil {
		return err
	}

	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	cfg, err := loadConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	opts, err := buildOptions(cfg)
	if err != nil {
		return err
	}

	conv, err := env.NewConverter(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := conv.Close(); err != nil {
			log.Warn(ctx, "closing browser", slog.Error(err))
		}
	}()

	if flags.run.watch {
		return watchAndConvert(ctx, conv, job, flags, env)
	}

	res, err := convertOnce(ctx, conv, job, flags.common.quiet, env)
	if err != nil {
		return err
	}
	if flags.run.open {
		openResult(ctx, res, env)
	}
	return nil
}

// resolveJob maps [format] [input] [output] to a job.
func resolveJob(args []string) (convertmd.Job, error) {
	format := convertmd.FormatBoth
	if len(args) > 0 && args[0] != "" {
		f, err := convertmd.ParseFormat(args[0])
		if err != nil {
			return convertmd.Job{}, err
		}
		format = f
	}

	var input, output string
	if len(args) > 1 {
		input = args[1]
	}
	if len(args) > 2 {
		output = args[2]
	}
	return convertmd.NewJob(format, input, output), nil
}

// loadConfig loads the config named by the flag, else by CONVERT_MD_CONFIG.
// Without either, an empty config is returned.
func loadConfig(flagConfig string, env *envConfig) (*config.Config, error) {
	name := flagConfig
	if name == "" {
		name = env.ConfigPath
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// mergeFlags applies explicitly set CLI flags over cfg (CLI wins).
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	if flags.style.style != "" {
		cfg.HTML.Style = flags.style.style
	}
	if flags.style.highlight != "" {
		cfg.HTML.Highlight = flags.style.highlight
	}
	if flags.page.size != "" {
		cfg.PDF.PageSize = flags.page.size
	}
	if flags.page.marginSet {
		margin := flags.page.margin
		cfg.PDF.MarginMM = &margin
	}
	if flags.run.timeout != "" {
		cfg.PDF.Timeout = flags.run.timeout
	}
	if flags.run.noSandbox {
		cfg.Browser.NoSandbox = true
	}
}

// buildOptions turns a validated config into converter options. Unset
// fields keep the library defaults.
func buildOptions(cfg *config.Config) ([]convertmd.Option, error) {
	var opts []convertmd.Option

	// Styling and diagrams
	opts = append(opts,
		convertmd.WithStyle(cfg.HTML.Style),
		convertmd.WithHighlighting(cfg.HTML.Highlight),
		convertmd.WithDiagramTag(cfg.Diagram.Tag),
		convertmd.WithScriptURL(cfg.Diagram.ScriptURL),
		convertmd.WithTheme(strings.ToLower(cfg.Diagram.Theme)),
		convertmd.WithSecurityLevel(strings.ToLower(cfg.Diagram.SecurityLevel)),
		convertmd.WithScriptLoad(cfg.Diagram.LoadAttempts, msDuration(cfg.Diagram.LoadIntervalMS)),
		convertmd.WithAssetPath(cfg.Assets.BasePath),
		convertmd.WithBrowserBin(cfg.Browser.Bin),
		convertmd.WithNoSandbox(cfg.Browser.NoSandbox),
	)

	// Page
	page := convertmd.DefaultPageSettings()
	if cfg.PDF.PageSize != "" {
		page.Size = strings.ToLower(cfg.PDF.PageSize)
	}
	if cfg.PDF.MarginMM != nil {
		page.MarginMM = *cfg.PDF.MarginMM
	}
	opts = append(opts, convertmd.WithPageSettings(page))

	// Render timing
	wait := convertmd.DefaultRenderWait()
	for _, d := range []struct {
		field string
		value string
		dst   *time.Duration
	}{
		{"pdf.initialDelay", cfg.PDF.InitialDelay, &wait.InitialDelay},
		{"pdf.pollInterval", cfg.PDF.PollInterval, &wait.PollInterval},
		{"pdf.pollTimeout", cfg.PDF.PollTimeout, &wait.PollTimeout},
		{"pdf.settle", cfg.PDF.Settle, &wait.Settle},
	} {
		if d.value == "" {
			continue
		}
		v, err := config.ParseDuration(d.field, d.value)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}
	opts = append(opts, convertmd.WithRenderWait(wait))

	if cfg.PDF.Timeout != "" {
		timeout, err := config.ParseDuration("pdf.timeout", cfg.PDF.Timeout)
		if err != nil {
			return nil, err
		}
		if timeout <= 0 {
			return nil, fmt.Errorf("%w: pdf.timeout must be positive", config.ErrInvalidValue)
		}
		opts = append(opts, convertmd.WithTimeout(timeout))
	}

	return opts, nil
}

// msDuration converts a millisecond count; 0 stays 0 (unset).
func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// convertOnce runs job and reports each created file. Files created before
// a failure are still reported.
func convertOnce(ctx context.Context, conv Converter, job convertmd.Job, quiet bool, env *Environment) (*convertmd.Result, error) {
	start := time.Now()
	res, err := conv.Run(ctx, job)
	if res != nil && !quiet {
		if res.HTML != "" {
			fmt.Fprintf(env.Stdout, "HTML file created: %s\n", res.HTML)
		}
		if res.PDF != "" {
			fmt.Fprintf(env.Stdout, "PDF file created: %s\n", res.PDF)
		}
	}
	if err != nil {
		return res, err
	}

	log.Debug(ctx, "conversion finished", slog.F("input", job.Input), slog.F("duration", time.Since(start)))
	if !quiet {
		fmt.Fprintln(env.Stdout, "Conversion complete")
	}
	return res, nil
}

// watchAndConvert converts on start and on every change to the input until
// ctx is canceled. Failed conversions are reported and watching continues.
func watchAndConvert(ctx context.Context, conv Converter, job convertmd.Job, flags *convertFlags, env *Environment) error {
	w, err := watch.New(job.Input)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Watching %s (Ctrl+C to stop)\n", job.Input)
	}

	opened := false
	err = w.Run(ctx, func(ctx context.Context) error {
		res, err := convertOnce(ctx, conv, job, flags.common.quiet, env)
		if err != nil {
			fmt.Fprintf(env.Stderr, "Error: %v%s\n", err, hintFor(err))
			return err
		}
		if flags.run.open && !opened {
			opened = true
			openResult(ctx, res, env)
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openResult opens the PDF if one was created, else the HTML page.
func openResult(ctx context.Context, res *convertmd.Result, env *Environment) {
	path := res.PDF
	if path == "" {
		path = res.HTML
	}
	if path == "" {
		return
	}
	if err := env.Open(path); err != nil {
		log.Warn(ctx, "could not open result", slog.F("path", path), slog.Error(err))
	}
}

// hintFor returns a remediation hint for err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, convertmd.ErrInputNotFound):
		return hints.ForInputNotFound(convertmd.DefaultInput)
	case errors.Is(err, convertmd.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, convertmd.ErrWriteOutput):
		return hints.ForOutputDirectory()
	case errors.Is(err, convertmd.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.EmbeddedStyles())
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.SearchPaths("convert-md"))
	}
	return ""
}
