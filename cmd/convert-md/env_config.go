package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/alnah/go-convert-md/internal/config"
)

// envPrefix starts every variable this CLI reads.
const envPrefix = "CONVERT_MD_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // CONVERT_MD_CONFIG: config file name or path
	Timeout    string // CONVERT_MD_TIMEOUT: PDF generation timeout
	Style      string // CONVERT_MD_STYLE: CSS style name or path
	PageSize   string // CONVERT_MD_PAGE_SIZE: a4, letter, legal
}

// knownEnvVars lists valid CONVERT_MD_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"CONVERT_MD_CONFIG":    true,
	"CONVERT_MD_TIMEOUT":   true,
	"CONVERT_MD_STYLE":     true,
	"CONVERT_MD_PAGE_SIZE": true,
	"CONVERT_MD_DEBUG":     true, // automaxprocs logging
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig(getenv func(string) string) *envConfig {
	return &envConfig{
		ConfigPath: getenv("CONVERT_MD_CONFIG"),
		Timeout:    getenv("CONVERT_MD_TIMEOUT"),
		Style:      getenv("CONVERT_MD_STYLE"),
		PageSize:   getenv("CONVERT_MD_PAGE_SIZE"),
	}
}

// warnUnknownEnvVars writes a warning for each unrecognized CONVERT_MD_*
// variable. Helps catch typos like CONVERT_MD_STYEL.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	var unknown []string
	for _, env := range environ {
		name, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(name, envPrefix) && !knownEnvVars[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
	}
}

// applyEnvConfig overrides config file values with environment values.
// Flags are applied afterwards by mergeFlags, so the precedence is
// flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Timeout != "" {
		cfg.PDF.Timeout = env.Timeout
	}
	if env.Style != "" {
		cfg.HTML.Style = env.Style
	}
	if env.PageSize != "" {
		cfg.PDF.PageSize = env.PageSize
	}
}
