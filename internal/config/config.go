package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-convert-md/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength     = 4096 // PATH_MAX on Linux
	MaxURLLength      = 2048 // Browser limit
	MaxStyleLength    = 50   // chroma style name
	MaxTagLength      = 50   // fenced code block language
	MaxPageSizeLength = 10   // "letter", "a4", "legal"
	MaxDurationLength = 20   // "1m30s"
)

// Bounds for numeric fields.
const (
	MaxMarginMM       = 50.0
	MaxLoadAttempts   = 1000
	MaxLoadIntervalMS = 10000
)

// Accepted enum values.
var (
	validPageSizes      = []string{"a4", "letter", "legal"}
	validThemes         = []string{"default", "dark", "forest", "neutral", "base"}
	validSecurityLevels = []string{"strict", "loose", "antiscript", "sandbox"}
)

// Config holds all file-based configuration. A zero field means "not set":
// the library default (or a flag or environment variable) applies.
type Config struct {
	HTML    HTMLConfig    `yaml:"html"`
	Diagram DiagramConfig `yaml:"diagram"`
	PDF     PDFConfig     `yaml:"pdf"`
	Browser BrowserConfig `yaml:"browser"`
	Assets  AssetsConfig  `yaml:"assets"`
}

// HTMLConfig defines page styling options.
type HTMLConfig struct {
	Style     string `yaml:"style"`     // Embedded style name or path to a .css file
	Highlight string `yaml:"highlight"` // chroma style for code blocks (empty = no highlighting)
}

// DiagramConfig defines diagram block handling and the in-page library.
type DiagramConfig struct {
	Tag            string `yaml:"tag"`       // Fenced code block language (default: "mermaid")
	ScriptURL      string `yaml:"scriptURL"` // http(s) or file URL of the library
	Theme          string `yaml:"theme"`
	SecurityLevel  string `yaml:"securityLevel"`
	LoadAttempts   int    `yaml:"loadAttempts"`
	LoadIntervalMS int    `yaml:"loadIntervalMs"`
}

// PDFConfig defines page layout and render timing. Durations use Go syntax
// ("5s", "250ms").
type PDFConfig struct {
	PageSize     string   `yaml:"pageSize"` // "a4", "letter", "legal" (default: "a4")
	MarginMM     *float64 `yaml:"marginMm"` // 0 to 50 (default: 20)
	Timeout      string   `yaml:"timeout"`
	InitialDelay string   `yaml:"initialDelay"`
	PollInterval string   `yaml:"pollInterval"`
	PollTimeout  string   `yaml:"pollTimeout"`
	Settle       string   `yaml:"settle"`
}

// BrowserConfig defines headless browser options.
type BrowserConfig struct {
	Bin       string `yaml:"bin"`       // Browser executable (empty = auto-detect)
	NoSandbox bool   `yaml:"noSandbox"` // Disable the Chrome sandbox
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// Validate checks enums, ranges, durations and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	// Validate html fields
	if err := validateFieldLength("html.style", c.HTML.Style, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("html.highlight", c.HTML.Highlight, MaxStyleLength); err != nil {
		return err
	}

	// Validate diagram fields
	if err := validateFieldLength("diagram.tag", c.Diagram.Tag, MaxTagLength); err != nil {
		return err
	}
	if strings.ContainsAny(c.Diagram.Tag, " \t\r\n") {
		return fmt.Errorf("%w: diagram.tag: must be a single word, got %q", ErrInvalidValue, c.Diagram.Tag)
	}
	if err := validateFieldLength("diagram.scriptURL", c.Diagram.ScriptURL, MaxURLLength); err != nil {
		return err
	}
	if c.Diagram.ScriptURL != "" {
		if err := validateScriptURL(c.Diagram.ScriptURL); err != nil {
			return err
		}
	}
	if err := validateEnum("diagram.theme", c.Diagram.Theme, validThemes); err != nil {
		return err
	}
	if err := validateEnum("diagram.securityLevel", c.Diagram.SecurityLevel, validSecurityLevels); err != nil {
		return err
	}
	if c.Diagram.LoadAttempts < 0 || c.Diagram.LoadAttempts > MaxLoadAttempts {
		return fmt.Errorf("%w: diagram.loadAttempts: must be between 1 and %d, got %d", ErrInvalidValue, MaxLoadAttempts, c.Diagram.LoadAttempts)
	}
	if c.Diagram.LoadIntervalMS < 0 || c.Diagram.LoadIntervalMS > MaxLoadIntervalMS {
		return fmt.Errorf("%w: diagram.loadIntervalMs: must be between 1 and %d, got %d", ErrInvalidValue, MaxLoadIntervalMS, c.Diagram.LoadIntervalMS)
	}

	// Validate pdf fields
	if err := validateFieldLength("pdf.pageSize", c.PDF.PageSize, MaxPageSizeLength); err != nil {
		return err
	}
	if err := validateEnum("pdf.pageSize", c.PDF.PageSize, validPageSizes); err != nil {
		return err
	}
	if m := c.PDF.MarginMM; m != nil && (*m < 0 || *m > MaxMarginMM) {
		return fmt.Errorf("%w: pdf.marginMm: must be between 0 and %.0f, got %.2f", ErrInvalidValue, MaxMarginMM, *m)
	}
	durations := []struct {
		field string
		value string
	}{
		{"pdf.timeout", c.PDF.Timeout},
		{"pdf.initialDelay", c.PDF.InitialDelay},
		{"pdf.pollInterval", c.PDF.PollInterval},
		{"pdf.pollTimeout", c.PDF.PollTimeout},
		{"pdf.settle", c.PDF.Settle},
	}
	for _, d := range durations {
		if _, err := ParseDuration(d.field, d.value); err != nil {
			return err
		}
	}

	// Validate browser and assets fields
	if err := validateFieldLength("browser.bin", c.Browser.Bin, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}

	return nil
}

// ParseDuration parses a duration field. An empty value is "not set" and
// returns zero. Negative durations are rejected.
func ParseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	if err := validateFieldLength(field, value, MaxDurationLength); err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not a duration (e.g. 5s, 250ms)", ErrInvalidValue, field, value)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s: must not be negative, got %s", ErrInvalidValue, field, value)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateEnum accepts an empty value or one of allowed, case-insensitively.
func validateEnum(fieldName, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %q (must be one of %s)", ErrInvalidValue, fieldName, value, strings.Join(allowed, ", "))
}

func validateScriptURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: diagram.scriptURL: %v", ErrInvalidValue, err)
	}
	switch u.Scheme {
	case "http", "https", "file":
		return nil
	default:
		return fmt.Errorf("%w: diagram.scriptURL: scheme %q (must be http, https or file)", ErrInvalidValue, u.Scheme)
	}
}

// DefaultConfig returns a neutral configuration with nothing set.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// SearchPaths lists where a config name is looked up, in order: the current
// directory, then the user config directory (~/.config/convert-md/ on Linux).
// Each location is tried with .yaml then .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "convert-md", name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file among SearchPaths(name).
func resolveConfigPath(name string) (string, error) {
	triedPaths := SearchPaths(name)
	for _, p := range triedPaths {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
