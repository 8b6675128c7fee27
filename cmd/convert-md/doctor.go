package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/hashicorp/go-retryablehttp"

	convertmd "github.com/alnah/go-convert-md"
	"github.com/alnah/go-convert-md/internal/config"
	"github.com/alnah/go-convert-md/internal/process"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo  `json:"chrome"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Diagram  diagramInfo `json:"diagram_library"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// diagramInfo holds the diagram library reachability check.
type diagramInfo struct {
	ScriptURL string `json:"script_url"`
	Checked   bool   `json:"checked"`
	Reachable bool   `json:"reachable"`
}

// newHTTPClient returns a quiet retrying client for the reachability check.
func newHTTPClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.HTTPClient.Timeout = 5 * time.Second
	client.Logger = nil
	return client
}

// lookPath locates Chrome using rod's launcher.
func lookPath() (string, bool) {
	return launcher.LookPath()
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	jsonOutput, offline, err := parseDoctorFlags(args)
	if err != nil {
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		printDoctorUsage(env.Stderr)
		return ExitUsage
	}

	result := runDoctor(ctx, env, offline)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, env *Environment, offline bool) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  env.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: env.Getenv("ROD_BROWSER_BIN"),
		},
	}
	result.Diagram.ScriptURL = doctorScriptURL(env, result)

	checkEnvironment(result, env.Getenv)
	checkChrome(result, env.LookPath)
	checkSystem(result)
	if !offline {
		checkScriptURL(ctx, result, env.HTTPClient)
	}

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// doctorScriptURL returns the diagram library URL from the config named by
// CONVERT_MD_CONFIG, or the default. Config errors become warnings.
func doctorScriptURL(env *Environment, result *doctorResult) string {
	name := env.Getenv("CONVERT_MD_CONFIG")
	if name == "" {
		return convertmd.DefaultScriptURL
	}
	cfg, err := config.LoadConfig(name)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("CONVERT_MD_CONFIG: %v", err))
		return convertmd.DefaultScriptURL
	}
	if cfg.Diagram.ScriptURL != "" {
		return cfg.Diagram.ScriptURL
	}
	return convertmd.DefaultScriptURL
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(result *doctorResult, look func() (string, bool)) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = look()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found; a managed Chromium will be downloaded on first PDF conversion. Set ROD_BROWSER_BIN to use an installed browser")
			return
		}
	}

	// Verify it exists
	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	// Get version by running chrome --version
	cmd := exec.Command(chromePath, "--version") // #nosec G204 -- path from rod lookup or ROD_BROWSER_BIN
	out, err := cmd.Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	// Same rule as the renderer: the sandbox is disabled on request, in CI,
	// and with a pre-installed browser.
	result.Chrome.Sandbox = result.Env.NoSandbox != "1" && !result.Env.CI && result.Env.BrowserBin == ""
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)
	result.Env.CI = process.InCI()

	// The renderer disables the sandbox by itself in CI and with
	// ROD_BROWSER_BIN; a bare container needs it spelled out.
	if result.Env.Container && !result.Env.CI &&
		result.Env.NoSandbox != "1" && result.Env.BrowserBin == "" {
		result.Warnings = append(result.Warnings,
			"Container detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1 or pass --no-sandbox")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	// Docker
	if process.InContainer() {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	// Kubernetes
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies system requirements.
func checkSystem(result *doctorResult) {
	// Temporary pages are written next to the output; the OS temp dir is
	// used by the browser profile.
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "convert-md-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// checkScriptURL verifies the diagram library can be fetched. A file:// URL
// is checked on disk.
func checkScriptURL(ctx context.Context, result *doctorResult, client *retryablehttp.Client) {
	raw := result.Diagram.ScriptURL
	result.Diagram.Checked = true

	u, err := url.Parse(raw)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid diagram library URL %q: %v", raw, err))
		return
	}

	if u.Scheme == "file" {
		if _, err := os.Stat(u.Path); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Diagram library not found at %s", u.Path))
			return
		}
		result.Diagram.Reachable = true
		return
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, raw, nil)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid diagram library URL %q: %v", raw, err))
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Diagram library unreachable (%v); diagrams will print as source. Use --offline to skip this check", err))
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Diagram library returned %s", resp.Status))
		return
	}
	result.Diagram.Reachable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "convert-md doctor")
	fmt.Fprintln(w)

	// Chrome section
	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	// Environment section
	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	// System section
	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	// Diagram library section
	fmt.Fprintln(w, "Diagram library")
	switch {
	case !r.Diagram.Checked:
		fmt.Fprintf(w, "  [SKIP] %s (offline)\n", r.Diagram.ScriptURL)
	case r.Diagram.Reachable:
		fmt.Fprintf(w, "  [OK] %s\n", r.Diagram.ScriptURL)
	default:
		fmt.Fprintf(w, "  [WARN] %s\n", r.Diagram.ScriptURL)
	}
	fmt.Fprintln(w)

	// Warnings
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	// Errors
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	// Final status
	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
