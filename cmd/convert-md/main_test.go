package main

// Notes:
// - runMain is exercised end to end for HTML output with the real library
//   converter: it needs no browser.
// - PDF paths use fakeConverter; browser runs live in the library's
//   integration tests.

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	convertmd "github.com/alnah/go-convert-md"
)

func writeMarkdown(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// ---------------------------------------------------------------------------
// TestRunMain_Usage - help, version and argument errors
// ---------------------------------------------------------------------------

func TestRunMain_Usage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no arguments shows help", nil, ExitSuccess, "Usage: convert-md", ""},
		{"--help", []string{"--help"}, ExitSuccess, "Usage: convert-md", ""},
		{"-h", []string{"-h"}, ExitSuccess, "Usage: convert-md", ""},
		{"--version", []string{"--version"}, ExitSuccess, "convert-md version dev", ""},
		{"-v", []string{"-v"}, ExitSuccess, "version", ""},
		{"help command", []string{"help"}, ExitSuccess, "Usage: convert-md", ""},
		{"help doctor", []string{"help", "doctor"}, ExitSuccess, "Usage: convert-md doctor", ""},
		{"help unknown", []string{"help", "nope"}, ExitUsage, "", "Unknown command: nope"},
		{"unknown format", []string{"unknown"}, ExitUsage, "", "Error: unknown format"},
		{"unknown option", []string{"--invalid"}, ExitUsage, "", "Error: invalid usage: unknown flag: --invalid"},
		{"too many arguments", []string{"html", "a.md", "a.html", "extra"}, ExitUsage, "", "too many arguments"},
		{"bad flag value", []string{"--margin", "wide"}, ExitUsage, "", "Error:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			code := runMain(context.Background(), append([]string{"convert-md"}, tt.args...), env.Environment)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, env.stderr)
			}
			if !strings.Contains(env.stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", env.stdout, tt.wantStdout)
			}
			if !strings.Contains(env.stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", env.stderr, tt.wantStderr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_HTML - real HTML conversion
// ---------------------------------------------------------------------------

func TestRunMain_HTML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeMarkdown(t, dir, "simple.md", "# Simple\n\n```mermaid\ngraph TD\nA-->B\n```\n")
	output := filepath.Join(dir, "simple.html")
	env := newTestEnv(t)

	code := runMain(context.Background(), []string{"convert-md", "html", input, output}, env.Environment)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), `<pre class="mermaid">`) {
		t.Error("output missing diagram block")
	}
	for _, want := range []string{"HTML file created: " + output, "Conversion complete"} {
		if !strings.Contains(env.stdout.String(), want) {
			t.Errorf("stdout missing %q: %s", want, env.stdout)
		}
	}
}

func TestRunMain_Quiet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeMarkdown(t, dir, "q.md", "# Q\n")
	env := newTestEnv(t)

	code := runMain(context.Background(), []string{"convert-md", "-q", "html", input, filepath.Join(dir, "q.html")}, env.Environment)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	if env.stdout.Len() != 0 {
		t.Errorf("quiet mode wrote to stdout: %q", env.stdout)
	}
}

func TestRunMain_MissingInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	output := filepath.Join(dir, "file.html")
	env := newTestEnv(t)

	code := runMain(context.Background(), []string{"convert-md", "html", "/nonexistent/file.md", output}, env.Environment)

	if code != ExitIO {
		t.Errorf("exit code = %d, want %d", code, ExitIO)
	}
	if !strings.Contains(env.stderr.String(), "Error: input file not found: /nonexistent/file.md") {
		t.Errorf("stderr = %q", env.stderr)
	}
	if !strings.Contains(env.stderr.String(), "hint:") {
		t.Error("missing-input error should carry a hint")
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("output written for missing input")
	}
}

func TestRunMain_BothKeepsHTMLWhenPDFFails(t *testing.T) {
	t.Parallel()

	fake := &fakeConverter{
		res: &convertmd.Result{HTML: "report.html"},
		err: convertmd.ErrBrowserConnect,
	}
	env := newTestEnv(t).withFake(fake)

	code := runMain(context.Background(), []string{"convert-md", "both", "report.md"}, env.Environment)

	if code != ExitBrowser {
		t.Errorf("exit code = %d, want %d", code, ExitBrowser)
	}
	if !strings.Contains(env.stdout.String(), "HTML file created: report.html") {
		t.Errorf("stdout = %q, want HTML reported", env.stdout)
	}
	if strings.Contains(env.stdout.String(), "Conversion complete") {
		t.Error("failed run reported completion")
	}
	if !strings.Contains(env.stderr.String(), "run 'convert-md doctor'") {
		t.Errorf("stderr = %q, want browser hint", env.stderr)
	}
	if !fake.closed {
		t.Error("converter not closed")
	}
}

func TestRunMain_ConfigNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t).withFake(&fakeConverter{})

	code := runMain(context.Background(), []string{"convert-md", "--config", "./missing/convert-md.yaml"}, env.Environment)
	if code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(env.stderr.String(), "config file not found") {
		t.Errorf("stderr = %q", env.stderr)
	}
}

func TestRunMain_OpenResult(t *testing.T) {
	t.Parallel()

	fake := &fakeConverter{}
	env := newTestEnv(t).withFake(fake)

	code := runMain(context.Background(), []string{"convert-md", "--open", "both", "notes.md"}, env.Environment)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	if len(env.opened) != 1 || env.opened[0] != "notes.pdf" {
		t.Errorf("opened = %v, want [notes.pdf]", env.opened)
	}
}
