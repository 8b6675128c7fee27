package main

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/hashicorp/go-retryablehttp"

	convertmd "github.com/alnah/go-convert-md"
)

// ---------------------------------------------------------------------------
// Test Infrastructure
// ---------------------------------------------------------------------------

// fakeConverter records runs and returns a canned result.
type fakeConverter struct {
	mu     sync.Mutex
	res    *convertmd.Result
	err    error
	jobs   []convertmd.Job
	closed bool
}

func (f *fakeConverter) Run(_ context.Context, job convertmd.Job) (*convertmd.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	if f.res != nil {
		return f.res, f.err
	}
	return &convertmd.Result{HTML: job.HTMLOutput, PDF: job.PDFOutput}, f.err
}

func (f *fakeConverter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConverter) runs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

// testEnv is an Environment writing to buffers with a fixed environment.
type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	vars   map[string]string
	opened []string
}

// newTestEnv returns an Environment using the real library converter, which
// needs no browser for HTML output.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		vars:   map[string]string{},
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil

	te.Environment = &Environment{
		Stdout: te.stdout,
		Stderr: te.stderr,
		Getenv: func(k string) string { return te.vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(te.vars))
			for k, v := range te.vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		NewConverter: func(opts ...convertmd.Option) (Converter, error) {
			return convertmd.NewConverter(opts...)
		},
		Open: func(path string) error {
			te.opened = append(te.opened, path)
			return nil
		},
		HTTPClient: client,
		LookPath:   func() (string, bool) { return "", false },
	}
	return te
}

// withFake makes the environment hand out conv.
func (te *testEnv) withFake(conv *fakeConverter) *testEnv {
	te.NewConverter = func(...convertmd.Option) (Converter, error) { return conv, nil }
	return te
}
