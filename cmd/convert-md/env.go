package main

import (
	"context"
	"io"
	"os"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/browser"

	convertmd "github.com/alnah/go-convert-md"
)

// Converter is the part of convertmd.Converter the CLI drives.
type Converter interface {
	Run(ctx context.Context, job convertmd.Job) (*convertmd.Result, error)
	Close() error
}

// Compile-time interface implementation check.
var _ Converter = (*convertmd.Converter)(nil)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Getenv  func(string) string
	Environ func() []string

	// NewConverter builds the converter for one invocation.
	NewConverter func(opts ...convertmd.Option) (Converter, error)
	// Open shows a created file in the desktop's default application.
	Open func(path string) error
	// HTTPClient probes the diagram library URL in doctor.
	HTTPClient *retryablehttp.Client
	// LookPath finds a Chrome/Chromium executable.
	LookPath func() (string, bool)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Getenv:  os.Getenv,
		Environ: os.Environ,
		NewConverter: func(opts ...convertmd.Option) (Converter, error) {
			return convertmd.NewConverter(opts...)
		},
		Open:       browser.OpenFile,
		HTTPClient: newHTTPClient(),
		LookPath:   lookPath,
	}
}
