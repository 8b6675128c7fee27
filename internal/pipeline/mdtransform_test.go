package pipeline

import (
	"context"
	"testing"
)

func TestSourcePreprocessor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb\r\n", "a\nb\n"},
		{"lone cr", "a\rb", "a\nb"},
		{"bom stripped", "\ufeff# Title", "# Title"},
		{"already normalized", "```mermaid\ngraph TD\n```\n", "```mermaid\ngraph TD\n```\n"},
		{"blank lines kept", "a\n\n\n\nb", "a\n\n\n\nb"},
	}

	p := &SourcePreprocessor{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := p.PreprocessMarkdown(context.Background(), tt.in); got != tt.want {
				t.Errorf("PreprocessMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSourcePreprocessor_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := "a\r\nb"
	if got := (&SourcePreprocessor{}).PreprocessMarkdown(ctx, in); got != in {
		t.Errorf("PreprocessMarkdown() = %q, want input unchanged", got)
	}
}
