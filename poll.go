package convertmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cdr.dev/slog"

	"github.com/alnah/go-convert-md/internal/hints"
	"github.com/alnah/go-convert-md/internal/log"
)

// errRenderTimeout reports diagrams still pending when the poll bound is
// reached. It is soft: the caller logs it and prints anyway.
var errRenderTimeout = errors.New("diagram rendering timed out")

// diagramStatus is one observation of the page.
type diagramStatus struct {
	Loaded   bool // the diagram library is present on the page
	Total    int  // diagram elements
	Rendered int  // diagram elements holding an <svg>
}

// done reports whether there is nothing left to wait for.
func (s diagramStatus) done() bool {
	return !s.Loaded || s.Rendered >= s.Total
}

// diagramProbe observes the page.
type diagramProbe func(ctx context.Context) (diagramStatus, error)

// clock abstracts time for the poll loop.
type clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// pollDiagrams waits wait.InitialDelay, then probes every wait.PollInterval
// until every diagram is rendered, the library is found missing, or more than
// wait.PollTimeout has passed since the call started. The start time is taken
// once, before the initial delay.
func pollDiagrams(ctx context.Context, probe diagramProbe, wait RenderWait, clk clock) (diagramStatus, error) {
	start := clk.Now()

	if err := sleep(ctx, clk, wait.InitialDelay); err != nil {
		return diagramStatus{}, err
	}

	for {
		status, err := probe(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return status, ctxErr
			}
			return status, err
		}
		if status.done() {
			return status, nil
		}
		if elapsed := clk.Now().Sub(start); elapsed > wait.PollTimeout {
			return status, fmt.Errorf("%w: %d of %d rendered after %s",
				errRenderTimeout, status.Rendered, status.Total, elapsed)
		}
		if err := sleep(ctx, clk, wait.PollInterval); err != nil {
			return status, err
		}
	}
}

// awaitDiagrams polls until the page's diagrams are ready, then waits the
// settle delay. A render timeout or a missing library is logged and capture
// goes on; probe failures are wrapped with ErrPageLoad.
func awaitDiagrams(ctx context.Context, probe diagramProbe, opts pdfOptions, clk clock) error {
	status, err := pollDiagrams(ctx, probe, opts.Wait, clk)
	switch {
	case errors.Is(err, errRenderTimeout):
		log.Warn(ctx, "diagrams still rendering, printing anyway"+hints.ForDiagramTimeout(opts.ScriptURL),
			slog.F("rendered", status.Rendered),
			slog.F("total", status.Total),
			slog.F("timeout", opts.Wait.PollTimeout),
		)
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: checking diagrams: %v", ErrPageLoad, err)
	case !status.Loaded:
		log.Warn(ctx, "diagram library not loaded, diagrams print as source", slog.F("script_url", opts.ScriptURL))
	default:
		log.Debug(ctx, "diagrams rendered", slog.F("total", status.Total))
	}

	return sleep(ctx, clk, opts.Wait.Settle)
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, clk clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clk.After(d):
		return nil
	}
}
