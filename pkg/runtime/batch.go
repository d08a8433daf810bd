package runtime

import (
	"bytes"
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thomasrohde/lox/go/pkg/evaluator"
)

// Source is one named script for RunAll.
type Source struct {
	Name string
	Text string
}

// Outcome is the result of one script run by RunAll.
type Outcome struct {
	Name   string
	Output string
	Err    error
}

// RunAll runs independent scripts concurrently, at most limit at a time
// (limit < 1 means no limit). Every script gets its own interpreter and
// global scope and its printed output is captured separately. Script errors
// are reported per Outcome; the returned error is only set when ctx ends
// before all scripts have started.
func (rt *Runtime) RunAll(ctx context.Context, sources []Source, limit int) ([]Outcome, error) {
	outcomes := make([]Outcome, len(sources))

	// The trace callback is shared, so calls into it are serialized.
	var traceMu sync.Mutex
	trace := rt.trace
	if trace != nil {
		trace = func(ev evaluator.TraceEvent) {
			traceMu.Lock()
			defer traceMu.Unlock()
			rt.trace(ev)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var out bytes.Buffer
			child := &Runtime{
				stdout: &out,
				logger: rt.logger.With(zap.String("script", src.Name)),
				runID:  rt.runID + "/" + src.Name,
				trace:  trace,
			}
			err := child.Run(gctx, src.Text, src.Name)
			outcomes[i] = Outcome{Name: src.Name, Output: out.String(), Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// FirstError returns the error of the first failed outcome in input order.
func FirstError(outcomes []Outcome) error {
	for _, o := range outcomes {
		if o.Err != nil {
			return o.Err
		}
	}
	return nil
}
