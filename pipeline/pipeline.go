// Package pipeline holds the per-file conversion steps and the runner that
// chains them with hooks and retries.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/x-cod3r/Image-Converter-Resizer/core"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
)

// maxRetryDelay caps the doubling backoff between attempts.
const maxRetryDelay = 5 * time.Second

// errNoImage is reported when a step returns neither an image nor an error.
var errNoImage = errors.New("step returned no image")

// Pipeline runs one file through an ordered list of steps.  It is built per
// file by the converter and used from a single goroutine.
type Pipeline struct {
	steps      []core.Step
	hooks      []core.Hook
	maxRetries int
	retryDelay time.Duration
}

func New() *Pipeline { return &Pipeline{} }

// Use appends steps.
func (p *Pipeline) Use(s ...core.Step) *Pipeline {
	p.steps = append(p.steps, s...)
	return p
}

// AddHook registers observers; each sees one Before and one After call per
// step regardless of retries.
func (p *Pipeline) AddHook(h ...core.Hook) *Pipeline {
	p.hooks = append(p.hooks, h...)
	return p
}

// WithRetry retries steps that fail with a retryable error (object storage
// hiccups) up to maxRetries more times.  The wait starts at delay and doubles
// after every attempt.
func (p *Pipeline) WithRetry(maxRetries int, delay time.Duration) *Pipeline {
	p.maxRetries = maxRetries
	p.retryDelay = delay
	return p
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		names = append(names, s.Name())
	}
	return names
}

// Run feeds img through every step and returns the last step's output along
// with the time spent in each step.  It stops at the first failing step.
func (p *Pipeline) Run(ctx context.Context, img *core.ImageData) (*core.ImageData, map[string]time.Duration, error) {
	timings := make(map[string]time.Duration, len(p.steps))
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, timings, apperrors.Wrap(apperrors.CategoryPipeline, step.Name(), err)
		}
		for _, h := range p.hooks {
			h.BeforeStep(ctx, step.Name(), img)
		}

		out, d, err := p.attempt(ctx, step, img)
		timings[step.Name()] = d

		for _, h := range p.hooks {
			h.AfterStep(ctx, step.Name(), out, d, err)
		}
		if err != nil {
			return nil, timings, err
		}
		img = out
	}
	return img, timings, nil
}

// attempt runs step until it succeeds, fails permanently or runs out of
// retries.  d covers the last attempt only.
func (p *Pipeline) attempt(ctx context.Context, step core.Step, img *core.ImageData) (out *core.ImageData, d time.Duration, err error) {
	delay := p.retryDelay
	for try := 0; ; try++ {
		start := time.Now()
		out, err = execute(ctx, step, img)
		d = time.Since(start)

		if err == nil || !apperrors.IsRetryable(err) || try >= p.maxRetries {
			return out, d, err
		}
		if !sleep(ctx, delay) {
			return nil, d, apperrors.Wrap(apperrors.CategoryPipeline, step.Name(), ctx.Err())
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

// execute runs one attempt, turning panics and uncategorised errors into
// pipeline errors named after the step.
func execute(ctx context.Context, step core.Step, img *core.ImageData) (out *core.ImageData, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, apperrors.New(apperrors.CategoryPipeline, step.Name(), fmt.Errorf("panic: %v", r))
		}
	}()

	out, err = step.Execute(ctx, img)
	var pe *apperrors.ProcessingError
	switch {
	case err != nil && !errors.As(err, &pe):
		return nil, apperrors.New(apperrors.CategoryPipeline, step.Name(), err)
	case err == nil && out == nil:
		return nil, apperrors.New(apperrors.CategoryPipeline, step.Name(), errNoImage)
	}
	return out, err
}

// sleep waits d; false means ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
