// Package chatmark writes fenced blocks the IDE chat view renders as widgets.
package chatmark

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IDELogger receives step timings. The IDE client satisfies it.
type IDELogger interface {
	Log(ctx context.Context, level, message string) error
}

// Printer opens Step blocks on an output stream.
type Printer struct {
	w      io.Writer
	logger *zap.Logger
	ide    IDELogger
}

func NewPrinter(w io.Writer, logger *zap.Logger, ide IDELogger) *Printer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Printer{w: w, logger: logger, ide: ide}
}

func (p *Printer) Writer() io.Writer {
	return p.w
}

// Step is a running step shown as
//
//	```Step
//	# title
//	details...
//	```
//
// Everything written to it between Open and Close appears as the step's details.
type Step struct {
	p     *Printer
	ctx   context.Context
	title string
	start time.Time
	once  sync.Once
}

// Open starts a step block.
func (p *Printer) Open(ctx context.Context, title string) *Step {
	fmt.Fprintf(p.w, "\n```Step\n# %s\n", title)
	return &Step{p: p, ctx: ctx, title: title, start: time.Now()}
}

func (s *Step) Write(b []byte) (int, error) {
	return s.p.w.Write(b)
}

// Printf writes a detail line.
func (s *Step) Printf(format string, args ...any) {
	fmt.Fprintf(s.p.w, format, args...)
}

// Close ends the block. Calling it more than once is harmless.
func (s *Step) Close() error {
	var err error
	s.once.Do(func() {
		_, err = io.WriteString(s.p.w, "\n```\n")
		elapsed := time.Since(s.start)
		s.p.logger.Debug("Step finished",
			zap.String("title", s.title),
			zap.Duration("elapsed", elapsed))
		if s.p.ide != nil {
			msg := fmt.Sprintf("Step %s took %.2f seconds", s.title, elapsed.Seconds())
			if logErr := s.p.ide.Log(s.ctx, "debug", msg); logErr != nil {
				s.p.logger.Debug("IDE logging failed", zap.Error(logErr))
			}
		}
	})
	return err
}

// Run wraps fn in a step, closing it whatever fn returns. fn's error takes
// precedence over a failure to close the block.
func (p *Printer) Run(ctx context.Context, title string, fn func(step *Step) error) (err error) {
	step := p.Open(ctx, title)
	defer func() {
		if closeErr := step.Close(); err == nil {
			err = closeErr
		}
	}()
	return fn(step)
}
