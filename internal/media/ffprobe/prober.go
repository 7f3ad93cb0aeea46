package ffprobe

import (
	"context"
	"fmt"
	"math"
)

// Prober measures track durations with ffprobe.
type Prober struct {
	binary   string
	executor Executor
}

// Option configures the prober.
type Option func(*Prober)

// WithExecutor injects a custom executor (used in tests).
func WithExecutor(exec Executor) Option {
	return func(p *Prober) {
		if exec != nil {
			p.executor = exec
		}
	}
}

// NewProber returns a prober invoking binary ("ffprobe" when empty).
func NewProber(binary string, opts ...Option) *Prober {
	p := &Prober{binary: binary, executor: commandExecutor{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Duration returns the play length of path in fractional seconds. Files
// without an audio stream or with an undefined or negative duration fail.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	result, err := inspect(ctx, p.executor, p.binary, path)
	if err != nil {
		return 0, err
	}
	if result.AudioStreamCount() == 0 {
		return 0, fmt.Errorf("ffprobe: %s has no audio stream", path)
	}
	d := result.DurationSeconds()
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return 0, fmt.Errorf("ffprobe: %s reports invalid duration %q", path, result.Format.Duration)
	}
	return d, nil
}
