package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bgmsync/internal/logging"
	"bgmsync/internal/services"
)

// State is the destination's initialization status.
type State int

const (
	StateUninitialized State = iota
	StateSynced
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSynced:
		return "synced"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome reports whether anything was published.
type Outcome string

const (
	OutcomeNoop      Outcome = "noop"
	OutcomePublished Outcome = "published"
)

// Result summarizes a publish run. Batches counts batches pushed successfully.
type Result struct {
	Outcome Outcome
	Batches int
	Files   int
}

// Options configures the publisher.
type Options struct {
	BatchSize    int
	CommitPrefix string
}

// Publisher drives the publish state machine against a Repo.
type Publisher struct {
	repo   Repo
	opts   Options
	now    func() time.Time
	logger *slog.Logger
}

// NewPublisher constructs a publisher.
func NewPublisher(repo Repo, opts Options, logger *slog.Logger) *Publisher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Publisher{
		repo:   repo,
		opts:   opts,
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, "publish"),
	}
}

// SetClock overrides the commit date source.
func (p *Publisher) SetClock(now func() time.Time) {
	if now != nil {
		p.now = now
	}
}

// CommitMessage renders the message for batch number n.
func (p *Publisher) CommitMessage(n int) string {
	prefix := strings.TrimSpace(p.opts.CommitPrefix)
	msg := fmt.Sprintf("%s #%d", p.now().Format("2006-01-02"), n)
	if prefix == "" {
		return msg
	}
	return prefix + " " + msg
}

// Run prepares the destination, then stages, commits, and force-pushes each batch in order.
func (p *Publisher) Run(ctx context.Context) (Result, error) {
	state, err := p.prepare(ctx)
	if err != nil {
		return Result{}, err
	}
	p.logger.Debug("destination ready", logging.String("state", state.String()))

	changed, err := p.repo.ChangedFiles(ctx)
	if err != nil {
		return Result{}, fail("detect changes", err)
	}
	files := FilterPublishable(changed)
	if len(files) == 0 {
		p.logger.Info("nothing to publish")
		return Result{Outcome: OutcomeNoop}, nil
	}

	batches := FormBatches(files, p.opts.BatchSize)
	p.logger.Info("publishing",
		logging.Int("files", len(files)),
		logging.Int("batches", len(batches)),
	)

	result := Result{Outcome: OutcomePublished, Files: len(files)}
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return result, fail(fmt.Sprintf("batch %d", b.Number), err)
		}
		if err := p.repo.Stage(ctx, b.Paths); err != nil {
			return result, fail(fmt.Sprintf("stage batch %d", b.Number), err)
		}
		if err := p.repo.Commit(ctx, p.CommitMessage(b.Number)); err != nil {
			return result, fail(fmt.Sprintf("commit batch %d", b.Number), err)
		}
		if err := p.repo.Push(ctx); err != nil {
			return result, fail(fmt.Sprintf("push batch %d", b.Number), err)
		}
		result.Batches++
		p.logger.Info("batch pushed",
			logging.Int("batch", b.Number),
			logging.String("kind", string(b.Kind)),
			logging.Int("files", len(b.Paths)),
		)
	}
	return result, nil
}

func (p *Publisher) prepare(ctx context.Context) (State, error) {
	if !p.repo.Initialized() {
		if err := p.repo.Init(ctx); err != nil {
			return StateUninitialized, fail("init", err)
		}
		if err := p.repo.AddRemote(ctx); err != nil {
			return StateUninitialized, fail("add remote", err)
		}
		if err := p.repo.CreateOrphanBranch(ctx); err != nil {
			return StateUninitialized, fail("create orphan branch", err)
		}
		return StateSynced, nil
	}

	exists, err := p.repo.Fetch(ctx)
	if err != nil {
		return StateSynced, fail("fetch", err)
	}
	if !exists {
		p.logger.Warn("remote branch missing, republishing from scratch")
		if err := p.repo.ResetToUnborn(ctx); err != nil {
			return StateSynced, fail("reset to unborn", err)
		}
		return StateSynced, nil
	}
	if err := p.repo.ResetToRemote(ctx); err != nil {
		return StateSynced, fail("reset to remote", err)
	}
	return StateSynced, nil
}

func fail(op string, err error) error {
	return services.Wrap(services.ErrPublish, "publish", op, "", err)
}
