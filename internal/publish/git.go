package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Repo is the version-control surface the publisher drives.
type Repo interface {
	Initialized() bool
	Init(ctx context.Context) error
	AddRemote(ctx context.Context) error
	CreateOrphanBranch(ctx context.Context) error
	// Fetch updates the remote-tracking ref and reports whether the remote branch exists.
	Fetch(ctx context.Context) (bool, error)
	ResetToRemote(ctx context.Context) error
	// ResetToUnborn discards local commits and empties the index so every
	// publishable file is reported as new again.
	ResetToUnborn(ctx context.Context) error
	ChangedFiles(ctx context.Context) ([]string, error)
	Stage(ctx context.Context, paths []string) error
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context) error
}

// Executor runs a git command in dir and returns its stdout.
type Executor interface {
	Run(ctx context.Context, dir, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, dir, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return out, err
		}
		return out, fmt.Errorf("%w: %s", err, msg)
	}
	return out, nil
}

// GitOptions describes the destination.
type GitOptions struct {
	Dir         string
	Binary      string
	RemoteName  string
	RemoteURL   string
	Branch      string
	AuthorName  string
	AuthorEmail string
}

// GitRepo implements Repo with the git CLI.
type GitRepo struct {
	opts     GitOptions
	executor Executor
}

// GitOption configures a GitRepo.
type GitOption func(*GitRepo)

// WithExecutor injects a custom executor (used in tests).
func WithExecutor(exec Executor) GitOption {
	return func(r *GitRepo) {
		if exec != nil {
			r.executor = exec
		}
	}
}

// NewGitRepo constructs a git-backed repo rooted at opts.Dir.
func NewGitRepo(opts GitOptions, options ...GitOption) *GitRepo {
	if opts.Binary == "" {
		opts.Binary = "git"
	}
	if opts.RemoteName == "" {
		opts.RemoteName = "origin"
	}
	r := &GitRepo{opts: opts, executor: commandExecutor{}}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *GitRepo) git(ctx context.Context, args ...string) ([]byte, error) {
	out, err := r.executor.Run(ctx, r.opts.Dir, r.opts.Binary, args)
	if err != nil {
		return out, fmt.Errorf("git %s: %w", subcommand(args), err)
	}
	return out, nil
}

// subcommand returns the first argument after any leading "-c key=value" pairs.
func subcommand(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "-c" {
			i++
			continue
		}
		return args[i]
	}
	return ""
}

func (r *GitRepo) Initialized() bool {
	_, err := os.Stat(filepath.Join(r.opts.Dir, ".git"))
	return err == nil
}

func (r *GitRepo) Init(ctx context.Context) error {
	if err := os.MkdirAll(r.opts.Dir, 0o755); err != nil {
		return err
	}
	_, err := r.git(ctx, "init")
	return err
}

func (r *GitRepo) AddRemote(ctx context.Context) error {
	if strings.TrimSpace(r.opts.RemoteURL) == "" {
		return errors.New("remote url not configured")
	}
	_, err := r.git(ctx, "remote", "add", r.opts.RemoteName, r.opts.RemoteURL)
	return err
}

func (r *GitRepo) CreateOrphanBranch(ctx context.Context) error {
	_, err := r.git(ctx, "checkout", "--orphan", r.opts.Branch)
	return err
}

func (r *GitRepo) Fetch(ctx context.Context) (bool, error) {
	out, err := r.git(ctx, "ls-remote", "--heads", r.opts.RemoteName, r.opts.Branch)
	if err != nil {
		return false, err
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return false, nil
	}
	if _, err := r.git(ctx, "fetch", r.opts.RemoteName, r.opts.Branch); err != nil {
		return true, err
	}
	return true, nil
}

// ResetToRemote points HEAD at the branch and moves the ref and index to the
// remote tip. The working tree is kept: it holds the files being published.
func (r *GitRepo) ResetToRemote(ctx context.Context) error {
	if _, err := r.git(ctx, "symbolic-ref", "HEAD", "refs/heads/"+r.opts.Branch); err != nil {
		return err
	}
	_, err := r.git(ctx, "reset", "--mixed", "--quiet", r.opts.RemoteName+"/"+r.opts.Branch)
	return err
}

// ResetToUnborn returns the branch to its orphan state after a first push
// that never reached the remote. The working tree is kept.
func (r *GitRepo) ResetToUnborn(ctx context.Context) error {
	ref := "refs/heads/" + r.opts.Branch
	if _, err := r.git(ctx, "symbolic-ref", "HEAD", ref); err != nil {
		return err
	}
	// rev-parse fails while the branch is still unborn.
	if _, err := r.git(ctx, "rev-parse", "--verify", "--quiet", ref); err == nil {
		if _, err := r.git(ctx, "update-ref", "-d", ref); err != nil {
			return err
		}
	}
	_, err := r.git(ctx, "read-tree", "--empty")
	return err
}

func (r *GitRepo) ChangedFiles(ctx context.Context) ([]string, error) {
	out, err := r.git(ctx, "ls-files", "-z", "--modified", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var files []string
	for _, name := range bytes.Split(out, []byte{0}) {
		path := string(name)
		if path == "" {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}
	return files, nil
}

func (r *GitRepo) Stage(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := r.git(ctx, append([]string{"add", "--"}, paths...)...)
	return err
}

func (r *GitRepo) Commit(ctx context.Context, message string) error {
	args := []string{
		"-c", "user.name=" + r.opts.AuthorName,
		"-c", "user.email=" + r.opts.AuthorEmail,
		"commit", "--quiet", "-m", message,
	}
	_, err := r.git(ctx, args...)
	return err
}

func (r *GitRepo) Push(ctx context.Context) error {
	_, err := r.git(ctx, "push", "--force", r.opts.RemoteName, "HEAD:refs/heads/"+r.opts.Branch)
	return err
}
