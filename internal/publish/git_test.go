package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type scriptedExecutor struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (s *scriptedExecutor) Run(_ context.Context, _ string, _ string, args []string) ([]byte, error) {
	call := strings.Join(args, " ")
	s.calls = append(s.calls, call)
	sub := subcommand(args)
	return []byte(s.outputs[sub]), s.errs[sub]
}

func newTestRepo(t *testing.T, exec Executor) *GitRepo {
	t.Helper()
	return NewGitRepo(GitOptions{
		Dir:         t.TempDir(),
		RemoteURL:   "git@example.com:me/data.git",
		Branch:      "data",
		AuthorName:  "bot",
		AuthorEmail: "bot@example.com",
	}, WithExecutor(exec))
}

func TestGitRepoChangedFilesSplitsNUL(t *testing.T) {
	exec := &scriptedExecutor{outputs: map[string]string{
		"ls-files": "data.json\x00bgm/a b.mp3\x00data.json\x00",
	}}
	files, err := newTestRepo(t, exec).ChangedFiles(context.Background())
	if err != nil {
		t.Fatalf("ChangedFiles: %v", err)
	}
	if strings.Join(files, "|") != "data.json|bgm/a b.mp3" {
		t.Fatalf("unexpected files %q", files)
	}
}

func TestGitRepoFetchSkipsMissingBranch(t *testing.T) {
	exec := &scriptedExecutor{outputs: map[string]string{}}
	exists, err := newTestRepo(t, exec).Fetch(context.Background())
	if err != nil || exists {
		t.Fatalf("expected missing branch, got exists=%v err=%v", exists, err)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("fetch should not run when branch is absent, calls=%v", exec.calls)
	}

	exec.outputs["ls-remote"] = "abc123\trefs/heads/data\n"
	exists, err = newTestRepo(t, exec).Fetch(context.Background())
	if err != nil || !exists {
		t.Fatalf("expected existing branch, got exists=%v err=%v", exists, err)
	}
	if last := exec.calls[len(exec.calls)-1]; last != "fetch origin data" {
		t.Fatalf("unexpected fetch call %q", last)
	}
}

func TestGitRepoCommandShapes(t *testing.T) {
	exec := &scriptedExecutor{outputs: map[string]string{}}
	repo := newTestRepo(t, exec)
	ctx := context.Background()

	if repo.Initialized() {
		t.Fatal("fresh dir should be uninitialized")
	}
	if err := os.Mkdir(filepath.Join(repo.opts.Dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if !repo.Initialized() {
		t.Fatal("expected initialized after .git exists")
	}

	_ = repo.ResetToRemote(ctx)
	_ = repo.Stage(ctx, []string{"data.json", "mark/a.png"})
	_ = repo.Commit(ctx, "sync: 2026-01-01 #1")
	_ = repo.Push(ctx)

	want := []string{
		"symbolic-ref HEAD refs/heads/data",
		"reset --mixed --quiet origin/data",
		"add -- data.json mark/a.png",
		"-c user.name=bot -c user.email=bot@example.com commit --quiet -m sync: 2026-01-01 #1",
		"push --force origin HEAD:refs/heads/data",
	}
	if strings.Join(exec.calls, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected git calls:\n%s", strings.Join(exec.calls, "\n"))
	}
}

func TestGitRepoResetToUnbornShapes(t *testing.T) {
	exec := &scriptedExecutor{outputs: map[string]string{}}
	if err := newTestRepo(t, exec).ResetToUnborn(context.Background()); err != nil {
		t.Fatalf("ResetToUnborn: %v", err)
	}
	want := []string{
		"symbolic-ref HEAD refs/heads/data",
		"rev-parse --verify --quiet refs/heads/data",
		"update-ref -d refs/heads/data",
		"read-tree --empty",
	}
	if strings.Join(exec.calls, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected git calls:\n%s", strings.Join(exec.calls, "\n"))
	}

	unborn := &scriptedExecutor{
		outputs: map[string]string{},
		errs:    map[string]error{"rev-parse": errors.New("exit status 1")},
	}
	if err := newTestRepo(t, unborn).ResetToUnborn(context.Background()); err != nil {
		t.Fatalf("ResetToUnborn on unborn branch: %v", err)
	}
	for _, call := range unborn.calls {
		if strings.HasPrefix(call, "update-ref") {
			t.Fatalf("unborn branch has no ref to delete, calls=%v", unborn.calls)
		}
	}
}

func TestGitRepoErrorsNameSubcommand(t *testing.T) {
	exec := &scriptedExecutor{
		outputs: map[string]string{},
		errs:    map[string]error{"commit": errors.New("exit status 1")},
	}
	err := newTestRepo(t, exec).Commit(context.Background(), "sync: 2026-01-01 #1")
	if err == nil || !strings.HasPrefix(err.Error(), "git commit: ") {
		t.Fatalf("expected error labelled with the commit subcommand, got %v", err)
	}
	if got := subcommand([]string{"-c", "user.name=x", "-c", "user.email=y", "commit", "-m", "m"}); got != "commit" {
		t.Fatalf("subcommand = %q", got)
	}
}
