package publish_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"bgmsync/internal/publish"
	"bgmsync/internal/services"
	"bgmsync/internal/testsupport"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
}

func runGit(t *testing.T, args ...string) string {
	t.Helper()
	out, err := exec.Command("git", args...).CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

func TestRunRecoversAfterFailedFirstPush(t *testing.T) {
	requireGit(t)
	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	remote := filepath.Join(base, "remote.git")
	testsupport.WriteBytes(t, filepath.Join(dataDir, "data.json"), []byte(`{"bgms":[]}`))
	testsupport.WriteBytes(t, filepath.Join(dataDir, "mark", "m1.png"), []byte("png"))
	testsupport.WriteBytes(t, filepath.Join(dataDir, "bgm", "t1.mp3"), []byte("mp3"))

	repo := publish.NewGitRepo(publish.GitOptions{
		Dir:         dataDir,
		RemoteURL:   remote,
		Branch:      "data",
		AuthorName:  "bgmsync",
		AuthorEmail: "bgmsync@example.com",
	})
	ctx := context.Background()

	// The remote does not exist yet, so the first push fails after the local commit.
	if _, err := newPublisher(repo).Run(ctx); !errors.Is(err, services.ErrPublish) {
		t.Fatalf("expected first publish to fail with ErrPublish, got %v", err)
	}

	runGit(t, "init", "--bare", "--quiet", remote)

	res, err := newPublisher(repo).Run(ctx)
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if res.Outcome != publish.OutcomePublished || res.Files != 3 || res.Batches != 2 {
		t.Fatalf("expected all files republished, got %+v", res)
	}
	tree := runGit(t, "--git-dir", remote, "ls-tree", "-r", "--name-only", "refs/heads/data")
	for _, want := range []string{"data.json", "mark/m1.png", "bgm/t1.mp3"} {
		if !strings.Contains(tree, want) {
			t.Fatalf("remote branch missing %s:\n%s", want, tree)
		}
	}

	res, err = newPublisher(repo).Run(ctx)
	if err != nil {
		t.Fatalf("third publish: %v", err)
	}
	if res.Outcome != publish.OutcomeNoop {
		t.Fatalf("expected noop once the remote is current, got %+v", res)
	}
}
