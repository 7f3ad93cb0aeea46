package publish_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"bgmsync/internal/publish"
	"bgmsync/internal/services"
)

type fakeRepo struct {
	initialized  bool
	remoteExists bool
	changed      []string
	failPushAt   int

	calls   []string
	staged  [][]string
	commits []string
	pushes  int
}

func (f *fakeRepo) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeRepo) Initialized() bool { return f.initialized }

func (f *fakeRepo) Init(context.Context) error { f.record("init"); return nil }

func (f *fakeRepo) AddRemote(context.Context) error { f.record("remote"); return nil }

func (f *fakeRepo) CreateOrphanBranch(context.Context) error { f.record("orphan"); return nil }

func (f *fakeRepo) Fetch(context.Context) (bool, error) {
	f.record("fetch")
	return f.remoteExists, nil
}

func (f *fakeRepo) ResetToRemote(context.Context) error { f.record("reset"); return nil }

func (f *fakeRepo) ResetToUnborn(context.Context) error { f.record("unborn"); return nil }

func (f *fakeRepo) ChangedFiles(context.Context) ([]string, error) { return f.changed, nil }

func (f *fakeRepo) Stage(_ context.Context, paths []string) error {
	f.staged = append(f.staged, append([]string(nil), paths...))
	return nil
}

func (f *fakeRepo) Commit(_ context.Context, message string) error {
	f.commits = append(f.commits, message)
	return nil
}

func (f *fakeRepo) Push(context.Context) error {
	f.pushes++
	if f.failPushAt > 0 && f.pushes == f.failPushAt {
		return errors.New("remote rejected")
	}
	return nil
}

func changeSet(audio, other int) []string {
	var files []string
	for i := 0; i < audio; i++ {
		files = append(files, fmt.Sprintf("bgm/t%03d.mp3", i))
	}
	for i := 0; i < other-1; i++ {
		files = append(files, fmt.Sprintf("mark/m%02d.png", i))
	}
	if other > 0 {
		files = append(files, "data.json")
	}
	return files
}

func newPublisher(repo publish.Repo) *publish.Publisher {
	p := publish.NewPublisher(repo, publish.Options{BatchSize: 100, CommitPrefix: "sync:"}, nil)
	p.SetClock(func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) })
	return p
}

func TestFormBatchesSizing(t *testing.T) {
	batches := publish.FormBatches(changeSet(250, 10), 100)
	want := []struct {
		kind publish.BatchKind
		size int
	}{
		{publish.BatchAssets, 10},
		{publish.BatchAudio, 100},
		{publish.BatchAudio, 100},
		{publish.BatchAudio, 50},
	}
	if len(batches) != len(want) {
		t.Fatalf("expected %d batches, got %d", len(want), len(batches))
	}
	for i, w := range want {
		b := batches[i]
		if b.Number != i+1 || b.Kind != w.kind || len(b.Paths) != w.size {
			t.Fatalf("batch %d: got number=%d kind=%s size=%d", i, b.Number, b.Kind, len(b.Paths))
		}
	}
	if got := publish.FormBatches(changeSet(30, 0), 100); len(got) != 1 || got[0].Number != 1 || got[0].Kind != publish.BatchAudio {
		t.Fatalf("audio-only change set should start numbering at 1, got %+v", got)
	}
}

func TestFilterPublishable(t *testing.T) {
	got := publish.FilterPublishable([]string{
		"data.json", "mark/a.png", "bgm/b.mp3", "error-1.log", ".staging/c.mp3", "notes.txt",
	})
	if strings.Join(got, ",") != "data.json,mark/a.png,bgm/b.mp3" {
		t.Fatalf("unexpected filter result %v", got)
	}
}

func TestRunPublishesBatchesInOrder(t *testing.T) {
	repo := &fakeRepo{initialized: true, remoteExists: true, changed: changeSet(250, 10)}

	res, err := newPublisher(repo).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != publish.OutcomePublished || res.Batches != 4 || res.Files != 260 {
		t.Fatalf("unexpected result %+v", res)
	}
	if strings.Join(repo.calls, ",") != "fetch,reset" {
		t.Fatalf("expected resync of initialized repo, got %v", repo.calls)
	}
	if repo.pushes != 4 || len(repo.commits) != 4 {
		t.Fatalf("expected a push per commit, got commits=%d pushes=%d", len(repo.commits), repo.pushes)
	}
	if repo.commits[0] != "sync: 2026-03-14 #1" || repo.commits[3] != "sync: 2026-03-14 #4" {
		t.Fatalf("unexpected commit messages %v", repo.commits)
	}
	sizes := []int{len(repo.staged[0]), len(repo.staged[1]), len(repo.staged[2]), len(repo.staged[3])}
	if sizes[0] != 10 || sizes[1] != 100 || sizes[2] != 100 || sizes[3] != 50 {
		t.Fatalf("unexpected staged sizes %v", sizes)
	}
	for _, p := range repo.staged[0] {
		if strings.HasSuffix(p, ".mp3") {
			t.Fatal("first batch must not contain audio")
		}
	}
}

func TestRunNoopWhenNothingChanged(t *testing.T) {
	repo := &fakeRepo{initialized: true, remoteExists: true, changed: []string{"error-17.log"}}

	res, err := newPublisher(repo).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != publish.OutcomeNoop {
		t.Fatalf("expected noop, got %+v", res)
	}
	if len(repo.commits) != 0 || repo.pushes != 0 {
		t.Fatalf("noop must not commit or push, got commits=%d pushes=%d", len(repo.commits), repo.pushes)
	}
}

func TestRunInitializesFreshDestination(t *testing.T) {
	repo := &fakeRepo{changed: []string{"data.json"}}

	if _, err := newPublisher(repo).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Join(repo.calls, ",") != "init,remote,orphan" {
		t.Fatalf("unexpected setup sequence %v", repo.calls)
	}
}

func TestRunResetsToUnbornWhenRemoteBranchMissing(t *testing.T) {
	repo := &fakeRepo{initialized: true, changed: []string{"data.json"}}

	if _, err := newPublisher(repo).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Join(repo.calls, ",") != "fetch,unborn" {
		t.Fatalf("expected unborn reset instead of remote reset, got %v", repo.calls)
	}
}

func TestRunAbortsOnPushFailure(t *testing.T) {
	repo := &fakeRepo{initialized: true, remoteExists: true, changed: changeSet(250, 10), failPushAt: 2}

	res, err := newPublisher(repo).Run(context.Background())
	if !errors.Is(err, services.ErrPublish) {
		t.Fatalf("expected ErrPublish, got %v", err)
	}
	if res.Batches != 1 {
		t.Fatalf("expected 1 batch published before failure, got %d", res.Batches)
	}
	if len(repo.commits) != 2 {
		t.Fatalf("remaining batches must not be attempted, got %d commits", len(repo.commits))
	}
}
