package assets_test

import (
	"os"
	"path/filepath"
	"testing"

	"bgmsync/internal/assets"
	"bgmsync/internal/testsupport"
)

func TestBuildCreatesMissingDirectories(t *testing.T) {
	layout := assets.NewLayout(filepath.Join(t.TempDir(), "data"))

	idx, err := assets.Build(layout)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	marks, tracks := idx.Counts()
	if marks != 0 || tracks != 0 {
		t.Fatalf("expected empty index, got marks=%d tracks=%d", marks, tracks)
	}
	for _, dir := range []string{layout.MarkDir(), layout.TrackDir()} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected %s to be created, err=%v", dir, err)
		}
	}
}

func TestBuildFiltersByExtension(t *testing.T) {
	layout := assets.NewLayout(t.TempDir())
	testsupport.WriteFile(t, filepath.Join(layout.MarkDir(), "m1.png"), 4)
	testsupport.WriteFile(t, filepath.Join(layout.MarkDir(), "notes.txt"), 4)
	testsupport.WriteFile(t, filepath.Join(layout.MarkDir(), ".m2.png.tmp-1"), 4)
	testsupport.WriteFile(t, filepath.Join(layout.TrackDir(), "t1.mp3"), 4)
	testsupport.WriteFile(t, filepath.Join(layout.TrackDir(), "t2.webm"), 4)
	testsupport.WriteFile(t, filepath.Join(layout.TrackDir(), "nested", "t3.mp3"), 4)

	idx, err := assets.Build(layout)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !idx.HasMark("m1") || idx.HasMark("notes") || idx.HasMark("m2") {
		t.Fatal("unexpected mark membership")
	}
	if !idx.HasTrack("t1") || idx.HasTrack("t2") || idx.HasTrack("t3") {
		t.Fatal("unexpected track membership")
	}
}

func TestBuildMatchesExtensionExactly(t *testing.T) {
	layout := assets.NewLayout(t.TempDir())
	testsupport.WriteFile(t, filepath.Join(layout.MarkDir(), "X.PNG"), 4)
	testsupport.WriteFile(t, filepath.Join(layout.TrackDir(), "t1.MP3"), 4)

	idx, err := assets.Build(layout)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if marks, tracks := idx.Counts(); marks != 0 || tracks != 0 {
		t.Fatalf("uppercase extensions should not be indexed, got marks=%d tracks=%d", marks, tracks)
	}

	testsupport.WriteFile(t, filepath.Join(layout.MarkDir(), assets.MarkFile("X")), 4)
	idx, err = assets.Build(layout)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !idx.HasMark("X") {
		t.Fatal("expected the downloaded mark to be indexed")
	}
	if marks, _ := idx.Counts(); marks != 1 {
		t.Fatalf("expected exactly one mark entry, got %d", marks)
	}
}

func TestIndexNormalizesUnicode(t *testing.T) {
	idx := assets.NewIndex()
	idx.AddTrack("café")
	if !idx.HasTrack("café") {
		t.Fatal("expected NFD and NFC names to match")
	}
	idx.AddMark("x")
	marks, tracks := idx.Counts()
	if marks != 1 || tracks != 1 {
		t.Fatalf("unexpected counts marks=%d tracks=%d", marks, tracks)
	}
}
