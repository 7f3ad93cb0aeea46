package assets

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Index records which mark and track filenames exist locally. It is safe for
// concurrent use; the downloader is the only writer.
type Index struct {
	mu     sync.RWMutex
	marks  map[string]struct{}
	tracks map[string]struct{}
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		marks:  make(map[string]struct{}),
		tracks: make(map[string]struct{}),
	}
}

// Build scans the mark and track directories non-recursively. Both directories
// are created first, so a fresh data directory yields an empty index.
func Build(layout Layout) (*Index, error) {
	idx := NewIndex()
	if err := scanDir(layout.MarkDir(), MarkExt, idx.marks); err != nil {
		return nil, err
	}
	if err := scanDir(layout.TrackDir(), TrackExt, idx.tracks); err != nil {
		return nil, err
	}
	return idx, nil
}

func scanDir(dir, ext string, into map[string]struct{}) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		// Exact extension match: downloads always write the lowercase form
		// that HasMark and HasTrack look up.
		if strings.HasPrefix(name, ".") || extOf(name) != ext {
			continue
		}
		into[normalize(name)] = struct{}{}
	}
	return nil
}

func extOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}

// normalize folds names to NFC so decomposed filenames (macOS) match catalog ids.
func normalize(name string) string {
	return norm.NFC.String(name)
}

func (i *Index) HasMark(markID string) bool { return i.has(i.marks, MarkFile(markID)) }

func (i *Index) HasTrack(trackID string) bool { return i.has(i.tracks, TrackFile(trackID)) }

func (i *Index) AddMark(markID string) { i.add(i.marks, MarkFile(markID)) }

func (i *Index) AddTrack(trackID string) { i.add(i.tracks, TrackFile(trackID)) }

// Counts returns the number of marks and tracks present.
func (i *Index) Counts() (marks, tracks int) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.marks), len(i.tracks)
}

func (i *Index) has(set map[string]struct{}, name string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := set[normalize(name)]
	return ok
}

func (i *Index) add(set map[string]struct{}, name string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	set[normalize(name)] = struct{}{}
}
