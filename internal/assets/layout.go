// Package assets describes the data directory layout and tracks which mark
// images and audio tracks are already present locally.
//
// The Index built at the start of a run is the dedup baseline for the
// downloader: membership only grows during a run, and it is consulted purely
// for skip decisions.
package assets

import (
	"path/filepath"
)

const (
	ManifestName = "data.json"
	MarkDirName  = "mark"
	TrackDirName = "bgm"
	stagingName  = ".staging"

	MarkExt  = ".png"
	TrackExt = ".mp3"
)

// Layout resolves paths inside a data directory.
type Layout struct {
	Root string
}

// NewLayout returns the layout rooted at dir.
func NewLayout(dir string) Layout {
	return Layout{Root: filepath.Clean(dir)}
}

func (l Layout) ManifestPath() string { return filepath.Join(l.Root, ManifestName) }

func (l Layout) MarkDir() string { return filepath.Join(l.Root, MarkDirName) }

func (l Layout) TrackDir() string { return filepath.Join(l.Root, TrackDirName) }

// StagingDir receives in-progress track downloads before they are moved into TrackDir.
func (l Layout) StagingDir() string { return filepath.Join(l.Root, stagingName) }

// MarkFile returns the base filename for a mark identifier.
func MarkFile(markID string) string { return markID + MarkExt }

// TrackFile returns the base filename for a track identifier.
func TrackFile(trackID string) string { return trackID + TrackExt }

// MarkRel is the manifest-relative path of a mark image.
func MarkRel(markID string) string { return MarkDirName + "/" + MarkFile(markID) }

// TrackRel is the manifest-relative path of an audio track.
func TrackRel(trackID string) string { return TrackDirName + "/" + TrackFile(trackID) }

// Abs resolves a manifest-relative path against the data directory.
func (l Layout) Abs(rel string) string {
	return filepath.Join(l.Root, filepath.FromSlash(rel))
}
