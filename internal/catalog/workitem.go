package catalog

import (
	"strings"

	"bgmsync/internal/assets"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// WorkItem is the per-run projection of an Entry. Duration is written by the
// enricher only, each item by exactly one goroutine.
type WorkItem struct {
	Title     string
	CoverPath string
	AudioPath string
	Duration  float64
	Entry     Entry
}

// TrackID is the filename stem of the item's audio file.
func (w *WorkItem) TrackID() string { return w.Entry.Name }

// MarkID is the identifier of the item's cover image.
func (w *WorkItem) MarkID() string { return w.Entry.Mark }

// SourceURL resolves the entry's source reference. A bare video id becomes a
// watch URL; anything that already looks like a URL is returned unchanged.
func (w *WorkItem) SourceURL() string {
	src := w.Entry.Source
	if strings.Contains(src, "://") {
		return src
	}
	return watchURLPrefix + src
}

// Project builds one WorkItem per entry with a source reference. Entries
// without a source are excluded. Entries whose name or mark is not a plain
// filename stem cannot be placed on disk and are reported in dropped.
func Project(entries []Entry) (items []*WorkItem, dropped []Entry) {
	items = make([]*WorkItem, 0, len(entries))
	for _, entry := range entries {
		if entry.Source == "" {
			continue
		}
		if !placeable(entry.Name) || !placeable(entry.Mark) {
			dropped = append(dropped, entry)
			continue
		}
		items = append(items, &WorkItem{
			Title:     entry.Title,
			CoverPath: assets.MarkRel(entry.Mark),
			AudioPath: assets.TrackRel(entry.Name),
			Entry:     entry,
		})
	}
	return items, dropped
}

// placeable reports whether id can be used as a filename stem directly under
// the mark or track directory. Hidden names are rejected because the asset
// index never sees them.
func placeable(id string) bool {
	if id == "" || strings.HasPrefix(id, ".") {
		return false
	}
	return !strings.ContainsAny(id, "/\\\x00")
}
