package publish

import (
	"path"
	"sort"
	"strings"

	"bgmsync/internal/batch"
)

// BatchKind names the two batch groups.
type BatchKind string

const (
	BatchAssets BatchKind = "assets"
	BatchAudio  BatchKind = "audio"
)

// DefaultBatchSize is the audio chunk ceiling.
const DefaultBatchSize = 100

// Batch is one commit's worth of paths.
type Batch struct {
	Number int
	Kind   BatchKind
	Paths  []string
}

var publishedExts = map[string]bool{".json": true, ".png": true, ".mp3": true}

// FilterPublishable keeps manifest, mark, and track files, dropping anything
// under a hidden directory such as the download staging area.
func FilterPublishable(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		clean := path.Clean(strings.ReplaceAll(p, "\\", "/"))
		if !publishedExts[strings.ToLower(path.Ext(clean))] || hasHiddenDir(clean) {
			continue
		}
		out = append(out, clean)
	}
	return out
}

func hasHiddenDir(p string) bool {
	dir := path.Dir(p)
	if dir == "." {
		return false
	}
	for _, part := range strings.Split(dir, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// FormBatches groups paths: one batch of every non-audio file, then audio
// files in chunks of size. Batches are numbered from 1 in formation order.
func FormBatches(paths []string, size int) []Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var assets, audio []string
	for _, p := range paths {
		if strings.EqualFold(path.Ext(p), ".mp3") {
			audio = append(audio, p)
		} else {
			assets = append(assets, p)
		}
	}
	sort.Strings(assets)
	sort.Strings(audio)

	var batches []Batch
	if len(assets) > 0 {
		batches = append(batches, Batch{Number: 1, Kind: BatchAssets, Paths: assets})
	}
	for _, chunk := range batch.Chunks(audio, size) {
		batches = append(batches, Batch{
			Number: len(batches) + 1,
			Kind:   BatchAudio,
			Paths:  chunk,
		})
	}
	return batches
}
