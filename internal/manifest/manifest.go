// Package manifest serializes the published data.json document.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"bgmsync/internal/catalog"
	"bgmsync/internal/fileutil"
	"bgmsync/internal/marks"
)

// Track is one published catalog item.
type Track struct {
	Title    string          `json:"title"`
	Cover    string          `json:"cover"`
	Duration float64         `json:"duration"`
	Src      string          `json:"src"`
	Data     json.RawMessage `json:"data"`
}

// Manifest is the complete data.json document. Marks values are the
// compressed mark bytes, base64 encoded by encoding/json.
type Manifest struct {
	Bgms    []Track           `json:"bgms"`
	Marks   map[string][]byte `json:"marks"`
	BuiltAt int64             `json:"builtAt"`
}

// Build assembles a manifest from the enriched work items and the mark index.
func Build(items []*catalog.WorkItem, index marks.Index, builtAt time.Time) (Manifest, error) {
	m := Manifest{
		Bgms:    make([]Track, 0, len(items)),
		Marks:   make(map[string][]byte, len(index)),
		BuiltAt: builtAt.UnixMilli(),
	}
	for _, item := range items {
		data, err := json.Marshal(item.Entry)
		if err != nil {
			return Manifest{}, fmt.Errorf("encode entry %s: %w", item.TrackID(), err)
		}
		m.Bgms = append(m.Bgms, Track{
			Title:    item.Title,
			Cover:    item.CoverPath,
			Duration: item.Duration,
			Src:      item.AudioPath,
			Data:     data,
		})
	}
	for id, packed := range index {
		m.Marks[id] = packed
	}
	return m, nil
}

// Write replaces the manifest at path wholesale.
func Write(path string, m Manifest) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Read decodes the manifest at path.
func Read(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}
