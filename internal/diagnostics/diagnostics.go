// Package diagnostics collects non-fatal per-item failures during a sync run and
// writes them to a timestamped error log in the data directory.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"bgmsync/internal/fileutil"
)

// Kind tags the asset a failure belongs to.
type Kind string

const (
	KindMark  Kind = "mark"
	KindAudio Kind = "audio"
)

// Record is one recorded failure.
type Record struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// NewRecord builds a record from err.
func NewRecord(kind Kind, err error) Record {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Record{Kind: kind, Message: msg}
}

// Collector is an append-only, insertion-ordered record list safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	records []Record
}

func (c *Collector) Add(record Record) {
	c.mu.Lock()
	c.records = append(c.records, record)
	c.mu.Unlock()
}

// Extend appends records in order.
func (c *Collector) Extend(records []Record) {
	if len(records) == 0 {
		return
	}
	c.mu.Lock()
	c.records = append(c.records, records...)
	c.mu.Unlock()
}

// Records returns a copy of the collected records.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Record(nil), c.records...)
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// CountByKind returns the number of records per kind.
func (c *Collector) CountByKind() map[Kind]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := make(map[Kind]int, 2)
	for _, r := range c.records {
		counts[r.Kind]++
	}
	return counts
}

// LogName returns the diagnostic filename for a flush at now.
func LogName(now time.Time) string {
	return "error-" + strconv.FormatInt(now.UnixMilli(), 10) + ".log"
}

// Flush writes the records as a JSON array to dir/error-<unixmillis>.log. It
// returns "" and writes nothing when there are no records.
func Flush(dir string, records []Record, now time.Time) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode diagnostics: %w", err)
	}
	path := filepath.Join(dir, LogName(now))
	if err := fileutil.WriteFileAtomic(path, payload); err != nil {
		return "", fmt.Errorf("write diagnostics: %w", err)
	}
	return path, nil
}
