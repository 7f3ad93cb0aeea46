package enrich_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"bgmsync/internal/assets"
	"bgmsync/internal/catalog"
	"bgmsync/internal/diagnostics"
	"bgmsync/internal/enrich"
)

type stubProber struct {
	mu        sync.Mutex
	durations map[string]float64
	calls     int
}

func (s *stubProber) Duration(_ context.Context, path string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	d, ok := s.durations[filepath.Base(path)]
	if !ok {
		return 0, errors.New("no such file")
	}
	return d, nil
}

func items(names ...string) []*catalog.WorkItem {
	out, _ := catalog.Project(entries(names...))
	return out
}

func entries(names ...string) []catalog.Entry {
	list := make([]catalog.Entry, 0, len(names))
	for _, n := range names {
		list = append(list, catalog.Entry{Name: n, Mark: "m", Source: "src-" + n})
	}
	return list
}

func TestEnrichSetsDurationsAndRecordsFailures(t *testing.T) {
	prober := &stubProber{durations: map[string]float64{
		"ok.mp3":  201.5,
		"nan.mp3": math.NaN(),
		"neg.mp3": -4,
	}}
	work := items("ok", "missing", "nan", "neg")
	e := enrich.New(assets.NewLayout(t.TempDir()), prober, 2, nil)

	records := e.Enrich(context.Background(), work)

	if work[0].Duration != 201.5 {
		t.Fatalf("unexpected duration %v", work[0].Duration)
	}
	for _, item := range work {
		if math.IsNaN(item.Duration) || item.Duration < 0 {
			t.Fatalf("duration for %s must be non-negative, got %v", item.TrackID(), item.Duration)
		}
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 audio records, got %d", len(records))
	}
	for _, r := range records {
		if r.Kind != diagnostics.KindAudio {
			t.Fatalf("unexpected record kind %q", r.Kind)
		}
		if !strings.Contains(r.Message, "probe failure") {
			t.Fatalf("expected probe marker in %q", r.Message)
		}
	}
	if prober.calls != 4 {
		t.Fatalf("expected one probe per item, got %d", prober.calls)
	}
}

func TestEnrichLargeCatalogInBatches(t *testing.T) {
	names := make([]string, 0, 120)
	durations := map[string]float64{}
	for i := 0; i < 120; i++ {
		name := "t" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		names = append(names, name)
		durations[name+".mp3"] = float64(i)
	}
	prober := &stubProber{durations: durations}
	work := items(names...)

	records := enrich.New(assets.NewLayout(t.TempDir()), prober, 0, nil).Enrich(context.Background(), work)
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
	if prober.calls != 120 {
		t.Fatalf("expected 120 probes, got %d", prober.calls)
	}
}
