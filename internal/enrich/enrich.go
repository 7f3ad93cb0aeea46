// Package enrich measures the play length of every work item's track.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"bgmsync/internal/assets"
	"bgmsync/internal/batch"
	"bgmsync/internal/catalog"
	"bgmsync/internal/diagnostics"
	"bgmsync/internal/logging"
	"bgmsync/internal/services"
)

// DefaultBatchSize bounds concurrent probes.
const DefaultBatchSize = 50

// Prober reports the duration in seconds of a local audio file.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Enricher sets WorkItem.Duration from probe results.
type Enricher struct {
	layout    assets.Layout
	prober    Prober
	batchSize int
	logger    *slog.Logger
}

// New constructs an enricher. A non-positive batchSize selects DefaultBatchSize.
func New(layout assets.Layout, prober Prober, batchSize int, logger *slog.Logger) *Enricher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Enricher{
		layout:    layout,
		prober:    prober,
		batchSize: batchSize,
		logger:    logging.NewComponentLogger(logger, "enrich"),
	}
}

// Enrich probes each item's track. Every item ends with a non-negative
// duration; failures leave it at 0 and produce an audio record.
func (e *Enricher) Enrich(ctx context.Context, items []*catalog.WorkItem) []diagnostics.Record {
	var collector diagnostics.Collector
	err := batch.Run(ctx, items, e.batchSize, func(ctx context.Context, item *catalog.WorkItem) {
		item.Duration = 0
		path := e.layout.Abs(item.AudioPath)
		d, err := e.prober.Duration(ctx, path)
		if err == nil && (math.IsNaN(d) || d < 0) {
			err = fmt.Errorf("invalid duration %v", d)
		}
		if err != nil {
			wrapped := services.Wrap(services.ErrProbe, "enrich", item.TrackID(), "probe "+item.AudioPath, err)
			collector.Add(diagnostics.NewRecord(diagnostics.KindAudio, wrapped))
			e.logger.Debug("probe failed", logging.String("track", item.TrackID()), logging.Error(err))
			return
		}
		item.Duration = d
		e.logger.Debug("probed", logging.String("track", item.TrackID()), logging.Float64("seconds", d))
	})
	if err != nil {
		e.logger.Warn("enrichment interrupted", logging.Error(err))
	}
	records := collector.Records()
	e.logger.Info("durations probed",
		logging.Int("items", len(items)),
		logging.Int("failed", len(records)),
	)
	return records
}
