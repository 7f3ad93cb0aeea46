package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bgmsync/internal/assets"
	"bgmsync/internal/catalog"
	"bgmsync/internal/diagnostics"
	"bgmsync/internal/download"
	"bgmsync/internal/enrich"
	"bgmsync/internal/logging"
	"bgmsync/internal/manifest"
	"bgmsync/internal/marks"
	"bgmsync/internal/services"
)

// CatalogSource fetches the remote catalog.
type CatalogSource interface {
	Fetch(ctx context.Context) (catalog.Catalog, error)
}

// Sources bundles the external collaborators of a sync run.
type Sources struct {
	Catalog CatalogSource
	Marks   download.MarkSource
	Tracks  download.TrackSource
	Prober  enrich.Prober
	Codec   marks.Codec
}

// Options tunes a sync run.
type Options struct {
	TrackDelay time.Duration
	BatchSize  int
	// PreviousDigest is the catalog digest of the last successful sync, if any.
	PreviousDigest  string
	DownloadOptions []download.Option
}

// Summary describes a finished sync run.
type Summary struct {
	Entries        int
	Items          int
	Dropped        int
	Skipped        int
	MarksFetched   int
	TracksFetched  int
	MarksEncoded   int
	Records        []diagnostics.Record
	Digest         string
	CatalogChanged bool
	ManifestPath   string
	ErrorLog       string
}

// Sync orchestrates one run against a data directory.
type Sync struct {
	layout  assets.Layout
	sources Sources
	opts    Options
	now     func() time.Time
	base    *slog.Logger
	logger  *slog.Logger
}

// NewSync constructs a sync run.
func NewSync(layout assets.Layout, sources Sources, opts Options, logger *slog.Logger) *Sync {
	if sources.Codec == nil {
		sources.Codec, _ = marks.CodecFor(marks.CodecZstd)
	}
	return &Sync{
		layout:  layout,
		sources: sources,
		opts:    opts,
		now:     time.Now,
		base:    logger,
		logger:  logging.NewComponentLogger(logger, "sync"),
	}
}

// SetClock overrides the manifest and error log timestamp source.
func (s *Sync) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Run executes the stages in order.
func (s *Sync) Run(ctx context.Context) (Summary, error) {
	var (
		summary   Summary
		collector diagnostics.Collector
		started   = s.now()
	)

	index, err := assets.Build(s.layout)
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "index", "scan data dir", "", err)
	}
	markCount, trackCount := index.Counts()
	s.stageLogger(ctx, "index").Info("local assets indexed",
		logging.Int("marks", markCount),
		logging.Int("tracks", trackCount),
	)

	cat, err := s.sources.Catalog.Fetch(services.WithStage(ctx, "catalog"))
	if err != nil {
		return summary, err
	}
	summary.Entries = len(cat.Entries)
	summary.Digest = cat.Digest
	summary.CatalogChanged = s.opts.PreviousDigest == "" || s.opts.PreviousDigest != cat.Digest
	if !summary.CatalogChanged {
		s.stageLogger(ctx, "catalog").Info("catalog unchanged since last sync")
	}

	items, dropped := catalog.Project(cat.Entries)
	summary.Items = len(items)
	summary.Dropped = len(dropped)
	for _, entry := range dropped {
		s.stageLogger(ctx, "catalog").Debug("entry name or mark is not a plain filename",
			logging.String("name", entry.Name),
			logging.String("mark", entry.Mark),
		)
	}

	downloader := download.New(s.layout, index, s.sources.Marks, s.sources.Tracks, s.opts.TrackDelay, s.base, s.opts.DownloadOptions...)
	report := downloader.DownloadMissing(services.WithStage(ctx, "download"), items)
	collector.Extend(report.Records)
	summary.Skipped = report.Skipped
	summary.MarksFetched = report.Marks
	summary.TracksFetched = report.Tracks

	enricher := enrich.New(s.layout, s.sources.Prober, s.opts.BatchSize, s.base)
	collector.Extend(enricher.Enrich(services.WithStage(ctx, "enrich"), items))

	encoder := marks.NewEncoder(s.layout, s.sources.Codec, s.opts.BatchSize, s.base)
	markIndex, records := encoder.Encode(services.WithStage(ctx, "encode"), items, index)
	collector.Extend(records)
	summary.MarksEncoded = len(markIndex)

	if err := ctx.Err(); err != nil {
		summary.Records = collector.Records()
		return summary, err
	}

	built, err := manifest.Build(items, markIndex, s.now())
	if err != nil {
		return summary, services.Wrap(services.ErrExternalTool, "manifest", "build", "", err)
	}
	summary.ManifestPath = s.layout.ManifestPath()
	if err := manifest.Write(summary.ManifestPath, built); err != nil {
		return summary, services.Wrap(services.ErrExternalTool, "manifest", "write", "", err)
	}
	s.stageLogger(ctx, "manifest").Info("manifest written",
		logging.String("path", summary.ManifestPath),
		logging.Int("bgms", len(built.Bgms)),
		logging.Int("marks", len(built.Marks)),
		logging.Duration("elapsed", s.now().Sub(started)),
	)

	summary.Records = collector.Records()
	logPath, err := diagnostics.Flush(s.layout.Root, summary.Records, s.now())
	if err != nil {
		s.stageLogger(ctx, "diagnostics").Error("error log flush failed", logging.Error(err))
	} else if logPath != "" {
		summary.ErrorLog = logPath
		s.stageLogger(ctx, "diagnostics").Warn("run finished with item failures",
			logging.Int("records", len(summary.Records)),
			logging.String("path", logPath),
		)
	}
	return summary, nil
}

func (s *Sync) stageLogger(ctx context.Context, stage string) *slog.Logger {
	return logging.WithContext(services.WithStage(ctx, stage), s.logger)
}

// String renders a one-line summary.
func (s Summary) String() string {
	return fmt.Sprintf("%d items (%d skipped, %d marks and %d tracks fetched), %d marks encoded, %d failures",
		s.Items, s.Skipped, s.MarksFetched, s.TracksFetched, s.MarksEncoded, len(s.Records))
}
