package pipeline

import (
	"log/slog"

	"bgmsync/internal/assets"
	"bgmsync/internal/catalog"
	"bgmsync/internal/config"
	"bgmsync/internal/download"
	"bgmsync/internal/httpx"
	"bgmsync/internal/marks"
	"bgmsync/internal/media/ffprobe"
	"bgmsync/internal/services"
)

// NewSyncFromConfig wires the production sources: HTTP catalog and marks,
// yt-dlp tracks, ffprobe durations, and the configured mark codec.
func NewSyncFromConfig(cfg *config.Config, previousDigest string, logger *slog.Logger) (*Sync, error) {
	if err := cfg.RequireCatalog(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "config", "catalog", "", err)
	}
	codec, err := marks.CodecFor(cfg.Processing.MarkCodec)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "config", "mark codec", "", err)
	}
	layout := assets.NewLayout(cfg.Paths.DataDir)
	catalogClient := httpx.NewClient(cfg.Catalog.UserAgent, cfg.CatalogTimeout())
	markClient := httpx.NewClient(cfg.Catalog.UserAgent, cfg.RequestTimeout())

	sources := Sources{
		Catalog: catalog.NewFetcher(cfg.Catalog.URL, catalogClient, logger),
		Marks:   download.NewHTTPMarkSource(cfg.Download.MarkURLTemplate, markClient),
		Tracks:  download.NewYtDlpTrackSource(layout.StagingDir(), cfg.Download.YtDlpBinary, cfg.Download.FFmpegBinary),
		Prober:  ffprobe.NewProber(cfg.Processing.FFprobeBinary),
		Codec:   codec,
	}
	return NewSync(layout, sources, Options{
		TrackDelay:     cfg.TrackDelay(),
		BatchSize:      cfg.Processing.BatchSize,
		PreviousDigest: previousDigest,
	}, logger), nil
}
