package download

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bgmsync/internal/assets"
	"bgmsync/internal/catalog"
	"bgmsync/internal/diagnostics"
	"bgmsync/internal/logging"
	"bgmsync/internal/services"
)

// Report summarizes one DownloadMissing pass.
type Report struct {
	Records []diagnostics.Record
	Skipped int
	Marks   int
	Tracks  int
}

// Downloader fills gaps in the local asset directories. It is the only writer
// of the asset index during a run.
type Downloader struct {
	layout assets.Layout
	index  *assets.Index
	marks  MarkSource
	tracks TrackSource
	delay  time.Duration
	sleep  func(context.Context, time.Duration) error
	logger *slog.Logger
}

// Option configures the downloader.
type Option func(*Downloader)

// WithSleep replaces the track pacing wait (used in tests).
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(d *Downloader) {
		if fn != nil {
			d.sleep = fn
		}
	}
}

// New constructs a downloader. delay is the fixed wait before every track fetch.
func New(layout assets.Layout, index *assets.Index, marks MarkSource, tracks TrackSource, delay time.Duration, logger *slog.Logger, opts ...Option) *Downloader {
	d := &Downloader{
		layout: layout,
		index:  index,
		marks:  marks,
		tracks: tracks,
		delay:  delay,
		sleep:  sleepContext,
		logger: logging.NewComponentLogger(logger, "download"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadMissing fetches absent marks and tracks item by item. Failures are
// returned as records and never stop the loop; only ctx cancellation does.
func (d *Downloader) DownloadMissing(ctx context.Context, items []*catalog.WorkItem) Report {
	var report Report
	for _, item := range items {
		if ctx.Err() != nil {
			d.logger.Warn("download interrupted", logging.Error(ctx.Err()))
			break
		}
		needMark := !d.index.HasMark(item.MarkID())
		needTrack := !d.index.HasTrack(item.TrackID())
		if !needMark && !needTrack {
			report.Skipped++
			continue
		}

		var (
			wg                  sync.WaitGroup
			markErr, trackErr   error
			markDone, trackDone bool
		)
		if needMark {
			wg.Add(1)
			go func() {
				defer wg.Done()
				markErr = d.fetchMark(ctx, item)
				markDone = markErr == nil
			}()
		}
		if needTrack {
			wg.Add(1)
			go func() {
				defer wg.Done()
				trackErr = d.fetchTrack(ctx, item)
				trackDone = trackErr == nil
			}()
		}
		wg.Wait()

		if markErr != nil {
			report.Records = append(report.Records, diagnostics.NewRecord(diagnostics.KindMark, markErr))
			d.logger.Warn("mark fetch failed", logging.String("mark", item.MarkID()), logging.Error(markErr))
		}
		if trackErr != nil {
			report.Records = append(report.Records, diagnostics.NewRecord(diagnostics.KindAudio, trackErr))
			d.logger.Warn("track fetch failed", logging.String("track", item.TrackID()), logging.Error(trackErr))
		}
		if markDone {
			report.Marks++
		}
		if trackDone {
			report.Tracks++
		}
	}

	d.logger.Info("downloads settled",
		logging.Int("items", len(items)),
		logging.Int("skipped", report.Skipped),
		logging.Int("marks", report.Marks),
		logging.Int("tracks", report.Tracks),
		logging.Int("failed", len(report.Records)),
	)
	return report
}

func (d *Downloader) fetchMark(ctx context.Context, item *catalog.WorkItem) error {
	if err := d.marks.FetchMark(ctx, item.MarkID(), d.layout.Abs(item.CoverPath)); err != nil {
		return services.Wrap(services.ErrAssetFetch, "download", "mark "+item.MarkID(), "", err)
	}
	d.index.AddMark(item.MarkID())
	d.logger.Debug("mark fetched", logging.String("mark", item.MarkID()))
	return nil
}

func (d *Downloader) fetchTrack(ctx context.Context, item *catalog.WorkItem) error {
	if err := d.sleep(ctx, d.delay); err != nil {
		return services.Wrap(services.ErrAssetFetch, "download", "track "+item.TrackID(), "pacing wait", err)
	}
	if err := d.tracks.FetchTrack(ctx, item.SourceURL(), item.TrackID(), d.layout.Abs(item.AudioPath)); err != nil {
		return services.Wrap(services.ErrAssetFetch, "download", "track "+item.TrackID(), "", err)
	}
	d.index.AddTrack(item.TrackID())
	d.logger.Debug("track fetched", logging.String("track", item.TrackID()))
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
