package marks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"bgmsync/internal/assets"
	"bgmsync/internal/batch"
	"bgmsync/internal/catalog"
	"bgmsync/internal/diagnostics"
	"bgmsync/internal/logging"
	"bgmsync/internal/services"
)

// DefaultBatchSize bounds concurrent mark reads.
const DefaultBatchSize = 50

// Index maps a mark identifier to its compressed bytes.
type Index map[string][]byte

// Encoder builds the compressed mark index from local mark files.
type Encoder struct {
	layout    assets.Layout
	codec     Codec
	batchSize int
	logger    *slog.Logger
}

// NewEncoder constructs an encoder. A non-positive batchSize selects DefaultBatchSize.
func NewEncoder(layout assets.Layout, codec Codec, batchSize int, logger *slog.Logger) *Encoder {
	if codec == nil {
		codec = zstdCodec{}
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Encoder{
		layout:    layout,
		codec:     codec,
		batchSize: batchSize,
		logger:    logging.NewComponentLogger(logger, "marks"),
	}
}

// Encode compresses the mark of every item whose mark is present in the local
// asset index, once per distinct mark id. Absent marks are skipped silently;
// their failed download has already been recorded. Present marks that cannot
// be read or compressed are left out of the index and reported as mark
// records. A nil present index encodes every mark.
func (e *Encoder) Encode(ctx context.Context, items []*catalog.WorkItem, present *assets.Index) (Index, []diagnostics.Record) {
	unique := distinctMarks(items, present)

	var (
		mu        sync.Mutex
		index     = make(Index, len(unique))
		collector diagnostics.Collector
		rawBytes  int64
		packed    int64
	)
	err := batch.Run(ctx, unique, e.batchSize, func(_ context.Context, item *catalog.WorkItem) {
		raw, err := os.ReadFile(e.layout.Abs(item.CoverPath))
		if err != nil {
			collector.Add(diagnostics.NewRecord(diagnostics.KindMark,
				services.Wrap(services.ErrAssetFetch, "encode", item.MarkID(), "read "+item.CoverPath, err)))
			return
		}
		encoded, err := e.codec.Encode(raw)
		if err != nil {
			collector.Add(diagnostics.NewRecord(diagnostics.KindMark,
				services.Wrap(services.ErrAssetFetch, "encode", item.MarkID(), e.codec.Name(), err)))
			return
		}
		mu.Lock()
		index[item.MarkID()] = encoded
		rawBytes += int64(len(raw))
		packed += int64(len(encoded))
		mu.Unlock()
	})
	if err != nil {
		e.logger.Warn("mark encoding interrupted", logging.Error(err))
	}

	records := collector.Records()
	e.logger.Info("marks encoded",
		logging.Int("marks", len(index)),
		logging.Int("failed", len(records)),
		logging.String("codec", e.codec.Name()),
		logging.Bytes("raw", rawBytes),
		logging.Bytes("packed", packed),
	)
	return index, records
}

// Decode returns the original bytes of a mark.
func (e *Encoder) Decode(index Index, markID string) ([]byte, error) {
	data, ok := index[markID]
	if !ok {
		return nil, fmt.Errorf("mark %q not in index", markID)
	}
	return e.codec.Decode(data)
}

// distinctMarks keeps the first item per present mark id, in catalog order.
func distinctMarks(items []*catalog.WorkItem, present *assets.Index) []*catalog.WorkItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]*catalog.WorkItem, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.MarkID()]; ok {
			continue
		}
		if present != nil && !present.HasMark(item.MarkID()) {
			continue
		}
		seen[item.MarkID()] = struct{}{}
		out = append(out, item)
	}
	return out
}
