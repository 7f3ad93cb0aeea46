package catalog

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/zeebo/blake3"

	"bgmsync/internal/logging"
	"bgmsync/internal/services"
)

const maxCatalogBytes = 64 << 20

// Catalog is a decoded catalog payload.
type Catalog struct {
	Entries []Entry
	// Digest is the hex BLAKE3 hash of the raw payload.
	Digest string
	Size   int64
}

// Fetcher retrieves the catalog with a single HTTP GET.
type Fetcher struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewFetcher constructs a fetcher for url. A nil client selects http.DefaultClient.
func NewFetcher(url string, client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		url:    strings.TrimSpace(url),
		client: client,
		logger: logging.NewComponentLogger(logger, "catalog"),
	}
}

// Fetch downloads and decodes the catalog.
func (f *Fetcher) Fetch(ctx context.Context) (Catalog, error) {
	if f.url == "" {
		return Catalog{}, unavailable("request", "catalog url not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Catalog{}, unavailable("request", "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Catalog{}, unavailable("request", "GET "+f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Catalog{}, unavailable("request", fmt.Sprintf("GET %s returned %s", f.url, resp.Status), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes+1))
	if err != nil {
		return Catalog{}, unavailable("read", "read body", err)
	}
	if len(body) > maxCatalogBytes {
		return Catalog{}, unavailable("read", "catalog exceeds "+humanize.Bytes(maxCatalogBytes), nil)
	}

	cat, err := Decode(body)
	if err != nil {
		return Catalog{}, err
	}
	f.logger.Info("catalog fetched",
		logging.Int("entries", len(cat.Entries)),
		logging.Bytes("size", cat.Size),
		logging.String("digest", shortDigest(cat.Digest)),
	)
	return cat, nil
}

// Decode parses a catalog payload: a JSON array of objects.
func Decode(payload []byte) (Catalog, error) {
	var entries []Entry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return Catalog{}, unavailable("decode", "parse catalog", err)
	}
	if entries == nil {
		return Catalog{}, unavailable("decode", "catalog is not a JSON array", nil)
	}
	sum := blake3.Sum256(payload)
	return Catalog{
		Entries: entries,
		Digest:  hex.EncodeToString(sum[:]),
		Size:    int64(len(payload)),
	}, nil
}

func unavailable(op, msg string, err error) error {
	return services.Wrap(services.ErrCatalogUnavailable, "catalog", op, msg, err)
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
