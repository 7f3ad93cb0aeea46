package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"bgmsync/internal/fileutil"
)

// MarkSource stores the image for markID at dest.
type MarkSource interface {
	FetchMark(ctx context.Context, markID, dest string) error
}

// TrackSource stores the audio referenced by sourceURL at dest as mp3.
type TrackSource interface {
	FetchTrack(ctx context.Context, sourceURL, trackID, dest string) error
}

// HTTPMarkSource downloads marks from a URL template containing "{id}".
type HTTPMarkSource struct {
	template string
	client   *http.Client
}

// NewHTTPMarkSource constructs a mark source. A nil client selects http.DefaultClient.
func NewHTTPMarkSource(template string, client *http.Client) *HTTPMarkSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPMarkSource{template: template, client: client}
}

// URL expands the template for markID.
func (s *HTTPMarkSource) URL(markID string) string {
	return strings.ReplaceAll(s.template, "{id}", markID)
}

func (s *HTTPMarkSource) FetchMark(ctx context.Context, markID, dest string) error {
	url := s.URL(markID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("GET %s returned %s", url, resp.Status)
	}
	return fileutil.WriteAtomic(dest, func(w io.Writer) error {
		n, err := io.Copy(w, resp.Body)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("empty response body")
		}
		return nil
	})
}

// YtDlpTrackSource extracts mp3 audio with yt-dlp into a staging directory and
// moves the result into place, so partial downloads never appear as tracks.
type YtDlpTrackSource struct {
	stagingDir string
	binary     string
	ffmpeg     string
}

// NewYtDlpTrackSource constructs a track source. Empty binary paths let
// yt-dlp and ffmpeg be resolved from PATH.
func NewYtDlpTrackSource(stagingDir, binary, ffmpeg string) *YtDlpTrackSource {
	return &YtDlpTrackSource{stagingDir: stagingDir, binary: binary, ffmpeg: ffmpeg}
}

func (s *YtDlpTrackSource) command(trackID string) *ytdlp.Command {
	cmd := ytdlp.New().
		ExtractAudio().
		AudioFormat("mp3").
		NoPlaylist().
		ForceOverwrites().
		Output(filepath.Join(s.stagingDir, trackID+".%(ext)s"))
	if s.binary != "" && s.binary != "yt-dlp" {
		cmd.SetExecutable(s.binary)
	}
	if s.ffmpeg != "" {
		cmd.FFmpegLocation(s.ffmpeg)
	}
	return cmd
}

func (s *YtDlpTrackSource) FetchTrack(ctx context.Context, sourceURL, trackID, dest string) error {
	if err := os.MkdirAll(s.stagingDir, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	staged := filepath.Join(s.stagingDir, trackID+".mp3")
	if _, err := s.command(trackID).Run(ctx, sourceURL); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("yt-dlp %s: %w", sourceURL, err)
	}
	if _, err := os.Stat(staged); err != nil {
		return fmt.Errorf("yt-dlp produced no mp3 for %s: %w", sourceURL, err)
	}
	return fileutil.MoveFile(staged, dest)
}
