package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// DataDir is the published working tree: data.json, mark/, bgm/.
	DataDir string `toml:"data_dir"`
	// StateDir holds the log file, run history, and the run lock.
	StateDir string `toml:"state_dir"`
}

// Catalog contains configuration for the remote metadata catalog.
type Catalog struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// Download contains configuration for mark and track fetching.
type Download struct {
	// MarkURLTemplate is expanded per mark; "{id}" is replaced by the mark identifier.
	MarkURLTemplate       string `toml:"mark_url_template"`
	TrackDelaySeconds     int    `toml:"track_delay_seconds"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	YtDlpBinary           string `toml:"ytdlp_binary"`
	FFmpegBinary          string `toml:"ffmpeg_binary"`
}

// Processing contains configuration for the batched post-processing stages.
type Processing struct {
	BatchSize     int    `toml:"batch_size"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	MarkCodec     string `toml:"mark_codec"`
}

// Publish contains configuration for the git destination.
type Publish struct {
	RemoteName   string `toml:"remote_name"`
	RemoteURL    string `toml:"remote_url"`
	Branch       string `toml:"branch"`
	BatchSize    int    `toml:"batch_size"`
	CommitPrefix string `toml:"commit_prefix"`
	AuthorName   string `toml:"author_name"`
	AuthorEmail  string `toml:"author_email"`
	GitBinary    string `toml:"git_binary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for bgmsync.
//
// Configuration sections by subsystem:
//   - Paths: data and state directories
//   - Catalog: remote catalog endpoint
//   - Download: mark source template, track pacing, yt-dlp/ffmpeg locations
//   - Processing: batch size, ffprobe, mark compression codec
//   - Publish: git remote, branch, batch ceiling, commit identity
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Catalog    Catalog    `toml:"catalog"`
	Download   Download   `toml:"download"`
	Processing Processing `toml:"processing"`
	Publish    Publish    `toml:"publish"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bgmsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bgmsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TrackDelay returns the fixed wait inserted before each track download.
func (c *Config) TrackDelay() time.Duration {
	return time.Duration(c.Download.TrackDelaySeconds) * time.Second
}

// CatalogTimeout returns the HTTP timeout for the catalog request.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Catalog.TimeoutSeconds) * time.Second
}

// RequestTimeout returns the HTTP timeout for mark downloads.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Download.RequestTimeoutSeconds) * time.Second
}

// LogPath returns the log file location inside the state directory.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.StateDir, "bgmsync.log")
}

// HistoryPath returns the run history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the run lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "bgmsync.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
