package config

const (
	defaultDataDir               = "~/.local/share/bgmsync/data"
	defaultStateDir              = "~/.local/share/bgmsync/state"
	defaultCatalogTimeout        = 30
	defaultUserAgent             = "bgmsync/dev"
	defaultTrackDelaySeconds     = 5
	defaultRequestTimeoutSeconds = 30
	defaultYtDlpBinary           = "yt-dlp"
	defaultProcessingBatchSize   = 50
	defaultFFprobeBinary         = "ffprobe"
	defaultMarkCodec             = "zstd"
	defaultRemoteName            = "origin"
	defaultBranch                = "data"
	defaultPublishBatchSize      = 100
	defaultCommitPrefix          = "sync:"
	defaultAuthorName            = "bgmsync"
	defaultAuthorEmail           = "bgmsync@localhost"
	defaultGitBinary             = "git"
	defaultLogFormat             = "auto"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			StateDir: defaultStateDir,
		},
		Catalog: Catalog{
			TimeoutSeconds: defaultCatalogTimeout,
			UserAgent:      defaultUserAgent,
		},
		Download: Download{
			TrackDelaySeconds:     defaultTrackDelaySeconds,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			YtDlpBinary:           defaultYtDlpBinary,
		},
		Processing: Processing{
			BatchSize:     defaultProcessingBatchSize,
			FFprobeBinary: defaultFFprobeBinary,
			MarkCodec:     defaultMarkCodec,
		},
		Publish: Publish{
			RemoteName:   defaultRemoteName,
			Branch:       defaultBranch,
			BatchSize:    defaultPublishBatchSize,
			CommitPrefix: defaultCommitPrefix,
			AuthorName:   defaultAuthorName,
			AuthorEmail:  defaultAuthorEmail,
			GitBinary:    defaultGitBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
