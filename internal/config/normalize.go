package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeDownload()
	c.normalizeProcessing()
	c.normalizePublish()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	if value, ok := os.LookupEnv("BGMSYNC_CATALOG_URL"); ok && strings.TrimSpace(value) != "" {
		c.Catalog.URL = value
	}
	c.Catalog.URL = strings.TrimSpace(c.Catalog.URL)
	c.Catalog.UserAgent = strings.TrimSpace(c.Catalog.UserAgent)
	if c.Catalog.UserAgent == "" {
		c.Catalog.UserAgent = defaultUserAgent
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		c.Catalog.TimeoutSeconds = defaultCatalogTimeout
	}
}

func (c *Config) normalizeDownload() {
	c.Download.MarkURLTemplate = strings.TrimSpace(c.Download.MarkURLTemplate)
	if c.Download.RequestTimeoutSeconds <= 0 {
		c.Download.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	c.Download.YtDlpBinary = strings.TrimSpace(c.Download.YtDlpBinary)
	if c.Download.YtDlpBinary == "" {
		c.Download.YtDlpBinary = defaultYtDlpBinary
	}
	c.Download.FFmpegBinary = strings.TrimSpace(c.Download.FFmpegBinary)
}

func (c *Config) normalizeProcessing() {
	if c.Processing.BatchSize <= 0 {
		c.Processing.BatchSize = defaultProcessingBatchSize
	}
	c.Processing.FFprobeBinary = strings.TrimSpace(c.Processing.FFprobeBinary)
	if c.Processing.FFprobeBinary == "" {
		c.Processing.FFprobeBinary = defaultFFprobeBinary
	}
	c.Processing.MarkCodec = strings.ToLower(strings.TrimSpace(c.Processing.MarkCodec))
	if c.Processing.MarkCodec == "" {
		c.Processing.MarkCodec = defaultMarkCodec
	}
}

func (c *Config) normalizePublish() {
	if value, ok := os.LookupEnv("BGMSYNC_REMOTE_URL"); ok && strings.TrimSpace(value) != "" {
		c.Publish.RemoteURL = value
	}
	c.Publish.RemoteURL = strings.TrimSpace(c.Publish.RemoteURL)
	c.Publish.RemoteName = strings.TrimSpace(c.Publish.RemoteName)
	if c.Publish.RemoteName == "" {
		c.Publish.RemoteName = defaultRemoteName
	}
	c.Publish.Branch = strings.TrimSpace(c.Publish.Branch)
	if c.Publish.Branch == "" {
		c.Publish.Branch = defaultBranch
	}
	if c.Publish.BatchSize <= 0 {
		c.Publish.BatchSize = defaultPublishBatchSize
	}
	c.Publish.CommitPrefix = strings.TrimSpace(c.Publish.CommitPrefix)
	if c.Publish.CommitPrefix == "" {
		c.Publish.CommitPrefix = defaultCommitPrefix
	}
	c.Publish.AuthorName = strings.TrimSpace(c.Publish.AuthorName)
	if c.Publish.AuthorName == "" {
		c.Publish.AuthorName = defaultAuthorName
	}
	c.Publish.AuthorEmail = strings.TrimSpace(c.Publish.AuthorEmail)
	if c.Publish.AuthorEmail == "" {
		c.Publish.AuthorEmail = defaultAuthorEmail
	}
	c.Publish.GitBinary = strings.TrimSpace(c.Publish.GitBinary)
	if c.Publish.GitBinary == "" {
		c.Publish.GitBinary = defaultGitBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
