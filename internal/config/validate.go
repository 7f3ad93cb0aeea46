package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Endpoint settings that only
// one command needs are checked by RequireCatalog and RequirePublish.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireCatalog reports whether the settings needed by the sync command are present.
func (c *Config) RequireCatalog() error {
	if c.Catalog.URL == "" {
		return errors.New("catalog.url is required. Set BGMSYNC_CATALOG_URL or edit the config file (create with 'bgmsync config init')")
	}
	if err := validateHTTPURL("catalog.url", c.Catalog.URL); err != nil {
		return err
	}
	if c.Download.MarkURLTemplate == "" {
		return errors.New("download.mark_url_template is required")
	}
	return nil
}

// RequirePublish reports whether the settings needed by the publish command are present.
func (c *Config) RequirePublish() error {
	if c.Publish.RemoteURL == "" {
		return errors.New("publish.remote_url is required. Set BGMSYNC_REMOTE_URL or edit the config file")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.DataDir == c.Paths.StateDir {
		return errors.New("paths.state_dir must differ from paths.data_dir")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.TrackDelaySeconds < 0 {
		return errors.New("download.track_delay_seconds must be >= 0")
	}
	if c.Download.MarkURLTemplate != "" && !strings.Contains(c.Download.MarkURLTemplate, "{id}") {
		return errors.New("download.mark_url_template must contain the {id} placeholder")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	switch c.Processing.MarkCodec {
	case "zstd", "lz4":
	default:
		return fmt.Errorf("processing.mark_codec: unsupported value %q (expected zstd or lz4)", c.Processing.MarkCodec)
	}
	return nil
}

func (c *Config) validatePublish() error {
	if strings.ContainsAny(c.Publish.Branch, " ~^:?*[\\") {
		return fmt.Errorf("publish.branch: invalid branch name %q", c.Publish.Branch)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateHTTPURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s: expected http or https URL, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s: missing host in %q", field, value)
	}
	return nil
}
