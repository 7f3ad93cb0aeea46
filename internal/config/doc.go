// Package config loads, normalizes, and validates bgmsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BGMSYNC_CATALOG_URL and BGMSYNC_REMOTE_URL. The Config type centralizes every
// knob the sync and publish commands need, so the data directory, the catalog
// endpoint, and the git destination are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
