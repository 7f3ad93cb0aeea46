// Package services defines shared utilities consumed by the pipeline stages and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and stage names for logging.
//   - Structured error markers plus the Wrap helper that separate fatal
//     failures (catalog, publish, configuration) from per-item failures that
//     are only recorded.
//
// Use these helpers when wiring new stage logic so error classification stays
// uniform across the pipeline.
package services
