// Package pipeline runs a sync: index local assets, fetch the catalog,
// download what is missing, probe durations, encode marks, write the
// manifest, then flush diagnostics.
//
// Each stage completes before the next starts. Only a catalog failure (or a
// failure to write the manifest) ends the run with an error; per-item
// failures are collected and written to an error log after the manifest.
package pipeline
