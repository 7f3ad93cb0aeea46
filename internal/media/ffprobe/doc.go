// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: measures audio duration through an Executor seam
//
// Inspect runs ffprobe directly; Prober is the form the enricher consumes.
package ffprobe
