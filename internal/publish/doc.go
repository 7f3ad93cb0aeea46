// Package publish commits the data directory to a git remote in size-bounded
// batches, force-pushing after every batch.
//
// The destination is either Uninitialized (no repository yet: init, register
// the remote, start an orphan branch) or Synced (local refs and index reset to
// the remote branch tip). From Synced, changed manifest, mark, and track files
// are grouped into batches: all non-audio files first, then audio files in
// fixed-size chunks. A failing batch aborts the run; batches already pushed
// stay published and the next run recomputes the change set.
package publish
