// Package download fetches the marks and tracks that are missing from the
// local data directory.
//
// Items are processed one at a time. For an item that needs work, the mark
// and track fetches run concurrently and fail independently; the track path
// waits a fixed delay before starting so the video platform sees paced
// requests. Successful fetches are added to the asset index so later items
// sharing a mark skip it.
package download
