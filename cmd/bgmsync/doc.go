// Package main hosts the bgmsync CLI entrypoint and command graph.
//
// sync refreshes the data directory from the remote catalog; publish commits
// and pushes it to the git destination in bounded batches. Both take the run
// lock and record a row in run history, which the history command lists.
// Configuration is resolved once per invocation through commandContext.
package main
