// Package reaper contains the background job that force-completes stale
// in-progress tasks, closing work nobody touched past the staleness deadline.
package reaper
