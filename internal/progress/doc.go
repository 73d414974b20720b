// Package progress carries run milestones from the collector to whoever is
// watching. Emitters publish events into a hub that batches on a background
// goroutine and never blocks the collection path; sinks turn batches into
// Prometheus series and log lines, and feed the in-memory ring behind the
// ops API.
package progress
