// Package sinks holds the progress.Sink implementations shipped with the
// collector. The Prometheus and log sinks export the stream; the in-memory
// ring retains recent events for the ops API's activity feed.
package sinks
