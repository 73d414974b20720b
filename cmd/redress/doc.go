// Package main hosts the redress collection service entrypoint.
//
// Architecture overview:
//   - Collection: the scheduler (internal/scheduler) drives once or daily
//     passes over the three complaint verticals. Each pass takes the next
//     keyword batch from the rotation state, and the collector
//     (internal/collector) searches the external crawler service, drops
//     duplicates against the record store, appends the survivors as one
//     batch, and downloads attached media failure-tolerantly.
//   - Persistence: records land in a provider-selected store (xlsx workbooks
//     per category, Postgres, or memory); media blobs go to a local tree or
//     GCS. Rotation cursors live in state/rotation.json and advance only past
//     keywords that completed, so a failed keyword is retried next run.
//   - Analysis: internal/analyzer segments post text with gse against an
//     embedded industry dictionary, scores keywords by weight x count, and
//     aggregates authors, daily trend, and engagement into a snapshot.
//     internal/report renders the snapshot into go-echarts charts and an
//     HTML report under analysis/<stamp>/.
//   - Fanout & observability: run summaries are written as JSON files and
//     published to Pub/Sub when configured; progress events flow through a
//     batching hub into zap logs, Prometheus collectors, and an in-memory
//     ring the ops API serves.
//   - Configuration & plumbing: Viper populates config from env/file with the
//     REDRESS_ prefix (and .env for the platform cookie); zap provides
//     structured logging; chi serves /healthz, /metrics, /v1/* and the report
//     tree.
//
// Operational notes:
//   - Politeness: keyword searches are spaced by a rate limiter and category
//     passes by a configurable pause; per-keyword work is bounded by a
//     timeout that survives an interrupt so a stopping run finishes the
//     keyword in flight.
//   - Shutdown: SIGINT/SIGTERM cancels the run between keywords, persists the
//     partial run summary, still publishes the notification, and flushes the
//     progress hub.
//   - Exit codes: 0 success, 1 run failure, 2 setup failure (missing cookie,
//     unusable data root) detected before any collection.
//
// Quick checklist:
//   - Set REDRESS_PLATFORM_COOKIE (or put it in .env) and
//     REDRESS_PLATFORM_BASE_URL before collecting.
//   - Run a single pass: redress collect --mode once
//   - Keep the daily schedule: redress collect --mode schedule --at 03:00
//   - Build a report: redress analyze --from 2026-06-01
//   - Inspect: redress serve --port 8080, then GET /v1/runs and /reports/.
package main
