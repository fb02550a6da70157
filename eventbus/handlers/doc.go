// Package handlers provides generic cross-cutting event handlers and an
// asynchronous submission path.
//
// AuditHandler writes a structured log line for every matching event and can
// persist a categorized, risk-assessed record to an audit store.
// MetricsHandler turns matching events into counter and duration metrics.
// AsyncDispatcher wraps any handler behind a bounded worker pool for callers
// that do not want to run it inside their own publish call.
//
// Both generic handlers are parameterized with a domain ("user", "order", or
// "*" for all domains) fixed at construction, used for matching and for
// labeling output. Their internal failures are caught inside the handler and
// logged at warning level so they never reach the dispatch loop's backstop.
package handlers
