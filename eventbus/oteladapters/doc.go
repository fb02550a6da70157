// Package oteladapters provides OpenTelemetry implementations of the eventbus
// observability interfaces, for users who want plug-and-play logging, metrics
// and tracing without implementing the interfaces themselves.
package oteladapters
