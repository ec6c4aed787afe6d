/*
Package observability turns graph lifecycle hooks into Prometheus metrics and
structured log lines.

Hooks run synchronously inside the evaluation pass, so everything here only
increments counters or writes a log record.
*/
package observability
