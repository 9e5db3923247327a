/*
Package observability turns the dispatch lifecycle hooks into Prometheus metrics
and structured log lines.
*/
package observability
