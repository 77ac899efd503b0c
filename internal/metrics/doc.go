// Package metrics exposes Prometheus counters for submissions, stage timing,
// stage failures and upload outcomes, plus a queue-size gauge read from the
// queue store on every scrape. The daemon serves it at /metrics.
package metrics
