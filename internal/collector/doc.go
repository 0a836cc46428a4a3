// Package collector implements the post collection pipeline: the fetch
// gate, the per-post enrichment state machine, and the cycle coordinator
// that drives discovery, deduplication, and durable commits.
package collector
