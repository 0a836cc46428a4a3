package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalCycles tracks completed collection cycles.
	TotalCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_cycles_total",
		Help: "The total number of completed collection cycles.",
	})
	// TotalDiscovered tracks candidate posts returned by discovery.
	TotalDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_posts_discovered_total",
		Help: "The total number of candidate posts returned by discovery.",
	})
	// TotalCommitted tracks posts durably committed to the sink.
	TotalCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_posts_committed_total",
		Help: "The total number of posts committed to the output sink.",
	})
	// TotalDiscarded tracks posts discarded for retry in a later cycle.
	TotalDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_posts_discarded_total",
		Help: "The total number of posts discarded before commit.",
	})
	// TotalFetchAttempts tracks individual media download attempts.
	TotalFetchAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_fetch_attempts_total",
		Help: "The total number of media download attempts.",
	})
	// TotalBlockedHits tracks blocking/forbidden download responses.
	TotalBlockedHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_fetch_blocked_total",
		Help: "The total number of blocked media download responses.",
	})
	// TotalEnrichmentFailures tracks failed mandatory enrichment calls.
	TotalEnrichmentFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_enrichment_failures_total",
		Help: "The total number of failed OCR or transcription calls.",
	})
	// TotalDiscoveryFailures tracks per-term discovery failures.
	TotalDiscoveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_discovery_failures_total",
		Help: "The total number of search terms whose discovery failed.",
	})
)
