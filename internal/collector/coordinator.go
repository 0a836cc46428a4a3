package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostProcessor runs a single candidate post to a terminal state.
type PostProcessor interface {
	Process(ctx context.Context, post CandidatePost, term, cycleID string, identity Identity) (State, error)
}

// CycleReport summarizes one RunCycle invocation.
type CycleReport struct {
	CycleID    string
	Discovered int
	Committed  int
	Discarded  int
	Skipped    int
	TermErrors int
}

// Stats accumulates totals across cycles for the status endpoint.
type Stats struct {
	CyclesRun      int
	LastCycleID    string
	LastCycleAt    time.Time
	TotalCommitted int
	TotalDiscarded int
	Terms          int
}

// Coordinator iterates the configured search terms, feeds newly
// discovered posts through the processor, and advances the ledger after
// each durable commit. Posts run sequentially: the browser session and
// downloader identity are stateful and owned by one in-flight post at a
// time.
type Coordinator struct {
	searcher  Searcher
	processor PostProcessor
	ledger    Ledger
	terms     []string
	identity  Identity
	logger    *zap.Logger

	mu    sync.Mutex
	stats Stats
	clock Clock
}

// NewCoordinator constructs a Coordinator. baseIdentity seeds the session
// identity before the first search refreshes it.
func NewCoordinator(
	searcher Searcher,
	processor PostProcessor,
	ledger Ledger,
	terms []string,
	baseIdentity Identity,
	clock Clock,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		searcher:  searcher,
		processor: processor,
		ledger:    ledger,
		terms:     terms,
		identity:  baseIdentity,
		clock:     clock,
		logger:    logger,
		stats:     Stats{Terms: len(terms)},
	}
}

// Stats returns a snapshot of the cumulative cycle totals.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Coordinator) recordCycle(report CycleReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.CyclesRun++
	c.stats.LastCycleID = report.CycleID
	c.stats.LastCycleAt = c.clock.Now()
	c.stats.TotalCommitted += report.Committed
	c.stats.TotalDiscarded += report.Discarded
}

// RunCycle performs one full pass over all search terms. Per-term
// discovery failures are logged and skipped; they never abort the cycle.
// The dedup check is cumulative within the cycle, so a post surfacing
// under two terms is processed exactly once.
func (c *Coordinator) RunCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{CycleID: uuid.NewString()}
	seen := make(map[string]struct{})

	for _, term := range c.terms {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("cycle interrupted: %w", err)
		}

		posts, identity, err := c.searcher.Search(ctx, term, c.identity)
		if err != nil {
			report.TermErrors++
			TotalDiscoveryFailures.Inc()
			c.logger.Error("discovery failed, skipping term",
				zap.String("term", term),
				zap.Error(err),
			)
			continue
		}
		c.identity = identity
		report.Discovered += len(posts)
		TotalDiscovered.Add(float64(len(posts)))

		for _, post := range posts {
			if err := ctx.Err(); err != nil {
				return report, fmt.Errorf("cycle interrupted: %w", err)
			}
			skip, err := c.alreadyCollected(ctx, post.ID, seen)
			if err != nil {
				c.logger.Error("ledger lookup failed",
					zap.String("post_id", post.ID),
					zap.Error(err),
				)
				report.Discarded++
				continue
			}
			if skip {
				report.Skipped++
				continue
			}
			seen[post.ID] = struct{}{}

			state, err := c.processor.Process(ctx, post, term, report.CycleID, c.identity)
			if state != StateCommitted {
				if err != nil {
					c.logger.Debug("post not committed",
						zap.String("post_id", post.ID),
						zap.String("state", string(state)),
						zap.Error(err),
					)
				}
				// The id stays in seen: a post is processed at most
				// once per cycle, even when a later term resurfaces
				// it. It is not in the ledger, so the next cycle
				// retries it.
				report.Discarded++
				continue
			}

			if err := c.ledger.Add(ctx, post.ID); err != nil {
				// The record is durable but the id is not. The id
				// stays in seen for this cycle; the next cycle
				// reprocesses the post and overwrites the same
				// record, which keeps sink and ledger consistent.
				c.logger.Error("ledger add failed",
					zap.String("post_id", post.ID),
					zap.Error(err),
				)
				report.Discarded++
				continue
			}
			report.Committed++
		}
	}

	TotalCycles.Inc()
	c.recordCycle(report)
	c.logger.Info("cycle finished",
		zap.String("cycle_id", report.CycleID),
		zap.Int("discovered", report.Discovered),
		zap.Int("committed", report.Committed),
		zap.Int("discarded", report.Discarded),
		zap.Int("skipped", report.Skipped),
		zap.Int("term_errors", report.TermErrors),
	)
	return report, nil
}

func (c *Coordinator) alreadyCollected(ctx context.Context, id string, seen map[string]struct{}) (bool, error) {
	if _, ok := seen[id]; ok {
		return true, nil
	}
	inLedger, err := c.ledger.Contains(ctx, id)
	if err != nil {
		return false, fmt.Errorf("ledger contains %s: %w", id, err)
	}
	return inLedger, nil
}
