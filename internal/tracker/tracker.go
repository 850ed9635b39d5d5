package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/alert"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/chain"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/event"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/model"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/metrics"
)

// Callbacks receives the lifecycle notifications the tracker produces.
// Both methods are invoked synchronously, in order, and at most once per
// (transaction, stage) pair.
type Callbacks interface {
	// OnTxSettled fires when a transaction's fate becomes known at a block.
	OnTxSettled(tx model.TxRef, outcome model.Outcome)
	// OnTxDone fires once the settling block is finalized.
	OnTxDone(tx model.TxRef, outcome model.Outcome)
}

// Tracker follows submitted transactions across an evolving, forkable
// chain of blocks and reports when they settle and when that settlement
// becomes irreversible.
//
// Transactions move Pending -> Settled(block, outcome) -> Done,
// monotonically. Events must be handled one at a time; Handle serializes
// callers with an internal lock so the admin surface can snapshot state
// concurrently.
type Tracker struct {
	mu        sync.Mutex
	network   string
	adapter   chain.Adapter
	callbacks Callbacks
	logger    *slog.Logger
	alerter   alert.Alerter
	pruning   bool

	// pending holds submitted transactions in arrival order. Duplicate
	// submissions are separate entries.
	pending []model.TxRef

	// tree is the fork tree rooted at the last finalized block.
	tree *forkTree

	// settled maps block hash -> settlement records produced by that
	// block, in settlement order, until the block finalizes.
	settled map[string][]model.Settlement

	// resolved marks blocks whose body/validity resolution ran. A new
	// block whose immediate parent is resolved skips resolution; blocks
	// that skipped are not themselves marked (conservative rule, see
	// fork depth tests).
	resolved map[string]struct{}

	lastFinalized string
	initialized   bool
}

// Option configures optional Tracker behaviour.
type Option func(*Tracker)

// WithAlerter enables operational alerts (finality gaps).
func WithAlerter(a alert.Alerter) Option {
	return func(t *Tracker) { t.alerter = a }
}

// WithForkPruning toggles unpin-driven cleanup of abandoned forks after
// finalization. Enabled by default; pruning never triggers callbacks.
func WithForkPruning(enabled bool) Option {
	return func(t *Tracker) { t.pruning = enabled }
}

func New(network string, adapter chain.Adapter, callbacks Callbacks, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		network:   network,
		adapter:   adapter,
		callbacks: callbacks,
		logger:    logger.With("component", "tracker", "network", network),
		pruning:   true,
		tree:      newForkTree(),
		settled:   make(map[string][]model.Settlement),
		resolved:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Handle processes one event from the stream. Events with an unknown
// kind are ignored.
func (t *Tracker) Handle(ctx context.Context, ev event.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Kind {
	case event.KindNewTransaction:
		t.handleNewTransaction(ev.Value)
		return nil
	case event.KindNewBlock:
		return t.handleNewBlock(ctx, ev.BlockHash, ev.Parent)
	case event.KindFinalized:
		return t.handleFinalized(ctx, ev.BlockHash)
	default:
		t.logger.Debug("ignoring unknown event kind", "kind", ev.Kind)
		return nil
	}
}

// Stats returns a snapshot of tracker state for the admin surface.
func (t *Tracker) Stats() model.TrackerStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return model.TrackerStats{
		PendingTransactions:    len(t.pending),
		TrackedBlocks:          t.tree.len(),
		UnfinalizedSettlements: t.unfinalizedCount(),
		LastFinalized:          t.lastFinalized,
	}
}

func (t *Tracker) unfinalizedCount() int {
	n := 0
	for _, records := range t.settled {
		n += len(records)
	}
	return n
}

func (t *Tracker) handleNewTransaction(tx model.TxRef) {
	t.pending = append(t.pending, tx)
	metrics.TrackerPendingTransactions.WithLabelValues(t.network).Set(float64(len(t.pending)))
	t.logger.Debug("transaction submitted", "tx", tx, "pending", len(t.pending))
}

func (t *Tracker) handleNewBlock(ctx context.Context, blockHash, parent string) error {
	// There is no finalization notice for the starting point; the first
	// block's parent is the best-effort root of the fork tree.
	if !t.initialized {
		t.lastFinalized = parent
		t.initialized = true
	}

	t.tree.add(blockHash, parent)
	metrics.TrackerBlocksTracked.WithLabelValues(t.network).Set(float64(t.tree.len()))

	if _, ok := t.resolved[parent]; ok {
		// The parent's resolution already settled everything relevant to
		// this lineage; re-scanning the same pending set would issue
		// redundant queries.
		t.logger.Debug("skipping resolution, parent already resolved",
			"block", blockHash,
			"parent", parent,
		)
		return nil
	}

	body, err := t.adapter.GetBody(ctx, blockHash)
	if err != nil {
		return fmt.Errorf("get body for block %s: %w", blockHash, err)
	}
	included := make(map[model.TxRef]struct{}, len(body))
	for _, tx := range body {
		included[tx] = struct{}{}
	}

	// Answer every query before touching tracker state or emitting
	// callbacks. A failed query must leave the pending queue intact and
	// no settlement half-announced, so a retried block resolves cleanly.
	var records []model.Settlement
	remaining := make([]model.TxRef, 0, len(t.pending))
	for _, tx := range t.pending {
		if _, ok := included[tx]; ok {
			successful, err := t.adapter.IsTxSuccessful(ctx, blockHash, tx)
			if err != nil {
				return fmt.Errorf("tx success %s at block %s: %w", tx, blockHash, err)
			}
			records = append(records, model.Settlement{Tx: tx, Outcome: model.Outcome{
				BlockHash:  blockHash,
				Type:       model.OutcomeValid,
				Successful: successful,
			}})
			continue
		}

		valid, err := t.adapter.IsTxValid(ctx, blockHash, tx)
		if err != nil {
			return fmt.Errorf("tx validity %s at block %s: %w", tx, blockHash, err)
		}
		if valid {
			// Not in this body but still includable: stays pending for a
			// later block.
			remaining = append(remaining, tx)
			continue
		}
		records = append(records, model.Settlement{Tx: tx, Outcome: model.Outcome{
			BlockHash: blockHash,
			Type:      model.OutcomeInvalid,
		}})
	}

	for _, s := range records {
		t.emitSettled(s)
	}
	t.pending = remaining
	t.resolved[blockHash] = struct{}{}
	if len(records) > 0 {
		t.settled[blockHash] = records
	}

	metrics.TrackerPendingTransactions.WithLabelValues(t.network).Set(float64(len(t.pending)))
	metrics.TrackerUnfinalizedSettlements.WithLabelValues(t.network).Set(float64(t.unfinalizedCount()))
	t.logger.Info("block resolved",
		"block", blockHash,
		"parent", parent,
		"body_size", len(body),
		"settled", len(records),
		"pending", len(t.pending),
	)
	return nil
}

func (t *Tracker) emitSettled(s model.Settlement) {
	t.callbacks.OnTxSettled(s.Tx, s.Outcome)
	metrics.TrackerSettledTotal.WithLabelValues(t.network, string(s.Outcome.Type)).Inc()
}

func (t *Tracker) handleFinalized(ctx context.Context, blockHash string) error {
	if !t.initialized {
		// Finalization before any block: nothing to promote, but the
		// marker now has an authoritative value.
		t.lastFinalized = blockHash
		t.initialized = true
		return nil
	}

	path, ok := t.tree.pathFrom(blockHash, t.lastFinalized)
	if !ok {
		// Missing parent links: promote what could be reconstructed.
		metrics.TrackerFinalityGapsTotal.WithLabelValues(t.network).Inc()
		t.logger.Warn("finalization walk stopped early, missing parent link",
			"finalized", blockHash,
			"previous_finalized", t.lastFinalized,
			"reconstructed_blocks", len(path),
		)
		t.sendFinalityGapAlert(ctx, blockHash, len(path))
	}

	for _, block := range path {
		for _, s := range t.settled[block] {
			t.callbacks.OnTxDone(s.Tx, s.Outcome)
			metrics.TrackerDoneTotal.WithLabelValues(t.network).Inc()
		}
		delete(t.settled, block)
	}

	if t.pruning {
		t.pruneAbandoned(ctx, path)
	}

	// The head stays resolved so its children keep skipping resolution;
	// interior path blocks can no longer gain children that finalize.
	for i, block := range path {
		if i < len(path)-1 {
			delete(t.resolved, block)
		}
		t.tree.remove(block)
	}

	t.lastFinalized = blockHash
	metrics.TrackerFinalizedBlocksTotal.WithLabelValues(t.network).Add(float64(len(path)))
	metrics.TrackerBlocksTracked.WithLabelValues(t.network).Set(float64(t.tree.len()))
	metrics.TrackerUnfinalizedSettlements.WithLabelValues(t.network).Set(float64(t.unfinalizedCount()))
	t.logger.Info("finalized",
		"block", blockHash,
		"promoted_blocks", len(path),
	)
	return nil
}

// pruneAbandoned drops fork branches that competed with the newly
// finalized path. Their settlement records are discarded without
// callbacks and the collaborator is told it may unpin them.
func (t *Tracker) pruneAbandoned(ctx context.Context, path []string) {
	var abandoned []string
	for _, block := range path {
		for _, sibling := range t.tree.siblingsOf(block) {
			abandoned = append(abandoned, t.tree.subtree(sibling)...)
		}
	}
	if len(abandoned) == 0 {
		return
	}

	for _, block := range abandoned {
		t.tree.remove(block)
		delete(t.settled, block)
		delete(t.resolved, block)
	}
	metrics.TrackerPrunedBlocksTotal.WithLabelValues(t.network).Add(float64(len(abandoned)))
	t.logger.Info("pruned abandoned fork blocks", "count", len(abandoned))

	if err := t.adapter.Unpin(ctx, abandoned...); err != nil {
		// Unpinning is a hint; the tracker state is already consistent.
		t.logger.Warn("unpin abandoned blocks failed", "count", len(abandoned), "error", err)
	}
}

func (t *Tracker) sendFinalityGapAlert(ctx context.Context, blockHash string, reconstructed int) {
	if t.alerter == nil {
		return
	}
	err := t.alerter.Send(ctx, alert.Alert{
		Type:    alert.TypeFinalityGap,
		Network: t.network,
		Title:   "Finalization walk incomplete",
		Message: fmt.Sprintf("finalized block %s could not be linked to %s (%d blocks reconstructed)", blockHash, t.lastFinalized, reconstructed),
	})
	if err != nil {
		t.logger.Warn("failed to send finality gap alert", "error", err)
	}
}
