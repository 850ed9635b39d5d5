package chain

import (
	"context"

	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/model"
)

// Adapter is the query surface the tracker resolves transactions against.
// All queries are side-effect free and idempotent: repeated calls with the
// same arguments return the same answer, so implementations may be wrapped
// with CachedAdapter.
type Adapter interface {
	// GetBody returns the ordered transaction identifiers included in a block.
	GetBody(ctx context.Context, blockHash string) ([]model.TxRef, error)

	// IsTxValid reports whether the transaction could still be included at
	// the given block.
	IsTxValid(ctx context.Context, blockHash string, tx model.TxRef) (bool, error)

	// IsTxSuccessful reports the execution outcome of an included transaction.
	IsTxSuccessful(ctx context.Context, blockHash string, tx model.TxRef) (bool, error)

	// Unpin hints that the collaborator may discard state for these blocks.
	Unpin(ctx context.Context, blockHashes ...string) error
}
