package event

import "github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/model"

// Kind tags the event union.
type Kind string

const (
	KindNewBlock       Kind = "newBlock"
	KindNewTransaction Kind = "newTransaction"
	KindFinalized      Kind = "finalized"
)

// Event is one entry of the serialized chain notification stream.
// Exactly one field set is meaningful per kind:
//
//	newBlock:       BlockHash, Parent
//	newTransaction: Value
//	finalized:      BlockHash
//
// Events with an unknown kind are passed through and ignored by the
// tracker.
type Event struct {
	Kind      Kind        `json:"kind"`
	BlockHash string      `json:"blockHash,omitempty"`
	Parent    string      `json:"parent,omitempty"`
	Value     model.TxRef `json:"value,omitempty"`
}

// NewBlock builds a newBlock event.
func NewBlock(blockHash, parent string) Event {
	return Event{Kind: KindNewBlock, BlockHash: blockHash, Parent: parent}
}

// NewTransaction builds a newTransaction event.
func NewTransaction(tx model.TxRef) Event {
	return Event{Kind: KindNewTransaction, Value: tx}
}

// Finalized builds a finalized event.
func Finalized(blockHash string) Event {
	return Event{Kind: KindFinalized, BlockHash: blockHash}
}
