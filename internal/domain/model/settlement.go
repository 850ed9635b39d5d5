package model

// TxRef is an opaque transaction identifier. Uniqueness is by value.
type TxRef string

func (t TxRef) String() string { return string(t) }

// OutcomeType describes how a transaction settled in a block.
type OutcomeType string

const (
	// OutcomeValid means the transaction was included in the block body.
	// Successful carries its execution result.
	OutcomeValid OutcomeType = "valid"
	// OutcomeInvalid means the transaction can never be included at or
	// after the settling block.
	OutcomeInvalid OutcomeType = "invalid"
)

// Outcome is the settlement result of a transaction at a specific block.
// Successful is only meaningful when Type is OutcomeValid.
type Outcome struct {
	BlockHash  string      `json:"blockHash"`
	Type       OutcomeType `json:"type"`
	Successful bool        `json:"successful,omitempty"`
}

// Settlement ties a transaction to its outcome in the settling block.
// Produced exactly once per transaction; discarded once the settling
// block is finalized.
type Settlement struct {
	Tx      TxRef   `json:"tx"`
	Outcome Outcome `json:"outcome"`
}

// TrackerStats is a point-in-time snapshot of tracker state, exposed by
// the admin status endpoint.
type TrackerStats struct {
	PendingTransactions    int    `json:"pending_transactions"`
	TrackedBlocks          int    `json:"tracked_blocks"`
	UnfinalizedSettlements int    `json:"unfinalized_settlements"`
	LastFinalized          string `json:"last_finalized"`
}
