package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/model"
)

// fixtureAdapter answers chain queries from a recorded fixture instead
// of a live node. Validity and success are keyed "blockHash:tx".
// Queries for unknown keys are errors: the fixture must cover every
// query the event log provokes.
type fixtureAdapter struct {
	Bodies  map[string][]model.TxRef `json:"bodies"`
	Valid   map[string]bool          `json:"valid"`
	Success map[string]bool          `json:"success"`

	mu       sync.Mutex
	Unpinned []string `json:"-"`
}

func loadFixture(path string) (*fixtureAdapter, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f fixtureAdapter
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

func (f *fixtureAdapter) GetBody(_ context.Context, blockHash string) ([]model.TxRef, error) {
	body, ok := f.Bodies[blockHash]
	if !ok {
		return nil, fmt.Errorf("fixture has no body for block %s", blockHash)
	}
	return body, nil
}

func (f *fixtureAdapter) IsTxValid(_ context.Context, blockHash string, tx model.TxRef) (bool, error) {
	valid, ok := f.Valid[pairKey(blockHash, tx)]
	if !ok {
		return false, fmt.Errorf("fixture has no validity answer for %s at %s", tx, blockHash)
	}
	return valid, nil
}

func (f *fixtureAdapter) IsTxSuccessful(_ context.Context, blockHash string, tx model.TxRef) (bool, error) {
	successful, ok := f.Success[pairKey(blockHash, tx)]
	if !ok {
		return false, fmt.Errorf("fixture has no success answer for %s at %s", tx, blockHash)
	}
	return successful, nil
}

func (f *fixtureAdapter) Unpin(_ context.Context, blockHashes ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Unpinned = append(f.Unpinned, blockHashes...)
	return nil
}

func pairKey(blockHash string, tx model.TxRef) string {
	return fmt.Sprintf("%s:%s", blockHash, tx)
}
