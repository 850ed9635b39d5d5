package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/model"
)

// GetBody returns the ordered transaction identifiers included in the block.
func (c *Client) GetBody(ctx context.Context, blockHash string) ([]model.TxRef, error) {
	result, err := c.call(ctx, "chain_getBody", []interface{}{blockHash})
	if err != nil {
		return nil, fmt.Errorf("get body %s: %w", blockHash, err)
	}

	var body []model.TxRef
	if err := json.Unmarshal(result, &body); err != nil {
		return nil, fmt.Errorf("unmarshal body: %w", err)
	}
	return body, nil
}

// IsTxValid reports whether tx could still be included at blockHash.
func (c *Client) IsTxValid(ctx context.Context, blockHash string, tx model.TxRef) (bool, error) {
	result, err := c.call(ctx, "chain_validateTransaction", []interface{}{blockHash, tx})
	if err != nil {
		return false, fmt.Errorf("validate tx %s at %s: %w", tx, blockHash, err)
	}

	var valid bool
	if err := json.Unmarshal(result, &valid); err != nil {
		return false, fmt.Errorf("unmarshal validity: %w", err)
	}
	return valid, nil
}

// IsTxSuccessful reports the execution outcome of an included transaction.
func (c *Client) IsTxSuccessful(ctx context.Context, blockHash string, tx model.TxRef) (bool, error) {
	result, err := c.call(ctx, "chain_transactionSuccess", []interface{}{blockHash, tx})
	if err != nil {
		return false, fmt.Errorf("tx success %s at %s: %w", tx, blockHash, err)
	}

	var successful bool
	if err := json.Unmarshal(result, &successful); err != nil {
		return false, fmt.Errorf("unmarshal success: %w", err)
	}
	return successful, nil
}

// Unpin tells the node these blocks are no longer needed by the tracker.
func (c *Client) Unpin(ctx context.Context, blockHashes ...string) error {
	if len(blockHashes) == 0 {
		return nil
	}
	params := make([]interface{}, 0, len(blockHashes))
	for _, h := range blockHashes {
		params = append(params, h)
	}
	if _, err := c.call(ctx, "chain_unpinBlocks", params); err != nil {
		return fmt.Errorf("unpin %d blocks: %w", len(blockHashes), err)
	}
	return nil
}
