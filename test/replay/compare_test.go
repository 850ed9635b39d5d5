package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/model"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settled(tx, block string, successful bool) tracker.TraceEntry {
	return tracker.TraceEntry{
		Stage: tracker.StageSettled,
		Tx:    model.TxRef(tx),
		Outcome: model.Outcome{
			BlockHash:  block,
			Type:       model.OutcomeValid,
			Successful: successful,
		},
	}
}

func done(tx, block string, successful bool) tracker.TraceEntry {
	e := settled(tx, block, successful)
	e.Stage = tracker.StageDone
	return e
}

func TestCompareTraces_Match(t *testing.T) {
	t.Parallel()

	trace := []tracker.TraceEntry{
		settled("tx-1", "0xa", true),
		done("tx-1", "0xa", true),
	}
	result := compareTraces(trace, trace)

	assert.False(t, result.HasMismatch())
	assert.Equal(t, []int{0, 1}, result.Matching)
}

func TestCompareTraces_Divergent(t *testing.T) {
	t.Parallel()

	produced := []tracker.TraceEntry{settled("tx-1", "0xa", true)}
	expected := []tracker.TraceEntry{settled("tx-1", "0xb", false)}

	result := compareTraces(produced, expected)
	require.True(t, result.HasMismatch())
	require.Len(t, result.Divergent, 2)

	assert.Equal(t, "block_hash", result.Divergent[0].Field)
	assert.Equal(t, "0xa", result.Divergent[0].ProducedValue)
	assert.Equal(t, "0xb", result.Divergent[0].ExpectedValue)
	assert.Equal(t, "successful", result.Divergent[1].Field)
	assert.Empty(t, result.Matching)
}

func TestCompareTraces_OrderMatters(t *testing.T) {
	t.Parallel()

	produced := []tracker.TraceEntry{
		settled("tx-1", "0xa", true),
		settled("tx-2", "0xa", true),
	}
	expected := []tracker.TraceEntry{
		settled("tx-2", "0xa", true),
		settled("tx-1", "0xa", true),
	}

	result := compareTraces(produced, expected)
	assert.True(t, result.HasMismatch())
	assert.Len(t, result.Divergent, 2)
}

func TestCompareTraces_MissingAndExtra(t *testing.T) {
	t.Parallel()

	base := settled("tx-1", "0xa", true)

	short := []tracker.TraceEntry{base}
	long := []tracker.TraceEntry{base, done("tx-1", "0xa", true)}

	result := compareTraces(short, long)
	require.Len(t, result.Missing, 1)
	assert.Equal(t, 1, result.Missing[0].Index)
	assert.Equal(t, tracker.StageDone, result.Missing[0].Expected.Stage)

	result = compareTraces(long, short)
	require.Len(t, result.Extra, 1)
	assert.Equal(t, 1, result.Extra[0].Index)
}

func TestPrintTextReport(t *testing.T) {
	t.Parallel()

	produced := []tracker.TraceEntry{settled("tx-1", "0xa", true)}
	expected := []tracker.TraceEntry{settled("tx-1", "0xa", true), done("tx-1", "0xa", true)}
	result := compareTraces(produced, expected)

	var buf bytes.Buffer
	printTextReport(&buf, "run-1", "testnet", 5, len(produced), len(expected), result)

	out := buf.String()
	assert.Contains(t, out, "Run: run-1")
	assert.Contains(t, out, "Events replayed: 5")
	assert.Contains(t, out, "Missing: 1")
	assert.Contains(t, out, "Result: MISMATCH")
}

func TestPrintJSONReport(t *testing.T) {
	t.Parallel()

	trace := []tracker.TraceEntry{settled("tx-1", "0xa", true)}
	result := compareTraces(trace, trace)

	var buf bytes.Buffer
	require.NoError(t, printJSONReport(&buf, "run-2", "testnet", 3, 1, 1, result))

	var report map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "MATCH", report["result"])
	assert.Equal(t, "run-2", report["run_id"])
	assert.Equal(t, float64(3), report["events_replayed"])
}
