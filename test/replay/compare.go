package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/tracker"
)

// CompareResult holds the outcome of comparing a replayed callback trace
// against the expected golden trace. Callback order is part of the
// contract, so entries are compared positionally.
type CompareResult struct {
	Matching  []int            `json:"matching"`
	Missing   []MissingEntry   `json:"missing"`   // expected but not produced
	Extra     []ExtraEntry     `json:"extra"`     // produced but not expected
	Divergent []DivergentEntry `json:"divergent"` // same position, fields differ
}

// MissingEntry is an expected trace entry the replay never produced.
type MissingEntry struct {
	Index    int                `json:"index"`
	Expected tracker.TraceEntry `json:"expected"`
}

// ExtraEntry is a produced trace entry the golden trace does not contain.
type ExtraEntry struct {
	Index    int                `json:"index"`
	Produced tracker.TraceEntry `json:"produced"`
}

// DivergentEntry records a field-level mismatch at one trace position.
type DivergentEntry struct {
	Index         int    `json:"index"`
	Field         string `json:"field"`
	ProducedValue string `json:"produced_value"`
	ExpectedValue string `json:"expected_value"`
}

// HasMismatch returns true if any entries are missing, extra or divergent.
func (r *CompareResult) HasMismatch() bool {
	return len(r.Missing) > 0 || len(r.Extra) > 0 || len(r.Divergent) > 0
}

// compareTraces walks the produced and expected traces in lockstep.
func compareTraces(produced, expected []tracker.TraceEntry) CompareResult {
	var result CompareResult

	n := len(produced)
	if len(expected) < n {
		n = len(expected)
	}

	for i := 0; i < n; i++ {
		p, e := produced[i], expected[i]

		checkField := func(field, producedVal, expectedVal string) {
			if producedVal != expectedVal {
				result.Divergent = append(result.Divergent, DivergentEntry{
					Index:         i,
					Field:         field,
					ProducedValue: producedVal,
					ExpectedValue: expectedVal,
				})
			}
		}
		checkField("stage", string(p.Stage), string(e.Stage))
		checkField("tx", string(p.Tx), string(e.Tx))
		checkField("block_hash", p.Outcome.BlockHash, e.Outcome.BlockHash)
		checkField("type", string(p.Outcome.Type), string(e.Outcome.Type))
		checkField("successful", fmt.Sprintf("%t", p.Outcome.Successful), fmt.Sprintf("%t", e.Outcome.Successful))

		if p == e {
			result.Matching = append(result.Matching, i)
		}
	}

	for i := n; i < len(expected); i++ {
		result.Missing = append(result.Missing, MissingEntry{Index: i, Expected: expected[i]})
	}
	for i := n; i < len(produced); i++ {
		result.Extra = append(result.Extra, ExtraEntry{Index: i, Produced: produced[i]})
	}

	return result
}

// printTextReport writes a human-readable report to w.
func printTextReport(w io.Writer, runID, network string, eventCount, producedCount, expectedCount int, result CompareResult) {
	fmt.Fprintln(w, "=== Replay Verification Report ===")
	fmt.Fprintf(w, "Run: %s\n", runID)
	fmt.Fprintf(w, "Network: %s\n", network)
	fmt.Fprintf(w, "Events replayed: %d\n", eventCount)
	fmt.Fprintf(w, "Produced callbacks: %d\n", producedCount)
	fmt.Fprintf(w, "Expected callbacks: %d\n", expectedCount)
	fmt.Fprintf(w, "Matching: %d\n", len(result.Matching))
	fmt.Fprintf(w, "Missing: %d\n", len(result.Missing))
	fmt.Fprintf(w, "Extra: %d\n", len(result.Extra))
	fmt.Fprintf(w, "Divergent: %d\n", len(result.Divergent))

	if len(result.Missing) > 0 {
		fmt.Fprintln(w, "\n--- Missing (expected but not produced) ---")
		for _, m := range result.Missing {
			fmt.Fprintf(w, "  [%d] %s %s @ %s\n", m.Index, m.Expected.Stage, m.Expected.Tx, m.Expected.Outcome.BlockHash)
		}
	}
	if len(result.Extra) > 0 {
		fmt.Fprintln(w, "\n--- Extra (produced but not expected) ---")
		for _, e := range result.Extra {
			fmt.Fprintf(w, "  [%d] %s %s @ %s\n", e.Index, e.Produced.Stage, e.Produced.Tx, e.Produced.Outcome.BlockHash)
		}
	}
	if len(result.Divergent) > 0 {
		fmt.Fprintln(w, "\n--- Divergent (field mismatches) ---")
		for _, d := range result.Divergent {
			fmt.Fprintf(w, "  [%d] %s produced=%q expected=%q\n", d.Index, d.Field, d.ProducedValue, d.ExpectedValue)
		}
	}

	fmt.Fprintln(w)
	if !result.HasMismatch() {
		fmt.Fprintln(w, "Result: MATCH")
	} else {
		fmt.Fprintln(w, "Result: MISMATCH")
	}
}

// printJSONReport writes a JSON report to w.
func printJSONReport(w io.Writer, runID, network string, eventCount, producedCount, expectedCount int, result CompareResult) error {
	report := struct {
		RunID         string        `json:"run_id"`
		Network       string        `json:"network"`
		EventCount    int           `json:"events_replayed"`
		ProducedCount int           `json:"produced_callbacks"`
		ExpectedCount int           `json:"expected_callbacks"`
		Result        string        `json:"result"`
		Compare       CompareResult `json:"compare"`
	}{
		RunID:         runID,
		Network:       network,
		EventCount:    eventCount,
		ProducedCount: producedCount,
		ExpectedCount: expectedCount,
		Compare:       result,
	}
	if result.HasMismatch() {
		report.Result = "MISMATCH"
	} else {
		report.Result = "MATCH"
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
