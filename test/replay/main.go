// Package main implements a deterministic replay verifier for the
// settlement tracker. It feeds a recorded NDJSON event log through the
// tracker against a chain fixture (block bodies, validity and success
// answers), records the produced callback trace and diffs it against a
// golden trace.
//
// Usage:
//
//	go run ./test/replay \
//	  -events testdata/events.ndjson \
//	  -fixture testdata/chain.json \
//	  -expected testdata/trace.ndjson \
//	  -output text
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/event"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/pipeline/source"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/tracker"
)

const (
	exitMatch    = 0
	exitMismatch = 1
	exitFatal    = 2
)

func main() {
	var (
		eventsFlag   = flag.String("events", "", "NDJSON event log to replay")
		fixtureFlag  = flag.String("fixture", "", "JSON chain fixture (bodies/validity/success)")
		expectedFlag = flag.String("expected", "", "NDJSON golden callback trace")
		networkFlag  = flag.String("network", "replay", "Network label for logs and metrics")
		outputFlag   = flag.String("output", "text", "Output format (text / json)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var missing []string
	if *eventsFlag == "" {
		missing = append(missing, "-events")
	}
	if *fixtureFlag == "" {
		missing = append(missing, "-fixture")
	}
	if *expectedFlag == "" {
		missing = append(missing, "-expected")
	}
	if len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "missing required flags: %s\n", strings.Join(missing, ", "))
		flag.Usage()
		os.Exit(exitFatal)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := uuid.NewString()
	logger.Info("replay verifier starting",
		"run_id", runID,
		"events", *eventsFlag,
		"fixture", *fixtureFlag,
		"expected", *expectedFlag,
	)

	events, err := readEvents(*eventsFlag)
	if err != nil {
		fatal(logger, "load events", err)
	}
	adapter, err := loadFixture(*fixtureFlag)
	if err != nil {
		fatal(logger, "load fixture", err)
	}
	expected, err := readTrace(*expectedFlag)
	if err != nil {
		fatal(logger, "load expected trace", err)
	}

	recorder := tracker.NewRecorder()
	trk := tracker.New(*networkFlag, adapter, recorder, logger)

	for i, ev := range events {
		if err := trk.Handle(ctx, ev); err != nil {
			fatal(logger, fmt.Sprintf("replay event %d", i), err)
		}
	}

	produced := recorder.Entries()
	result := compareTraces(produced, expected)

	switch *outputFlag {
	case "json":
		if err := printJSONReport(os.Stdout, runID, *networkFlag, len(events), len(produced), len(expected), result); err != nil {
			fatal(logger, "write report", err)
		}
	default:
		printTextReport(os.Stdout, runID, *networkFlag, len(events), len(produced), len(expected), result)
	}

	if result.HasMismatch() {
		os.Exit(exitMismatch)
	}
	os.Exit(exitMatch)
}

func readEvents(path string) ([]event.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()
	return source.ReadAll(f)
}

func readTrace(path string) ([]tracker.TraceEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var entries []tracker.TraceEntry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e tracker.TraceEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("decode trace line %d: %w", lineNo, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return entries, nil
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(exitFatal)
}
