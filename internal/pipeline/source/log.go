package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/event"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/metrics"
)

// maxLineBytes bounds a single event log line.
const maxLineBytes = 1 << 20

// Log streams NDJSON-encoded events from a reader into the pipeline
// channel. Lines that fail to decode are skipped with a warning; empty
// lines are ignored. Events with unknown kinds are forwarded as-is, the
// tracker drops them.
type Log struct {
	network string
	r       io.Reader
	out     chan<- event.Event
	logger  *slog.Logger
}

func NewLog(network string, r io.Reader, out chan<- event.Event, logger *slog.Logger) *Log {
	return &Log{
		network: network,
		r:       r,
		out:     out,
		logger:  logger.With("component", "source", "network", network),
	}
}

// Run reads the log to EOF, then closes the output channel.
func (l *Log) Run(ctx context.Context) error {
	defer close(l.out)

	scanner := bufio.NewScanner(l.r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev event.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			metrics.SourceDecodeErrors.WithLabelValues(l.network).Inc()
			l.logger.Warn("skipping undecodable event line", "line", lineNo, "error", err)
			continue
		}

		select {
		case l.out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event log: %w", err)
	}

	l.logger.Info("event log exhausted", "lines", lineNo)
	return nil
}

// ReadAll decodes an entire NDJSON event log into memory. Used by the
// replay harness where the full log is needed up front.
func ReadAll(r io.Reader) ([]event.Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var events []event.Event
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev event.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("decode event line %d: %w", lineNo, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	return events, nil
}
