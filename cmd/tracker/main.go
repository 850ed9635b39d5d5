package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/admin"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/alert"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/chain"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/chain/ratelimit"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/chain/rpc"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/circuitbreaker"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/config"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/event"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/model"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/metrics"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/pipeline"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/pipeline/source"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/tracing"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/tracker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("tracker exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "tx-tracker", cfg.Trace.OTLPEndpoint, cfg.Trace.Insecure)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	alerter := buildAlerter(cfg, logger)
	adapter := buildAdapter(ctx, cfg, logger, alerter)

	eventCh := make(chan event.Event, cfg.Source.BufferSize)
	eventSource, closeSource, err := openEventSource(cfg, eventCh, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	callbacks := tracker.Fanout(
		&loggingCallbacks{logger: logger},
		newTraceSink(os.Stdout, logger),
	)
	trk := tracker.New(cfg.Node.Network, adapter, callbacks, logger,
		tracker.WithAlerter(alerter),
	)
	health := pipeline.NewHealth(cfg.Node.Network)
	pipe := pipeline.New(cfg.Node.Network, eventCh, trk, health, logger)

	adminServer := admin.NewServer(trk, logger, admin.WithHealthProvider(healthAdapter{health}))
	mux := http.NewServeMux()
	mux.Handle("/", adminServer.Handler())
	mux.Handle("/metrics", promhttp.Handler())
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.AdminPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("tx tracker starting",
		"network", cfg.Node.Network,
		"node_rpc", cfg.Node.RPCURL,
		"event_log", cfg.Source.EventLogPath,
		"admin_port", cfg.Server.AdminPort,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eventSource.Run(gctx)
	})
	g.Go(func() error {
		return pipe.Run(gctx)
	})
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("admin server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func buildAlerter(cfg *config.Config, logger *slog.Logger) alert.Alerter {
	if cfg.Alert.WebhookURL == "" {
		return &alert.Noop{}
	}
	cooldown := time.Duration(cfg.Alert.CooldownMinutes) * time.Minute
	return alert.NewMulti(cooldown, logger, alert.NewWebhook(cfg.Alert.WebhookURL))
}

func buildAdapter(ctx context.Context, cfg *config.Config, logger *slog.Logger, alerter alert.Alerter) chain.Adapter {
	network := cfg.Node.Network
	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.Node.BreakerFailures,
		OpenTimeout:      time.Duration(cfg.Node.BreakerOpenSecs) * time.Second,
		OnStateChange:    breakerStateChange(ctx, network, cfg.Node.RPCURL, logger, alerter),
	})

	client := rpc.NewClient(cfg.Node.RPCURL, logger,
		rpc.WithTimeout(cfg.Node.Timeout),
		rpc.WithRateLimiter(ratelimit.NewLimiter(cfg.Node.RateLimitRPS, cfg.Node.RateLimitBurst, network)),
		rpc.WithBreaker(breaker),
		rpc.WithRetryConfig(cfg.Node.RetryAttempts, 100*time.Millisecond, 2*time.Second),
	)
	return chain.NewCachedAdapter(client, cfg.Node.CacheCapacity, cfg.Node.CacheTTL)
}

// breakerStateChange returns the OnStateChange hook for the node RPC
// breaker. The breaker can open during shutdown, after the run context
// is already canceled, so the alert send uses a detached context.
func breakerStateChange(ctx context.Context, network, rpcURL string, logger *slog.Logger, alerter alert.Alerter) func(from, to circuitbreaker.State) {
	alertCtx := context.WithoutCancel(ctx)
	return func(from, to circuitbreaker.State) {
		metrics.RPCBreakerState.WithLabelValues(network).Set(float64(to))
		logger.Warn("rpc circuit breaker state changed", "from", from.String(), "to", to.String())
		if to != circuitbreaker.StateOpen {
			return
		}
		if err := alerter.Send(alertCtx, alert.Alert{
			Type:    alert.TypeRPCDegraded,
			Network: network,
			Title:   "Node RPC circuit breaker open",
			Message: fmt.Sprintf("node RPC at %s is failing, calls are being rejected", rpcURL),
		}); err != nil {
			logger.Warn("failed to send breaker alert", "error", err)
		}
	}
}

func openEventSource(cfg *config.Config, eventCh chan event.Event, logger *slog.Logger) (*source.Log, func(), error) {
	if cfg.Source.EventLogPath == "-" {
		return source.NewLog(cfg.Node.Network, os.Stdin, eventCh, logger), func() {}, nil
	}
	f, err := os.Open(cfg.Source.EventLogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log: %w", err)
	}
	return source.NewLog(cfg.Node.Network, f, eventCh, logger), func() { f.Close() }, nil
}

// loggingCallbacks logs every lifecycle notification.
type loggingCallbacks struct {
	logger *slog.Logger
}

func (l *loggingCallbacks) OnTxSettled(tx model.TxRef, outcome model.Outcome) {
	l.logger.Info("transaction settled",
		"tx", tx,
		"block", outcome.BlockHash,
		"type", outcome.Type,
		"successful", outcome.Successful,
	)
}

func (l *loggingCallbacks) OnTxDone(tx model.TxRef, outcome model.Outcome) {
	l.logger.Info("transaction done",
		"tx", tx,
		"block", outcome.BlockHash,
		"type", outcome.Type,
		"successful", outcome.Successful,
	)
}

// traceSink emits the callback trace as NDJSON on stdout so downstream
// tooling (and the replay harness) can consume it. Write failures are
// logged once; the trace is best-effort output, not tracker state.
type traceSink struct {
	enc    *json.Encoder
	logger *slog.Logger
	failed bool
}

func newTraceSink(w io.Writer, logger *slog.Logger) *traceSink {
	return &traceSink{enc: json.NewEncoder(w), logger: logger.With("component", "trace_sink")}
}

func (t *traceSink) OnTxSettled(tx model.TxRef, outcome model.Outcome) {
	t.write(tracker.TraceEntry{Stage: tracker.StageSettled, Tx: tx, Outcome: outcome})
}

func (t *traceSink) OnTxDone(tx model.TxRef, outcome model.Outcome) {
	t.write(tracker.TraceEntry{Stage: tracker.StageDone, Tx: tx, Outcome: outcome})
}

func (t *traceSink) write(e tracker.TraceEntry) {
	if err := t.enc.Encode(e); err != nil && !t.failed {
		t.failed = true
		t.logger.Warn("trace output write failed, trace is truncated", "error", err)
	}
}

// healthAdapter bridges pipeline.Health to the admin HealthProvider.
type healthAdapter struct {
	health *pipeline.Health
}

func (h healthAdapter) Snapshot() any { return h.health.Snapshot() }
