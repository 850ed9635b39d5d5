package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rpcResult(t *testing.T, w http.ResponseWriter, id int, result interface{}) {
	t.Helper()
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	resp := Response{JSONRPC: "2.0", ID: id, Result: raw}
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestClient_GetBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)
		assert.Equal(t, "chain_getBody", req.Method)
		require.Len(t, req.Params, 1)
		assert.Equal(t, "0xabc", req.Params[0])
		rpcResult(t, w, req.ID, []string{"tx-1", "tx-2"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, slog.Default())
	body, err := client.GetBody(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Len(t, body, 2)
	assert.EqualValues(t, "tx-1", body[0])
}

func TestClient_BooleanQueries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.Method {
		case "chain_validateTransaction":
			rpcResult(t, w, req.ID, true)
		case "chain_transactionSuccess":
			rpcResult(t, w, req.ID, false)
		default:
			t.Errorf("unexpected method %q", req.Method)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, slog.Default())

	valid, err := client.IsTxValid(context.Background(), "0xabc", "tx-1")
	require.NoError(t, err)
	assert.True(t, valid)

	success, err := client.IsTxSuccessful(context.Background(), "0xabc", "tx-1")
	require.NoError(t, err)
	assert.False(t, success)
}

func TestClient_Unpin(t *testing.T) {
	t.Parallel()

	var gotParams atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "chain_unpinBlocks", req.Method)
		gotParams.Store(len(req.Params))
		rpcResult(t, w, req.ID, nil)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, slog.Default())
	require.NoError(t, client.Unpin(context.Background(), "0xa", "0xb"))
	assert.Equal(t, 2, gotParams.Load())

	// No blocks means no call at all.
	require.NoError(t, client.Unpin(context.Background()))
}

func TestClient_RPCErrorIsTerminal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: -32602, Message: "invalid params"},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, slog.Default())
	_, err := client.GetBody(context.Background(), "0xabc")
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32602, rpcErr.Code)
	assert.Equal(t, int64(1), calls.Load(), "terminal errors must not be retried")
}

func TestClient_RetriesTransientHTTPFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		rpcResult(t, w, req.ID, []string{"tx-1"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, slog.Default(),
		WithRetryConfig(3, time.Millisecond, 10*time.Millisecond))

	body, err := client.GetBody(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Len(t, body, 1)
	assert.Equal(t, int64(2), calls.Load())
}

func TestClient_RetriesExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, slog.Default(),
		WithRetryConfig(3, time.Millisecond, 10*time.Millisecond))

	_, err := client.GetBody(context.Background(), "0xabc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http status 503")
	assert.Equal(t, int64(3), calls.Load())
}

func TestClient_OpenBreakerShortCircuits(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		OpenTimeout:      time.Hour,
	})
	client := NewClient(srv.URL, slog.Default(),
		WithBreaker(breaker),
		WithRetryConfig(1, time.Millisecond, time.Millisecond))

	_, err := client.GetBody(context.Background(), "0xabc")
	require.Error(t, err)
	require.Equal(t, circuitbreaker.StateOpen, breaker.CurrentState())

	// Second call must be rejected before it reaches the wire.
	_, err = client.GetBody(context.Background(), "0xabc")
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestClient_RequestIDsIncrease(t *testing.T) {
	t.Parallel()

	var ids []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		ids = append(ids, req.ID)
		rpcResult(t, w, req.ID, []string{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, slog.Default())
	for i := 0; i < 3; i++ {
		_, err := client.GetBody(context.Background(), fmt.Sprintf("0x%d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, []int{1, 2, 3}, ids)
}
