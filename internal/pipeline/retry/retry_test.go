package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type codedError struct{ code int }

func (e *codedError) Error() string    { return fmt.Sprintf("rpc error %d", e.code) }
func (e *codedError) JSONRPCCode() int { return e.code }

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o deadline reached" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		class  Class
		reason string
	}{
		{"nil", nil, ClassTerminal, "nil_error"},
		{"explicit transient", Transient(errors.New("x")), ClassTransient, "explicit_transient"},
		{"explicit terminal", Terminal(errors.New("x")), ClassTerminal, "explicit_terminal"},
		{"wrapped explicit", fmt.Errorf("outer: %w", Transient(errors.New("x"))), ClassTransient, "explicit_transient"},
		{"context canceled", context.Canceled, ClassTerminal, "context_canceled"},
		{"deadline exceeded", context.DeadlineExceeded, ClassTransient, "context_deadline_exceeded"},
		{"net timeout", timeoutError{}, ClassTransient, "net_timeout"},
		{"jsonrpc internal", &codedError{code: -32603}, ClassTransient, "jsonrpc_server_transient"},
		{"jsonrpc server range", &codedError{code: -32050}, ClassTransient, "jsonrpc_server_range"},
		{"jsonrpc invalid params", &codedError{code: -32602}, ClassTerminal, "jsonrpc_terminal"},
		{"message 503", errors.New("http status 503: overloaded"), ClassTransient, "message_transient"},
		{"message connection refused", errors.New("dial tcp: connection refused"), ClassTransient, "message_transient"},
		{"message unknown block", errors.New("unknown block 0xabc"), ClassTerminal, "message_terminal"},
		{"unknown defaults terminal", errors.New("something odd"), ClassTerminal, "unknown_terminal_default"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := Classify(tc.err)
			assert.Equal(t, tc.class, d.Class)
			assert.Equal(t, tc.reason, d.Reason)
		})
	}
}

func TestMarkersPreserveWrappedError(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	assert.ErrorIs(t, Transient(base), base)
	assert.ErrorIs(t, Terminal(base), base)
	assert.Nil(t, Transient(nil))
	assert.Nil(t, Terminal(nil))
}

func TestDecision_IsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, Decision{Class: ClassTransient}.IsTransient())
	assert.False(t, Decision{Class: ClassTerminal}.IsTransient())
}
