package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealth_Transitions(t *testing.T) {
	t.Parallel()

	h := NewHealth("testnet")
	assert.Equal(t, string(HealthStatusUnknown), h.Snapshot().Status)

	h.RecordEvent()
	snap := h.Snapshot()
	assert.Equal(t, string(HealthStatusHealthy), snap.Status)
	assert.Equal(t, int64(1), snap.EventsProcessed)

	h.RecordError(errors.New("boom"))
	snap = h.Snapshot()
	assert.Equal(t, string(HealthStatusUnhealthy), snap.Status)
	assert.Equal(t, "boom", snap.LastError)
	assert.NotNil(t, snap.LastErrorAt)

	// A later success recovers the status.
	h.RecordEvent()
	assert.Equal(t, string(HealthStatusHealthy), h.Snapshot().Status)
}
