package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyActiveLatestKey(t *testing.T) {
	snap := &SettlementSnapshot{
		PlanID:   12,
		Status:   SettlementSnapshotStatusActive,
		IsLatest: true,
	}

	snap.ApplyActiveLatestKey()
	require.NotNil(t, snap.ActiveLatestKey)
	assert.Equal(t, "12", *snap.ActiveLatestKey)

	// Retired rows drop out of the uniqueness domain
	snap.IsLatest = false
	snap.ApplyActiveLatestKey()
	assert.Nil(t, snap.ActiveLatestKey)

	snap.IsLatest = true
	snap.Status = SettlementSnapshotStatusCancelled
	snap.ApplyActiveLatestKey()
	assert.Nil(t, snap.ActiveLatestKey)
}

func TestNewSettlementReference(t *testing.T) {
	ref := NewSettlementReference(42)

	assert.True(t, strings.HasPrefix(ref, "STL-42-"))
	suffix := strings.TrimPrefix(ref, "STL-42-")
	assert.Len(t, suffix, 8)
	assert.Equal(t, strings.ToUpper(suffix), suffix)

	assert.NotEqual(t, ref, NewSettlementReference(42))
}

func TestPlanStatusIsTerminal(t *testing.T) {
	for _, s := range []PlanStatus{PlanStatusCompleted, PlanStatusCancelled, PlanStatusDefaulted} {
		assert.True(t, s.IsTerminal(), "%s", s)
	}
	for _, s := range []PlanStatus{PlanStatusIncomplete, PlanStatusActive} {
		assert.False(t, s.IsTerminal(), "%s", s)
	}
}
