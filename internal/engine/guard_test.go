package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/packtrack/internal/id"
)

func TestDepthQuota_WithinLimit(t *testing.T) {
	q := NewDepthQuota(3)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enter(), "level %d should be allowed", i+1)
	}
	assert.Equal(t, 3, q.Current())
}

func TestDepthQuota_ExceedsLimit(t *testing.T) {
	q := NewDepthQuota(2)
	require.NoError(t, q.Enter())
	require.NoError(t, q.Enter())

	err := q.Enter()
	require.Error(t, err)
	var exceeded *DepthExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 3, exceeded.Depth)
	assert.Equal(t, 2, exceeded.Limit)
	assert.Equal(t, "rule nesting exceeded depth quota: 3 > 2", err.Error())
	assert.Equal(t, 2, q.Current(), "failed Enter must not descend")
}

func TestDepthQuota_LeaveRestoresBudget(t *testing.T) {
	q := NewDepthQuota(1)
	require.NoError(t, q.Enter())
	q.Leave()
	q.Leave() // extra Leave is a no-op
	assert.Equal(t, 0, q.Current())
	require.NoError(t, q.Enter())
}

func TestCycleGuard_ReentryIsRejected(t *testing.T) {
	alloc := id.NewAllocator()
	a := id.Next[struct{}](alloc).Erase()
	b := id.Next[struct{}](alloc).Erase()

	g := NewCycleGuard()
	require.True(t, g.Enter(a))
	require.True(t, g.Enter(b))
	assert.Equal(t, 2, g.Depth())

	assert.False(t, g.Enter(a), "a is still on the stack")

	g.Leave(b)
	g.Leave(a)
	assert.Equal(t, 0, g.Depth())
	assert.True(t, g.Enter(a), "a may be evaluated again after leaving")
}
