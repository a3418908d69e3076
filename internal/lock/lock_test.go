package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMutex_TryLockRespectsHeldLock(t *testing.T) {
	m := NewMutex()
	assert.True(t, m.TryLock())
	assert.False(t, m.TryLock(), "already held")
	m.Unlock()
	assert.True(t, m.TryLock())
	m.Unlock()
}

func TestNoOp_NeverContends(t *testing.T) {
	var n NoOp
	assert.True(t, n.TryLock())
	assert.True(t, n.TryLock())
	n.Lock()
	n.Unlock()
}
