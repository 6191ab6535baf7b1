package livelog

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAppendGet(t *testing.T) {
	m := NewManager()
	m.Start("task-1")
	m.Append("task-1", "converting photo.png\n")
	m.Append("task-1", "[ 50%] Resizing image")

	entry, ok := m.Get("task-1")
	require.True(t, ok)
	assert.Equal(t, []string{"converting photo.png", "[ 50%] Resizing image"}, entry.Lines)

	// The copy is detached from the manager's state.
	entry.Lines[0] = "mutated"
	again, _ := m.Get("task-1")
	assert.Equal(t, "converting photo.png", again.Lines[0])
}

func TestAppendWithoutStartIsIgnored(t *testing.T) {
	m := NewManager()
	m.Append("ghost", "line")
	_, ok := m.Get("ghost")
	assert.False(t, ok)
}

func TestLinesAreBounded(t *testing.T) {
	m := NewManager()
	m.Start("task-1")
	for i := 0; i < maxLines+50; i++ {
		m.Append("task-1", fmt.Sprintf("line %d", i))
	}
	entry, ok := m.Get("task-1")
	require.True(t, ok)
	assert.Len(t, entry.Lines, maxLines)
	assert.Equal(t, "line 50", entry.Lines[0])
}

func TestEndRemovesEntry(t *testing.T) {
	m := NewManager()
	m.Start("task-1")
	m.Start("task-2")
	assert.Len(t, m.Active(), 2)

	m.End("task-1")
	assert.Len(t, m.Active(), 1)
	_, ok := m.Get("task-1")
	assert.False(t, ok)
}

func TestCleanStale(t *testing.T) {
	m := NewManager()
	m.Start("old")
	m.Start("fresh")

	// Age the first entry directly.
	m.mu.Lock()
	m.logs["old"].LastUpdate = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	m.CleanStale(10 * time.Minute)
	_, ok := m.Get("old")
	assert.False(t, ok)
	_, ok = m.Get("fresh")
	assert.True(t, ok)
}
