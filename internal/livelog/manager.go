// Package livelog keeps in-memory progress logs for running
// conversion tasks so the API can show live output.
package livelog

import (
	"strings"
	"sync"
	"time"
)

const maxLines = 500

// Entry is the live log of one task.
type Entry struct {
	TaskID     string    `json:"task_id"`
	Lines      []string  `json:"lines"`
	StartTime  time.Time `json:"start_time"`
	LastUpdate time.Time `json:"last_update"`
}

// Manager manages live logs keyed by task public ID.
type Manager struct {
	mu   sync.RWMutex
	logs map[string]*Entry
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{logs: make(map[string]*Entry)}
}

// Start creates a live log entry for a task.
func (m *Manager) Start(taskID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.logs[taskID] = &Entry{TaskID: taskID, StartTime: now, LastUpdate: now}
}

// Append adds a line to a task's log, dropping the oldest lines past
// the cap.
func (m *Manager) Append(taskID, line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.logs[taskID]
	if !ok {
		return
	}
	entry.Lines = append(entry.Lines, strings.TrimRight(line, "\n"))
	if len(entry.Lines) > maxLines {
		entry.Lines = entry.Lines[len(entry.Lines)-maxLines:]
	}
	entry.LastUpdate = time.Now()
}

// Get returns a copy of a task's live log.
func (m *Manager) Get(taskID string) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.logs[taskID]
	if !ok {
		return nil, false
	}
	return copyEntry(entry), true
}

// Active returns copies of all live logs.
func (m *Manager) Active() []*Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Entry, 0, len(m.logs))
	for _, entry := range m.logs {
		out = append(out, copyEntry(entry))
	}
	return out
}

// End removes a task's live log once the task is finished and
// persisted.
func (m *Manager) End(taskID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.logs, taskID)
}

// CleanStale drops logs not updated within maxAge.
func (m *Manager) CleanStale(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, entry := range m.logs {
		if now.Sub(entry.LastUpdate) > maxAge {
			delete(m.logs, id)
		}
	}
}

func copyEntry(entry *Entry) *Entry {
	lines := make([]string, len(entry.Lines))
	copy(lines, entry.Lines)
	return &Entry{
		TaskID:     entry.TaskID,
		Lines:      lines,
		StartTime:  entry.StartTime,
		LastUpdate: entry.LastUpdate,
	}
}
