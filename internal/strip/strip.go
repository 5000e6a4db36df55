// Package strip keeps an in-memory tab strip for shells without a
// graphical one.
package strip

import (
	"slices"
	"sync"

	"pkt.systems/tabshell/schema"
)

// Memory mirrors the entries a group pushes to its strip.
type Memory struct {
	mu      sync.Mutex
	entries []schema.TabSnapshot
	visible bool
}

// NewMemory returns an empty strip.
func NewMemory() *Memory {
	return &Memory{}
}

// Insert adds an entry at index, clamped to the strip.
func (m *Memory) Insert(tab schema.TabSnapshot, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(tab.ID) >= 0 {
		return
	}
	index = min(max(index, 0), len(m.entries))
	m.entries = slices.Insert(m.entries, index, tab)
}

// Update replaces the entry with the same id.
func (m *Memory) Update(tab schema.TabSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx := m.find(tab.ID); idx >= 0 {
		m.entries[idx] = tab
	}
}

// Remove drops the entry with id.
func (m *Memory) Remove(id schema.TabID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx := m.find(id); idx >= 0 {
		m.entries = slices.Delete(m.entries, idx, idx+1)
	}
}

// Move moves the entry with id to index.
func (m *Memory) Move(id schema.TabID, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.find(id)
	if idx < 0 {
		return
	}
	entry := m.entries[idx]
	m.entries = slices.Delete(m.entries, idx, idx+1)
	index = min(max(index, 0), len(m.entries))
	m.entries = slices.Insert(m.entries, index, entry)
}

// SetVisible shows or hides the strip.
func (m *Memory) SetVisible(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = visible
}

// Visible reports whether the strip is shown.
func (m *Memory) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// Entries returns the entries in strip order.
func (m *Memory) Entries() []schema.TabSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

// IDs returns the entry ids in strip order.
func (m *Memory) IDs() []schema.TabID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]schema.TabID, 0, len(m.entries))
	for _, entry := range m.entries {
		ids = append(ids, entry.ID)
	}
	return ids
}

func (m *Memory) find(id schema.TabID) int {
	return slices.IndexFunc(m.entries, func(entry schema.TabSnapshot) bool {
		return entry.ID == id
	})
}
