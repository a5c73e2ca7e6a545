// Package clients tracks connected devices and owns their outbound writers.
package clients

import "sync"

// Manager is the set of open clients.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewManager() *Manager {
	return &Manager{clients: make(map[string]*Client)}
}

func (m *Manager) Add(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID] = c
}

// Remove deletes c and reports whether it was present.
func (m *Manager) Remove(c *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.clients[c.ID]; !ok || cur != c {
		return false
	}
	delete(m.clients, c.ID)
	return true
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// ForEach executes fn with a snapshot of the clients.
func (m *Manager) ForEach(fn func(c *Client)) {
	m.mu.RLock()
	snapshot := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		snapshot = append(snapshot, c)
	}
	m.mu.RUnlock()
	for _, c := range snapshot {
		fn(c)
	}
}

// CloseAll closes every client; their read loops then deregister them.
func (m *Manager) CloseAll() {
	m.ForEach(func(c *Client) { c.Close() })
}
