package secretstore

import (
	"errors"
	"sync"
)

// Call is one recorded Store operation.
type Call struct {
	Op   string // "get", "set" or "delete"
	Name string
}

// Memory is an in-memory Store that records every call in order and can
// be told to fail writes. It is deterministic and safe for concurrent use.
type Memory struct {
	secrets      map[string]string
	calls        []Call
	mu           sync.Mutex
	failOnSet    bool
	failOnDelete bool
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{secrets: make(map[string]string)}
}

// Preload stores a secret without recording a call.
func (m *Memory) Preload(name, secret string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[name] = secret
}

// FailOnSet makes every subsequent Set fail when fail is true.
func (m *Memory) FailOnSet(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOnSet = fail
}

// FailOnDelete makes every subsequent Delete fail when fail is true.
func (m *Memory) FailOnDelete(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOnDelete = fail
}

// Calls returns a copy of the recorded calls.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Has reports whether a secret exists for name without recording a call.
func (m *Memory) Has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.secrets[name]
	return ok
}

// Peek returns the secret for name without recording a call.
func (m *Memory) Peek(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.secrets[name]
	return s, ok
}

// Get implements Store.
func (m *Memory) Get(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "get", Name: name})
	s, ok := m.secrets[name]
	if !ok {
		return "", notFound(name)
	}
	return s, nil
}

// Set implements Store.
func (m *Memory) Set(name, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "set", Name: name})
	if m.failOnSet {
		return storeErr("set", name, errors.New("simulated write failure"))
	}
	m.secrets[name] = secret
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "delete", Name: name})
	if m.failOnDelete {
		return storeErr("delete", name, errors.New("simulated delete failure"))
	}
	delete(m.secrets, name)
	return nil
}
