package external

import (
	"errors"
	"sync"
)

// Memory is an in-memory Source for tests.
type Memory struct {
	mu      sync.Mutex
	data    []byte
	reads   int
	writes  int
	failErr error
}

// NewMemory returns a Memory holding data. Nil data means no credential.
func NewMemory(data []byte) *Memory {
	return &Memory{data: data}
}

// FailWrites makes every Write return err. Nil clears it.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Read implements Source.
func (m *Memory) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.data == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.data...), nil
}

// Write implements Source.
func (m *Memory) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	if data == nil {
		return errors.New("nil credential")
	}
	m.writes++
	m.data = append([]byte(nil), data...)
	return nil
}

// Location implements Source.
func (m *Memory) Location() string {
	return "memory"
}

// Data returns the current blob without counting a read.
func (m *Memory) Data() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// Counts returns the number of reads and successful writes.
func (m *Memory) Counts() (reads, writes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads, m.writes
}
