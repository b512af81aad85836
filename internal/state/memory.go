package state

import (
	"context"
	"encoding/json"
	"maps"
	"sync"
)

// Memory is an in-process Store. Values are kept as JSON so reads never
// alias what was saved.
type Memory struct {
	mu       sync.Mutex
	docs     map[string]map[Field][]byte
	stamps   map[string]map[Field]Stamp
	version  int64
	watchers map[string]map[int]func(Snapshot)
	nextID   int
	saveErr  error
	saves    int
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		docs:     make(map[string]map[Field][]byte),
		stamps:   make(map[string]map[Field]Stamp),
		watchers: make(map[string]map[int]func(Snapshot)),
	}
}

func (m *Memory) Load(_ context.Context, userID string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(userID)
}

func (m *Memory) loadLocked(userID string) (Document, error) {
	fields, ok := m.docs[userID]
	if !ok {
		return Document{}, ErrNotFound
	}
	var doc Document
	for f, data := range fields {
		if err := doc.SetJSON(f, data); err != nil {
			return Document{}, err
		}
	}
	return doc, nil
}

func (m *Memory) Save(_ context.Context, userID string, field Field, value any, origin string) error {
	if _, err := (&Document{}).Value(field); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.saves++
	if m.saveErr != nil {
		err := m.saveErr
		m.mu.Unlock()
		return err
	}
	if m.docs[userID] == nil {
		m.docs[userID] = make(map[Field][]byte)
		m.stamps[userID] = make(map[Field]Stamp)
	}
	m.version++
	m.docs[userID][field] = data
	m.stamps[userID][field] = Stamp{Origin: origin, Version: m.version}
	stamps := maps.Clone(m.stamps[userID])
	doc, err := m.loadLocked(userID)
	watchers := make([]func(Snapshot), 0, len(m.watchers[userID]))
	for _, fn := range m.watchers[userID] {
		watchers = append(watchers, fn)
	}
	m.mu.Unlock()

	if err != nil {
		return err
	}
	for _, fn := range watchers {
		fn(Snapshot{Document: doc, Stamps: stamps})
	}
	return nil
}

func (m *Memory) Watch(ctx context.Context, userID string, fn func(Snapshot)) error {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	if m.watchers[userID] == nil {
		m.watchers[userID] = make(map[int]func(Snapshot))
	}
	m.watchers[userID][id] = fn
	m.mu.Unlock()

	<-ctx.Done()

	m.mu.Lock()
	delete(m.watchers[userID], id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Test helpers

// SetSaveError makes every Save fail with err.
func (m *Memory) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// Saves returns the number of Save calls.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Watchers returns the number of active watchers for userID.
func (m *Memory) Watchers(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watchers[userID])
}

// Verify Memory implements Store at compile time.
var _ Store = (*Memory)(nil)
