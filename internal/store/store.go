// Package store remembers the templates last sent for each location.
package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/livefir/rsxhot"
)

// ErrNotFound is returned by Get for an unknown location.
var ErrNotFound = errors.New("template not found")

// Entry is a stored template with its location.
type Entry struct {
	Location string                      `json:"location"`
	Template *rsxhot.HotReloadedTemplate `json:"template"`
}

// Store persists templates by location.
type Store interface {
	Get(ctx context.Context, location string) (*rsxhot.HotReloadedTemplate, error)
	Put(ctx context.Context, location string, tmpl *rsxhot.HotReloadedTemplate) error
	Delete(ctx context.Context, location string) error
	// DeletePrefix removes every location starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	// List returns every entry ordered by location.
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

// Memory is a Store backed by a map.
type Memory struct {
	mu        sync.RWMutex
	templates map[string]*rsxhot.HotReloadedTemplate
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{templates: make(map[string]*rsxhot.HotReloadedTemplate)}
}

func (m *Memory) Get(_ context.Context, location string) (*rsxhot.HotReloadedTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tmpl, ok := m.templates[location]
	if !ok {
		return nil, ErrNotFound
	}
	return tmpl, nil
}

func (m *Memory) Put(_ context.Context, location string, tmpl *rsxhot.HotReloadedTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[location] = tmpl
	return nil
}

func (m *Memory) Delete(_ context.Context, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.templates, location)
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for location := range m.templates {
		if strings.HasPrefix(location, prefix) {
			delete(m.templates, location)
		}
	}
	return nil
}

func (m *Memory) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]Entry, 0, len(m.templates))
	for location, tmpl := range m.templates {
		entries = append(entries, Entry{Location: location, Template: tmpl})
	}
	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Location, b.Location) })
	return entries, nil
}

func (m *Memory) Close() error { return nil }
