package store

import (
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory store.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]VersionEntry // oldest first
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string][]VersionEntry),
	}
}

// Get retrieves the current rule for a locale.
func (m *Memory) Get(locale string) (*Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions, ok := m.data[locale]
	if !ok || len(versions) == 0 {
		return nil, nil
	}
	last := versions[len(versions)-1]
	r := &Rule{Locale: locale, Source: last.Source, Digest: last.Digest}
	if err := r.Verify(); err != nil {
		return nil, err
	}
	return r, nil
}

// Put stores a rule. Storing the current source again is a no-op.
func (m *Memory) Put(r Rule) error {
	r, err := seal(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	versions := m.data[r.Locale]
	if n := len(versions); n > 0 && versions[n-1].Source == r.Source {
		return nil
	}
	m.data[r.Locale] = append(versions, VersionEntry{
		Version: len(versions) + 1,
		Source:  r.Source,
		Digest:  r.Digest,
		Ts:      time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

// Delete removes a locale and all its versions.
func (m *Memory) Delete(locale string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, locale)
	return nil
}

// List returns the stored locales.
func (m *Memory) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	locales := make([]string, 0, len(m.data))
	for locale := range m.data {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales, nil
}

// GetHistory returns versions newest first. A limit of 0 returns all.
func (m *Memory) GetHistory(locale string, limit int) ([]VersionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions := m.data[locale]
	if len(versions) == 0 {
		return nil, nil
	}
	var out []VersionEntry
	for i := len(versions) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, versions[i])
	}
	return out, nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}
