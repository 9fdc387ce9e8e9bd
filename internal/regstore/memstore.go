package regstore

import "strings"

// MemStore is an in-memory Store used by tests and dry runs.
// Key paths are case-insensitive, matching registry semantics.
type MemStore struct {
	keys map[string]map[string]any
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{keys: make(map[string]map[string]any)}
}

func normKey(key string) string {
	return strings.ToLower(strings.Trim(key, `\`))
}

func (m *MemStore) values(key string) map[string]any {
	return m.keys[normKey(key)]
}

func (m *MemStore) ensure(key string) map[string]any {
	k := normKey(key)
	if m.keys[k] == nil {
		m.keys[k] = make(map[string]any)
	}
	return m.keys[k]
}

func (m *MemStore) ReadString(key, name string) (string, error) {
	vals := m.values(key)
	if vals == nil {
		return "", ErrNotExist
	}
	v, ok := vals[name]
	if !ok {
		return "", ErrNotExist
	}
	s, ok := v.(string)
	if !ok {
		return "", ErrNotExist
	}
	return s, nil
}

func (m *MemStore) WriteString(key, name, value string) error {
	m.ensure(key)[name] = value
	return nil
}

func (m *MemStore) WriteDWord(key, name string, value uint32) error {
	m.ensure(key)[name] = value
	return nil
}

func (m *MemStore) DeleteValue(key, name string) error {
	if vals := m.values(key); vals != nil {
		delete(vals, name)
	}
	return nil
}

func (m *MemStore) DeleteKey(key string) error {
	delete(m.keys, normKey(key))
	return nil
}

func (m *MemStore) HasValue(key, name string) bool {
	vals := m.values(key)
	if vals == nil {
		return false
	}
	_, ok := vals[name]
	return ok
}

// HasKey reports whether the key itself exists. Test helper.
func (m *MemStore) HasKey(key string) bool {
	return m.values(key) != nil
}

// Keys returns the paths of all existing keys. Test helper.
func (m *MemStore) Keys() []string {
	out := make([]string, 0, len(m.keys))
	for k := range m.keys {
		out = append(out, k)
	}
	return out
}
