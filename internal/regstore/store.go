// Package regstore provides a narrow capability over the Windows registry:
// read, write, and delete string/DWORD values under a rooted scope.
// The install session mutates registry state through this interface only,
// so tests substitute an in-memory store.
package regstore

import "errors"

// Scope selects the registry root the store operates under.
type Scope int

const (
	UserScope    Scope = iota // HKEY_CURRENT_USER
	MachineScope              // HKEY_LOCAL_MACHINE
)

func (s Scope) String() string {
	switch s {
	case UserScope:
		return "user"
	case MachineScope:
		return "machine"
	default:
		return "unknown"
	}
}

// ErrNotExist is returned when a requested key or value is absent.
var ErrNotExist = errors.New("regstore: key or value does not exist")

// Store is the registry capability used by the install session.
// Key paths are backslash-separated and relative to the store's root.
type Store interface {
	// ReadString returns the string value name under key.
	// Returns ErrNotExist when the key or value is absent.
	ReadString(key, name string) (string, error)

	// WriteString creates key if needed and sets the string value name.
	// An empty name sets the key's default value.
	WriteString(key, name, value string) error

	// WriteDWord creates key if needed and sets the DWORD value name.
	WriteDWord(key, name string, value uint32) error

	// DeleteValue removes a single value, leaving the key in place.
	// Deleting an absent value is not an error.
	DeleteValue(key, name string) error

	// DeleteKey removes key and all its values. The key must have no
	// subkeys; callers delete leaf keys innermost-first. Deleting an
	// absent key is not an error.
	DeleteKey(key string) error

	// HasValue reports whether the value name exists under key.
	HasValue(key, name string) bool
}
