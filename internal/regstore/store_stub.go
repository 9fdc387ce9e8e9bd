//go:build !windows

package regstore

// Open returns an in-memory store off Windows. The installer only ever
// ships for Windows; this stub keeps the package building in CI.
func Open(scope Scope) Store {
	return NewMemStore()
}
