// Package pathenv manages the per-user PATH value: delimiter-bounded
// membership tests and idempotent appends. The value itself lives in the
// registry under HKCU\Environment and is mutated through the regstore
// capability, never rewritten wholesale.
package pathenv

import (
	"strings"

	"github.com/frenzywall/excella-setup/internal/regstore"
)

// envKey is the per-user environment key holding the PATH value.
const envKey = `Environment`

// Separator between PATH entries on Windows.
const Separator = ";"

// normalize prepares a directory for comparison: trailing separators
// dropped, case folded. The entry is otherwise treated opaquely.
func normalize(dir string) string {
	d := strings.TrimRight(dir, `\/`)
	return strings.ToLower(d)
}

// Contains reports whether dir occurs as a whole, delimiter-bounded entry
// of pathValue. A substring match inside a longer entry does not count:
// C:\Tools is not contained in "C:\Toolsmith;C:\Windows".
func Contains(pathValue, dir string) bool {
	want := normalize(dir)
	if want == "" {
		return false
	}
	for _, entry := range strings.Split(pathValue, Separator) {
		if normalize(strings.TrimSpace(entry)) == want {
			return true
		}
	}
	return false
}

// NeedsAppend reports whether dir is missing from pathValue.
func NeedsAppend(pathValue, dir string) bool {
	return !Contains(pathValue, dir)
}

// Append returns pathValue with dir appended, or pathValue unchanged when
// dir is already present. A second append of the same directory is a no-op.
func Append(pathValue, dir string) string {
	if Contains(pathValue, dir) {
		return pathValue
	}
	if pathValue == "" {
		return dir
	}
	return strings.TrimRight(pathValue, Separator) + Separator + dir
}

// UserPath reads and appends the user PATH value through a registry store.
type UserPath struct {
	store regstore.Store
}

// NewUserPath returns a UserPath over the given user-scope store.
func NewUserPath(store regstore.Store) *UserPath {
	return &UserPath{store: store}
}

// Value returns the current user PATH, empty when unset.
func (u *UserPath) Value() string {
	v, err := u.store.ReadString(envKey, "Path")
	if err != nil {
		return ""
	}
	return v
}

// NeedsAppend reports whether dir is missing from the user PATH.
func (u *UserPath) NeedsAppend(dir string) bool {
	return NeedsAppend(u.Value(), dir)
}

// EnsureAppended appends dir to the user PATH if absent. Read, test
// membership, then write; safe under the single-session model.
func (u *UserPath) EnsureAppended(dir string) error {
	cur := u.Value()
	next := Append(cur, dir)
	if next == cur {
		return nil
	}
	return u.store.WriteString(envKey, "Path", next)
}

// Remove drops every entry matching dir from the user PATH, leaving all
// other entries byte-for-byte intact.
func (u *UserPath) Remove(dir string) error {
	cur := u.Value()
	if cur == "" {
		return nil
	}
	want := normalize(dir)
	var kept []string
	changed := false
	for _, entry := range strings.Split(cur, Separator) {
		if normalize(strings.TrimSpace(entry)) == want {
			changed = true
			continue
		}
		kept = append(kept, entry)
	}
	if !changed {
		return nil
	}
	return u.store.WriteString(envKey, "Path", strings.Join(kept, Separator))
}
