//go:build !windows

package staging

// CheckElevation is a no-op off Windows; the installer only ever ships
// for Windows, this stub exists so the package builds in CI.
func CheckElevation(scope string) error {
	return nil
}
