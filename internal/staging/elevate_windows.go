//go:build windows

package staging

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// CheckElevation verifies the process token before a per-machine install.
// Per-user installs never need elevation.
func CheckElevation(scope string) error {
	if scope != "machine" {
		return nil
	}
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_QUERY, &token)
	if err != nil {
		return fmt.Errorf("cannot check elevation: %w", err)
	}
	defer token.Close()

	if !token.IsElevated() {
		return fmt.Errorf("per-machine installation requires Administrator privileges\n\nRight-click the installer and choose 'Run as administrator'")
	}
	return nil
}
