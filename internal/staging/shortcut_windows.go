//go:build windows

package staging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// CreateDesktopShortcut writes <productName>.lnk on the user's desktop via
// the WScript.Shell automation object.
func CreateDesktopShortcut(productName, targetPath, iconPath string) error {
	desktop := filepath.Join(os.Getenv("USERPROFILE"), "Desktop")
	return createShortcut(targetPath, filepath.Join(desktop, productName+".lnk"), iconPath)
}

// RemoveDesktopShortcut deletes the desktop shortcut. Absence is fine.
func RemoveDesktopShortcut(productName string) error {
	desktop := filepath.Join(os.Getenv("USERPROFILE"), "Desktop")
	err := os.Remove(filepath.Join(desktop, productName+".lnk"))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func createShortcut(targetPath, shortcutPath, iconPath string) error {
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		return fmt.Errorf("initializing COM: %w", err)
	}
	defer ole.CoUninitialize()

	shellObject, err := oleutil.CreateObject("WScript.Shell")
	if err != nil {
		return fmt.Errorf("creating WScript.Shell: %w", err)
	}
	defer shellObject.Release()

	wshell, err := shellObject.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return err
	}
	defer wshell.Release()

	cs, err := oleutil.CallMethod(wshell, "CreateShortcut", shortcutPath)
	if err != nil {
		return err
	}
	shortcut := cs.ToIDispatch()
	defer shortcut.Release()

	if _, err := oleutil.PutProperty(shortcut, "TargetPath", targetPath); err != nil {
		return err
	}
	if _, err := oleutil.PutProperty(shortcut, "WorkingDirectory", filepath.Dir(targetPath)); err != nil {
		return err
	}
	if iconPath != "" {
		if _, err := oleutil.PutProperty(shortcut, "IconLocation", iconPath); err != nil {
			return err
		}
	}
	if _, err := oleutil.CallMethod(shortcut, "Save"); err != nil {
		return fmt.Errorf("saving shortcut: %w", err)
	}
	return nil
}
