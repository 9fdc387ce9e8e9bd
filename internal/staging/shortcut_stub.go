//go:build !windows

package staging

// Desktop shortcuts only exist on Windows; stubs keep CI builds green.

func CreateDesktopShortcut(productName, targetPath, iconPath string) error { return nil }

func RemoveDesktopShortcut(productName string) error { return nil }
