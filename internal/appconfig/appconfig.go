// Package appconfig manages Excella's per-user data root: the settings,
// logs, temp, exports and cache directories, the exactly-once creation of
// the default config.ini, and the uninstall-time cleanup that prunes
// transient data while retaining user settings and exports.
package appconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Data root subdirectories. Settings and exports survive uninstall;
// logs, temp and cache do not.
const (
	SettingsDir = "settings"
	LogsDir     = "logs"
	TempDir     = "temp"
	ExportsDir  = "exports"
	CacheDir    = "cache"
)

// ConfigFileName is the key=value document the application reads at start.
const ConfigFileName = "config.ini"

// DataRoot is the per-user data directory tree.
type DataRoot struct {
	base   string
	logger *zap.Logger
}

// New returns a DataRoot rooted at base.
func New(base string, logger *zap.Logger) *DataRoot {
	return &DataRoot{base: base, logger: logger}
}

// Base returns the root directory.
func (d *DataRoot) Base() string { return d.base }

// Dir returns the path of a named subdirectory.
func (d *DataRoot) Dir(name string) string { return filepath.Join(d.base, name) }

// ConfigPath returns the path of the application's config.ini.
func (d *DataRoot) ConfigPath() string {
	return filepath.Join(d.base, SettingsDir, ConfigFileName)
}

// EnsureLayout creates the full directory tree. Existing directories are
// left untouched.
func (d *DataRoot) EnsureLayout() error {
	for _, sub := range []string{SettingsDir, LogsDir, TempDir, ExportsDir, CacheDir} {
		if err := os.MkdirAll(d.Dir(sub), 0750); err != nil {
			return fmt.Errorf("creating %s: %w", sub, err)
		}
	}
	return nil
}

// EnsureDefaultConfig writes the first-run config.ini. The existence check
// gates the write: if the file is already there, nothing happens — an
// in-place upgrade keeps the user's settings.
func (d *DataRoot) EnsureDefaultConfig(version string) error {
	path := d.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		d.logger.Info("config exists, keeping user settings", zap.String("path", path))
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	// Plain key=value lines, the format the application's reader expects.
	doc := fmt.Sprintf("FirstRun=true\nVersion=%s\nAutoUpdate=true\n", version)
	if err := os.WriteFile(path, []byte(doc), 0640); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	d.logger.Info("default config created", zap.String("path", path))
	return nil
}

// PruneCache deletes everything under cache/, recreating the empty
// directory. Called when an upgrade leaves stale cached state behind.
func (d *DataRoot) PruneCache() error {
	cache := d.Dir(CacheDir)
	if err := os.RemoveAll(cache); err != nil {
		return fmt.Errorf("pruning cache: %w", err)
	}
	return os.MkdirAll(cache, 0750)
}

// CleanupOnUninstall deletes logs, temp and cache. Settings and exports
// stay on disk: user data outlives the product. The base directory itself
// is kept since it still holds the retained subtrees.
func (d *DataRoot) CleanupOnUninstall() error {
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}
	for _, sub := range []string{LogsDir, TempDir, CacheDir} {
		dir := d.Dir(sub)
		if err := removeAll(dir); err != nil {
			// Best effort: report the first failure but keep going
			// through the remaining transient directories.
			d.logger.Warn("failed to remove directory",
				zap.String("dir", dir), zap.Error(err))
			keep(fmt.Errorf("removing %s: %w", sub, err))
			continue
		}
		d.logger.Info("removed", zap.String("dir", dir))
	}
	return firstErr
}

// removeAll is swapped out in tests to simulate deletion failures.
var removeAll = os.RemoveAll

// DefaultBase returns the conventional per-user data root for the product.
func DefaultBase(productName string) string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, productName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+productName)
}
