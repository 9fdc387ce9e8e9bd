// Package staging consumes the packaging step's output: a staging
// directory holding the built executable (single file or a payload
// directory) plus an optional icon. It validates prerequisites, resolves
// install destinations and copies the payload into place.
package staging

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Layout is the fixed relative layout the packaging step produces.
type Layout struct {
	Dir      string // staging directory root
	ExeName  string // main executable, required
	IconName string // icon file, optional
}

// Payload is a validated staging layout.
type Payload struct {
	Layout  Layout
	HasIcon bool
}

// Validate checks the build prerequisites. A missing executable is fatal;
// a missing icon silently disables the icon-dependent branches.
func Validate(l Layout) (*Payload, error) {
	exe := filepath.Join(l.Dir, l.ExeName)
	if _, err := os.Stat(exe); err != nil {
		return nil, fmt.Errorf("ERROR: staged executable %s not found: %w", l.ExeName, err)
	}

	p := &Payload{Layout: l}
	if l.IconName != "" {
		if _, err := os.Stat(filepath.Join(l.Dir, l.IconName)); err == nil {
			p.HasIcon = true
		}
	}
	return p, nil
}

// ExePath returns the installed executable path under installDir.
func (p *Payload) ExePath(installDir string) string {
	return filepath.Join(installDir, p.Layout.ExeName)
}

// IconPath returns the installed icon path, empty when the build shipped
// without one.
func (p *Payload) IconPath(installDir string) string {
	if !p.HasIcon {
		return ""
	}
	return filepath.Join(installDir, p.Layout.IconName)
}

// SizeKB returns the payload's total size in KB, for the installed-products
// record.
func (p *Payload) SizeKB() uint32 {
	var total int64
	_ = filepath.WalkDir(p.Layout.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return uint32(total / 1024)
}

// Stopper is the force-close fallback invoked when a destination file is
// locked by a running instance. Redundant with the pre-install prompt's
// explicit termination request; the two stay independent steps.
type Stopper func(ctx context.Context)

// Copier copies the validated payload into the install directory.
type Copier struct {
	payload    *Payload
	installDir string
	forceClose Stopper
	exclude    map[string]bool
	logger     *zap.Logger
}

// NewCopier returns a Copier. forceClose may be nil.
func NewCopier(payload *Payload, installDir string, forceClose Stopper, logger *zap.Logger) *Copier {
	return &Copier{
		payload:    payload,
		installDir: installDir,
		forceClose: forceClose,
		exclude:    map[string]bool{},
		logger:     logger,
	}
}

// Exclude marks top-level staging entries that are setup tooling, not
// payload. Matching is case-insensitive; the setup binary and its manifest
// go here so they never land in the install directory.
func (c *Copier) Exclude(names ...string) {
	for _, name := range names {
		if name != "" {
			c.exclude[strings.ToLower(name)] = true
		}
	}
}

// Copy walks the staging directory and copies every file into the install
// directory, preserving relative paths. A locked destination triggers the
// force-close fallback once, then one retry.
func (c *Copier) Copy(ctx context.Context) error {
	root := c.payload.Layout.Dir
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel != "." && c.excluded(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		dst := filepath.Join(c.installDir, rel)
		if d.IsDir() {
			return os.MkdirAll(dst, 0755)
		}

		if err := copyFile(path, dst); err != nil {
			if c.forceClose == nil {
				return fmt.Errorf("copying %s: %w", rel, err)
			}
			c.logger.Warn("destination locked, forcing instance closed",
				zap.String("file", rel), zap.Error(err))
			c.forceClose(ctx)
			if err := copyFile(path, dst); err != nil {
				return fmt.Errorf("copying %s after force-close: %w", rel, err)
			}
		}
		c.logger.Info("copied", zap.String("file", rel))
		return nil
	})
}

func (c *Copier) excluded(rel string) bool {
	first := rel
	if i := strings.IndexByte(rel, filepath.Separator); i >= 0 {
		first = rel[:i]
	}
	return c.exclude[strings.ToLower(first)]
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// ResolveInstallDir returns the destination directory for the product.
func ResolveInstallDir(scope, productName string) string {
	if scope == "machine" {
		if pf := os.Getenv("ProgramFiles"); pf != "" {
			return filepath.Join(pf, productName)
		}
		return filepath.Join(`C:\Program Files`, productName)
	}
	if local := os.Getenv("LOCALAPPDATA"); local != "" {
		return filepath.Join(local, productName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, productName)
}
