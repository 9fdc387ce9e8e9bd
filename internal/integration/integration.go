// Package integration registers and unregisters Excella's system
// integration points: file associations, the Explorer context-menu verb,
// the login startup entry, and the PATH entry. Every write has a
// deterministic, matching removal so an uninstall leaves no orphaned
// state. The shared OpenWithProgids list is the one exception to
// whole-key deletion: only this product's value is removed, never the
// container other handlers also live in.
package integration

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/frenzywall/excella-setup/internal/pathenv"
	"github.com/frenzywall/excella-setup/internal/regstore"
)

const (
	classesRoot = `Software\Classes`
	runKey      = `Software\Microsoft\Windows\CurrentVersion\Run`
)

// extensions the product can take over, in registration order.
var extensions = []string{".xlsx", ".xls", ".csv"}

// Config identifies the installed product to the registrar.
type Config struct {
	ProductName     string // registry value name for Run and verb key name
	ExePath         string // installed executable, used in open commands
	IconPath        string // icon resource; empty disables icon entries
	InstallDir      string // directory the PATH task appends
	LaunchMinimized bool   // startup entry passes the minimized flag
}

// Registrar applies and reverses integration writes through a user-scope
// registry store.
type Registrar struct {
	cfg    Config
	store  regstore.Store
	path   *pathenv.UserPath
	logger *zap.Logger
}

// New returns a Registrar over the given user-scope store.
func New(cfg Config, store regstore.Store, logger *zap.Logger) *Registrar {
	return &Registrar{
		cfg:    cfg,
		store:  store,
		path:   pathenv.NewUserPath(store),
		logger: logger,
	}
}

// progID returns the association identifier for an extension:
// Excella.xlsx, Excella.xls, Excella.csv.
func (r *Registrar) progID(ext string) string {
	return r.cfg.ProductName + "." + strings.TrimPrefix(ext, ".")
}

// Register applies every branch gated by a selected task. Association
// registration is all-or-nothing per extension: the first failed write
// aborts that extension's registration with an error before the session
// reports success.
func (r *Registrar) Register(sel Selection) error {
	for _, ext := range extensions {
		task, ok := extensionTask(ext)
		if !ok || !sel.Selected(task) {
			continue
		}
		if err := r.registerExtension(ext); err != nil {
			return fmt.Errorf("associating %s: %w", ext, err)
		}
		r.logger.Info("association registered", zap.String("ext", ext))
	}

	if sel.Selected(TaskContextMenu) {
		if err := r.registerContextMenu(); err != nil {
			return fmt.Errorf("registering context menu: %w", err)
		}
		r.logger.Info("context menu registered")
	}

	if sel.Selected(TaskStartup) {
		if err := r.registerStartup(); err != nil {
			return fmt.Errorf("registering startup entry: %w", err)
		}
		r.logger.Info("startup entry registered")
	}

	if sel.Selected(TaskPath) {
		if r.path.NeedsAppend(r.cfg.InstallDir) {
			if err := r.path.EnsureAppended(r.cfg.InstallDir); err != nil {
				return fmt.Errorf("appending PATH: %w", err)
			}
			r.logger.Info("PATH entry added", zap.String("dir", r.cfg.InstallDir))
		} else {
			r.logger.Info("PATH entry already present", zap.String("dir", r.cfg.InstallDir))
		}
	}

	return nil
}

// Unregister reverses every write Register can make, selected or not:
// uninstall removes whatever subset exists. Errors are collected, not
// short-circuited, so one stubborn key cannot orphan the rest.
func (r *Registrar) Unregister() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, ext := range extensions {
		keep(r.unregisterExtension(ext))
	}
	keep(r.unregisterContextMenu())
	keep(r.store.DeleteValue(runKey, r.cfg.ProductName))
	keep(r.path.Remove(r.cfg.InstallDir))

	return firstErr
}

// registerExtension writes the per-extension record set: the association
// identifier under the extension key, the ProgID's description, default
// icon and open command, and this product's entry in the extension's
// shared candidate-handlers list.
func (r *Registrar) registerExtension(ext string) error {
	prog := r.progID(ext)
	extKey := classesRoot + `\` + ext
	progKey := classesRoot + `\` + prog

	if err := r.store.WriteString(extKey, "", prog); err != nil {
		return err
	}
	if err := r.store.WriteString(extKey+`\OpenWithProgids`, prog, ""); err != nil {
		return err
	}
	if err := r.store.WriteString(progKey, "", r.cfg.ProductName+" Workbook"); err != nil {
		return err
	}
	if r.cfg.IconPath != "" {
		if err := r.store.WriteString(progKey+`\DefaultIcon`, "", r.cfg.IconPath+",0"); err != nil {
			return err
		}
	}
	command := fmt.Sprintf(`"%s" "%%1"`, r.cfg.ExePath)
	return r.store.WriteString(progKey+`\shell\open\command`, "", command)
}

// unregisterExtension removes the extension's record set. The extension
// key's default value is cleared only while it still names our ProgID;
// the OpenWithProgids container survives, losing only our value.
func (r *Registrar) unregisterExtension(ext string) error {
	prog := r.progID(ext)
	extKey := classesRoot + `\` + ext
	progKey := classesRoot + `\` + prog

	if cur, err := r.store.ReadString(extKey, ""); err == nil && cur == prog {
		if err := r.store.DeleteValue(extKey, ""); err != nil {
			return err
		}
	}
	if err := r.store.DeleteValue(extKey+`\OpenWithProgids`, prog); err != nil {
		return err
	}
	// ProgID subtree is ours alone; delete leaf keys innermost-first.
	for _, k := range []string{
		progKey + `\shell\open\command`,
		progKey + `\shell\open`,
		progKey + `\shell`,
		progKey + `\DefaultIcon`,
		progKey,
	} {
		if err := r.store.DeleteKey(k); err != nil {
			return err
		}
	}
	return nil
}

// registerContextMenu adds the "Compare with <product>" verb for any file.
func (r *Registrar) registerContextMenu() error {
	verbKey := classesRoot + `\*\shell\` + r.cfg.ProductName
	if err := r.store.WriteString(verbKey, "", "Compare with "+r.cfg.ProductName); err != nil {
		return err
	}
	if r.cfg.IconPath != "" {
		if err := r.store.WriteString(verbKey, "Icon", r.cfg.IconPath); err != nil {
			return err
		}
	}
	command := fmt.Sprintf(`"%s" "%%1"`, r.cfg.ExePath)
	return r.store.WriteString(verbKey+`\command`, "", command)
}

func (r *Registrar) unregisterContextMenu() error {
	verbKey := classesRoot + `\*\shell\` + r.cfg.ProductName
	if err := r.store.DeleteKey(verbKey + `\command`); err != nil {
		return err
	}
	return r.store.DeleteKey(verbKey)
}

// registerStartup writes the login Run value. The exe path is quoted to
// survive spaces.
func (r *Registrar) registerStartup() error {
	value := fmt.Sprintf(`"%s"`, r.cfg.ExePath)
	if r.cfg.LaunchMinimized {
		value += " --minimized"
	}
	return r.store.WriteString(runKey, r.cfg.ProductName, value)
}

// DeleteStartup removes only the startup entry. The uninstall session
// calls this in its first cleanup phase, before the full Unregister pass.
func (r *Registrar) DeleteStartup() error {
	return r.store.DeleteValue(runKey, r.cfg.ProductName)
}
