// Package session sequences the install and uninstall lifecycles: task
// selection, running-instance handling, file copy, superseded-version
// removal, configuration bootstrap and integration registration. The
// session is strictly sequential; every collaborator call blocks.
package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/frenzywall/excella-setup/internal/integration"
	"github.com/frenzywall/excella-setup/internal/procwatch"
	"github.com/frenzywall/excella-setup/internal/products"
	"github.com/frenzywall/excella-setup/internal/regstore"
	"github.com/frenzywall/excella-setup/internal/upgrade"
)

// State of the install lifecycle.
type State int

const (
	NotStarted State = iota
	TasksSelected
	PreInstallCheck
	FilesCopied
	PostInstallConfigured
	Done
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case TasksSelected:
		return "tasks selected"
	case PreInstallCheck:
		return "pre-install check"
	case FilesCopied:
		return "files copied"
	case PostInstallConfigured:
		return "post-install configured"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// UninstallState of the removal lifecycle.
type UninstallState int

const (
	UninstallRequested UninstallState = iota
	Cleaned
	Removed
)

// ErrAborted is returned when the operator declines to close a running
// instance; the session stops before any write.
var ErrAborted = errors.New("session: aborted by operator")

// Prompter is the operator-facing decision surface.
type Prompter interface {
	// ConfirmTasks presents the offered task set and returns the
	// confirmed one.
	ConfirmTasks(offered integration.Selection) integration.Selection
	// ConfirmClose asks whether a detected running instance may be
	// closed. False aborts the session.
	ConfirmClose(imageName string) bool
}

// Inspector answers whether the target is running.
type Inspector interface {
	IsRunning(ctx context.Context, imageName string) bool
}

// Terminator requests a forceful stop of the target.
type Terminator interface {
	RequestStop(ctx context.Context, imageName string) procwatch.StopResult
}

// Upgrader removes a superseded version.
type Upgrader interface {
	HasPriorVersion() bool
	RunIfUpgrade(ctx context.Context) upgrade.Outcome
}

// Copier places the staged payload into the install directory.
type Copier interface {
	Copy(ctx context.Context) error
}

// DataRoot manages the per-user data directories and config bootstrap.
type DataRoot interface {
	EnsureLayout() error
	EnsureDefaultConfig(version string) error
	PruneCache() error
	CleanupOnUninstall() error
}

// Registrar applies and reverses system integration.
type Registrar interface {
	Register(sel integration.Selection) error
	Unregister() error
	DeleteStartup() error
}

// Shortcuts creates and removes the desktop shortcut.
type Shortcuts interface {
	Create() error
	Remove() error
}

// Config carries the product facts the session needs.
type Config struct {
	ImageName string // executable name to detect and stop
	Version   string // version recorded in the first-run config
	Record    products.Record
}

// Session drives one install or uninstall, in order, to completion.
type Session struct {
	cfg        Config
	prompter   Prompter
	inspector  Inspector
	terminator Terminator
	upgrader   Upgrader
	copier     Copier
	dataRoot   DataRoot
	registrar  Registrar
	shortcuts  Shortcuts
	userStore  regstore.Store
	logger     *zap.Logger

	state    State
	selected integration.Selection
}

// New assembles a session from its collaborators.
func New(cfg Config, prompter Prompter, inspector Inspector, terminator Terminator,
	upgrader Upgrader, copier Copier, dataRoot DataRoot, registrar Registrar,
	shortcuts Shortcuts, userStore regstore.Store, logger *zap.Logger) *Session {
	return &Session{
		cfg:        cfg,
		prompter:   prompter,
		inspector:  inspector,
		terminator: terminator,
		upgrader:   upgrader,
		copier:     copier,
		dataRoot:   dataRoot,
		registrar:  registrar,
		shortcuts:  shortcuts,
		userStore:  userStore,
		logger:     logger,
		state:      NotStarted,
	}
}

// State returns the lifecycle state the session reached.
func (s *Session) State() State { return s.state }

// Selected returns the operator-confirmed task set.
func (s *Session) Selected() integration.Selection { return s.selected }

// Run executes the install lifecycle. On ErrAborted no destination write
// has happened.
func (s *Session) Run(ctx context.Context) error {
	// NotStarted → TasksSelected. The desktop-icon default is nudged
	// off when this install supersedes a recorded version.
	upgradeInProgress := s.upgrader.HasPriorVersion()
	offered := integration.DefaultSelection(upgradeInProgress)
	s.selected = s.prompter.ConfirmTasks(offered)
	s.state = TasksSelected
	s.logger.Info("tasks confirmed",
		zap.Bool("upgrade_in_progress", upgradeInProgress))

	// TasksSelected → PreInstallCheck. Declining the close prompt
	// aborts before any write.
	s.state = PreInstallCheck
	if s.inspector.IsRunning(ctx, s.cfg.ImageName) {
		if !s.prompter.ConfirmClose(s.cfg.ImageName) {
			s.logger.Info("operator declined closing running instance, aborting")
			return ErrAborted
		}
		result := s.terminator.RequestStop(ctx, s.cfg.ImageName)
		// Denied is not fatal: the copy step carries its own
		// force-close fallback.
		s.logger.Info("requested instance stop", zap.Stringer("result", result))
	}

	// PreInstallCheck → FilesCopied.
	if err := s.copier.Copy(ctx); err != nil {
		return fmt.Errorf("copying files: %w", err)
	}
	s.state = FilesCopied
	s.logger.Info("files copied")

	// FilesCopied → PostInstallConfigured. Upgrade cleanup runs after
	// the file copy, matching the long-observed installer ordering;
	// a failed removal of the old version never blocks the new one.
	outcome := s.upgrader.RunIfUpgrade(ctx)
	s.logger.Info("upgrade check", zap.Stringer("outcome", outcome))
	if outcome == upgrade.Upgraded {
		if err := s.dataRoot.PruneCache(); err != nil {
			s.logger.Warn("stale cache prune failed", zap.Error(err))
		}
	}
	if err := s.dataRoot.EnsureLayout(); err != nil {
		return fmt.Errorf("preparing data root: %w", err)
	}
	if err := s.dataRoot.EnsureDefaultConfig(s.cfg.Version); err != nil {
		return fmt.Errorf("bootstrapping config: %w", err)
	}
	if err := s.registrar.Register(s.selected); err != nil {
		return fmt.Errorf("registering integration: %w", err)
	}
	if s.selected.Selected(integration.TaskDesktopIcon) {
		if err := s.shortcuts.Create(); err != nil {
			// Missing optional resource; the install continues.
			s.logger.Warn("desktop shortcut not created", zap.Error(err))
		}
	}
	if err := products.WriteRecord(s.userStore, s.cfg.Record); err != nil {
		return fmt.Errorf("recording installation: %w", err)
	}
	s.state = PostInstallConfigured
	s.logger.Info("post-install configuration complete")

	s.state = Done
	s.logger.Info("install finished", zap.String("product", s.cfg.Record.DisplayName))
	return nil
}

// RunUninstall executes the removal lifecycle. Cleanup is best-effort:
// each phase runs even when an earlier one reported a failure, and user
// settings and exports are never touched.
func (s *Session) RunUninstall(ctx context.Context) (UninstallState, error) {
	state := UninstallRequested
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	// UninstallRequested → Cleaned: stop a running instance if any,
	// drop the startup entry so a half-removed product cannot relaunch.
	if s.inspector.IsRunning(ctx, s.cfg.ImageName) {
		result := s.terminator.RequestStop(ctx, s.cfg.ImageName)
		s.logger.Info("requested instance stop", zap.Stringer("result", result))
	}
	keep(s.registrar.DeleteStartup())
	state = Cleaned

	// Cleaned → Removed: transient data, integration records, the
	// desktop shortcut and the installed-products record all go;
	// settings and exports stay.
	keep(s.dataRoot.CleanupOnUninstall())
	keep(s.registrar.Unregister())
	keep(s.shortcuts.Remove())
	keep(products.DeleteRecord(s.userStore, s.cfg.Record.ProductID))
	state = Removed

	s.logger.Info("uninstall finished", zap.String("product", s.cfg.Record.DisplayName))
	return state, firstErr
}
