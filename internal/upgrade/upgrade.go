// Package upgrade silently removes a superseded product version before the
// new files go in. It resolves the previous version's recorded uninstall
// command, launches it with all dialogs suppressed, and blocks until it
// exits. A missing record means a fresh install, not a failure.
package upgrade

import (
	"context"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/frenzywall/excella-setup/internal/products"
)

// Outcome of one upgrade attempt.
type Outcome int

const (
	NoPriorVersion  Outcome = iota // nothing recorded, fresh install
	Upgraded                       // previous uninstaller ran
	UninstallFailed                // could not launch (or, under strict policy, it exited non-zero)
)

func (o Outcome) String() string {
	switch o {
	case NoPriorVersion:
		return "no prior version"
	case Upgraded:
		return "upgraded"
	case UninstallFailed:
		return "uninstall failed"
	default:
		return "unknown"
	}
}

// Policy decides how the previous uninstaller's own exit code is treated.
type Policy int

const (
	// PolicyLenient reports Upgraded whenever the uninstaller launched,
	// regardless of its exit code. Matches the observed installer: the
	// old version's cleanup is best-effort and never blocks the new one.
	PolicyLenient Policy = iota
	// PolicyStrict downgrades a non-zero uninstaller exit to UninstallFailed.
	PolicyStrict
)

// ParsePolicy maps a manifest string to a Policy, defaulting to lenient.
func ParsePolicy(s string) Policy {
	if strings.EqualFold(s, "strict") {
		return PolicyStrict
	}
	return PolicyLenient
}

// silentArgs suppress every dialog of the previous version's uninstaller.
var silentArgs = []string{"/VERYSILENT", "/SUPPRESSMSGBOXES", "/NORESTART"}

// Runner launches the uninstall command and blocks until it exits.
// exitErr is non-nil when the child ran but exited non-zero; launchErr is
// non-nil when the child never started.
type Runner func(ctx context.Context, command string, args []string) (launchErr, exitErr error)

func execRunner(ctx context.Context, command string, args []string) (error, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	err := cmd.Run()
	if err == nil {
		return nil, nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return nil, err
	}
	return err, nil
}

// Coordinator composes the locator with a process runner.
type Coordinator struct {
	locator   *products.Locator
	productID string
	policy    Policy
	run       Runner
	logger    *zap.Logger
}

// New returns a Coordinator for the given product.
func New(locator *products.Locator, productID string, policy Policy, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		locator:   locator,
		productID: productID,
		policy:    policy,
		run:       execRunner,
		logger:    logger,
	}
}

// NewWithRunner substitutes the process runner. Test seam.
func NewWithRunner(locator *products.Locator, productID string, policy Policy, run Runner, logger *zap.Logger) *Coordinator {
	c := New(locator, productID, policy, logger)
	c.run = run
	return c
}

// splitCommand splits a recorded uninstall command line into the
// executable and its recorded arguments. The executable is typically
// wrapped in double quotes to survive spaces; anything after the closing
// quote is passed through ahead of the silent flags.
func splitCommand(raw string) (string, []string) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, `"`) {
		if end := strings.Index(raw[1:], `"`); end >= 0 {
			exe := raw[1 : end+1]
			rest := strings.TrimSpace(raw[end+2:])
			if rest == "" {
				return exe, nil
			}
			return exe, strings.Fields(rest)
		}
	}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return raw, nil
	}
	return fields[0], fields[1:]
}

// RunIfUpgrade removes the previous version if one is recorded. It blocks
// until the launched uninstaller exits; no timeout bounds the wait.
// A launch failure is non-fatal to the caller: the install proceeds and
// the stale record is simply overwritten.
func (c *Coordinator) RunIfUpgrade(ctx context.Context) Outcome {
	raw, ok := c.locator.FindUninstallCommand(c.productID)
	if !ok {
		c.logger.Info("no prior version recorded", zap.String("product", c.productID))
		return NoPriorVersion
	}

	command, recorded := splitCommand(raw)
	args := append(append([]string{}, recorded...), silentArgs...)
	c.logger.Info("removing previous version",
		zap.String("product", c.productID),
		zap.String("command", command),
		zap.Strings("args", args))

	launchErr, exitErr := c.run(ctx, command, args)
	if launchErr != nil {
		c.logger.Warn("previous uninstaller failed to launch, continuing",
			zap.Error(launchErr))
		return UninstallFailed
	}
	if exitErr != nil {
		c.logger.Warn("previous uninstaller exited non-zero", zap.Error(exitErr))
		if c.policy == PolicyStrict {
			return UninstallFailed
		}
	}
	return Upgraded
}

// HasPriorVersion reports whether an uninstall command is recorded, without
// running anything. The session uses it to nudge task defaults.
func (c *Coordinator) HasPriorVersion() bool {
	_, ok := c.locator.FindUninstallCommand(c.productID)
	return ok
}
