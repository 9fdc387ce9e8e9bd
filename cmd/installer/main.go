// Package main is the entry point for the Excella setup program. It loads
// the install manifest, wires the lifecycle collaborators together and
// drives one install or uninstall session against operator prompts.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/frenzywall/excella-setup/internal/appconfig"
	"github.com/frenzywall/excella-setup/internal/integration"
	"github.com/frenzywall/excella-setup/internal/manifest"
	"github.com/frenzywall/excella-setup/internal/procwatch"
	"github.com/frenzywall/excella-setup/internal/products"
	"github.com/frenzywall/excella-setup/internal/regstore"
	"github.com/frenzywall/excella-setup/internal/session"
	"github.com/frenzywall/excella-setup/internal/staging"
	"github.com/frenzywall/excella-setup/internal/upgrade"
)

var (
	// version is set at build time via -ldflags.
	version = "dev"

	manifestPath = flag.String("manifest", "", "Path to the install manifest (defaults to setup.yaml beside the binary)")
	stagingDir   = flag.String("staging", "", "Staging directory produced by the packaging step (defaults to the binary's directory)")
	doUninstall  = flag.Bool("uninstall", false, "Remove the installed product instead of installing")
	showVersion  = flag.Bool("version", false, "Show setup version and exit")
)

func main() {
	silent := parseInstallerArgs(os.Args[1:])

	if *showVersion {
		fmt.Printf("excella-setup %s\n", version)
		os.Exit(0)
	}

	m, err := manifest.LoadLayered(embeddedManifest, *manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to load manifest: %v\n", err)
		os.Exit(1)
	}
	if err := m.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: invalid manifest: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(m)
	defer logger.Sync()

	logger.Info("Starting Excella setup",
		zap.String("setup_version", version),
		zap.String("product", m.Product.Name),
		zap.String("product_version", m.Product.Version))

	if err := staging.CheckElevation(m.Install.Scope); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sess, err := assemble(m, silent, logger)
	if err != nil {
		// Unresolved prerequisite: a labeled line and no writes.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	if *doUninstall {
		if _, err := sess.RunUninstall(ctx); err != nil {
			logger.Warn("uninstall finished with errors", zap.Error(err))
			fmt.Printf("\n%s removed (some cleanup steps failed, see log).\n", m.Product.Name)
			return
		}
		fmt.Printf("\n%s has been removed. Your settings and exports were kept.\n", m.Product.Name)
		return
	}

	if err := sess.Run(ctx); err != nil {
		if errors.Is(err, session.ErrAborted) {
			fmt.Println("\nSetup aborted. Nothing was changed.")
			os.Exit(1)
		}
		logger.Error("install failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "ERROR: install failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDone! %s %s is installed.\n", m.Product.Name, m.Product.Version)
}

// parseInstallerArgs strips the installer-style switches an uninstall record
// carries (/VERYSILENT and friends) before handing the rest to the flag
// package. Returns whether the run should skip operator prompts.
func parseInstallerArgs(args []string) bool {
	silent, rest := splitInstallerSwitches(args)
	_ = flag.CommandLine.Parse(rest) // ExitOnError
	return silent
}

func splitInstallerSwitches(args []string) (bool, []string) {
	silent := false
	rest := make([]string, 0, len(args))
	for _, arg := range args {
		switch strings.ToUpper(arg) {
		case "/VERYSILENT", "/SILENT":
			silent = true
		case "/SUPPRESSMSGBOXES", "/NORESTART":
			// Accepted for compatibility; prompts are already suppressed
			// in silent mode and setup never schedules a restart.
		default:
			rest = append(rest, arg)
		}
	}
	return silent, rest
}

// assemble validates the staged payload and wires every collaborator.
func assemble(m *manifest.Manifest, silent bool, logger *zap.Logger) (*session.Session, error) {
	dir := *stagingDir
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("ERROR: cannot locate staging directory: %w", err)
		}
		dir = filepath.Dir(exe)
	}

	payload, err := staging.Validate(staging.Layout{
		Dir:      dir,
		ExeName:  m.Product.ImageName,
		IconName: strings.TrimSuffix(m.Product.ImageName, filepath.Ext(m.Product.ImageName)) + ".ico",
	})
	if err != nil {
		return nil, err
	}

	installDir := staging.ResolveInstallDir(m.Install.Scope, m.Product.Name)
	exePath := payload.ExePath(installDir)
	iconPath := payload.IconPath(installDir)

	userStore := regstore.Open(regstore.UserScope)
	machineStore := regstore.Open(regstore.MachineScope)

	watcher := procwatch.New()
	locator := products.NewLocator(userStore, machineStore)
	coordinator := upgrade.New(locator, m.Product.ID,
		upgrade.ParsePolicy(m.Install.UninstallPolicy), logger)

	forceClose := func(ctx context.Context) {
		watcher.RequestStop(ctx, m.Product.ImageName)
	}
	copier := staging.NewCopier(payload, installDir, forceClose, logger)
	// The staging directory usually holds setup itself; its artifacts are
	// tooling, not payload.
	copier.Exclude(filepath.Base(selfPath()), manifest.DefaultFileName)
	if *manifestPath != "" {
		copier.Exclude(filepath.Base(*manifestPath))
	}

	dataRoot := appconfig.New(appconfig.DefaultBase(m.Product.Name), logger)

	registrar := integration.New(integration.Config{
		ProductName:     m.Product.Name,
		ExePath:         exePath,
		IconPath:        iconPath,
		InstallDir:      installDir,
		LaunchMinimized: m.Product.LaunchMinimized,
	}, userStore, logger)

	cfg := session.Config{
		ImageName: m.Product.ImageName,
		Version:   m.Product.Version,
		Record: products.Record{
			ProductID:        m.Product.ID,
			DisplayName:      m.Product.Name,
			DisplayVersion:   m.Product.Version,
			Publisher:        m.Product.Publisher,
			InstallLocation:  installDir,
			UninstallCommand: fmt.Sprintf(`"%s" --uninstall`, selfPath()),
			DisplayIcon:      exePath,
			EstimatedSizeKB:  payload.SizeKB(),
		},
	}

	var prompter session.Prompter = &consolePrompter{reader: bufio.NewReader(os.Stdin), product: m.Product.Name}
	if silent {
		prompter = silentPrompter{}
	}

	return session.New(cfg, prompter,
		watcher, watcher, coordinator, copier, dataRoot, registrar,
		&desktopShortcuts{product: m.Product.Name, target: exePath, icon: iconPath},
		userStore, logger), nil
}

func selfPath() string {
	exe, err := os.Executable()
	if err != nil {
		return os.Args[0]
	}
	return exe
}

// desktopShortcuts adapts the staging shortcut helpers to the session.
type desktopShortcuts struct {
	product string
	target  string
	icon    string
}

func (d *desktopShortcuts) Create() error {
	return staging.CreateDesktopShortcut(d.product, d.target, d.icon)
}

func (d *desktopShortcuts) Remove() error {
	return staging.RemoveDesktopShortcut(d.product)
}

// silentPrompter accepts every default without asking. Used for /VERYSILENT
// runs, including the silent self-uninstall an upgrade launches.
type silentPrompter struct{}

func (silentPrompter) ConfirmTasks(offered integration.Selection) integration.Selection {
	return offered
}

func (silentPrompter) ConfirmClose(string) bool { return true }

// consolePrompter asks the operator through stdin, wizard style.
type consolePrompter struct {
	reader  *bufio.Reader
	product string
}

var taskLabels = map[integration.Task]string{
	integration.TaskDesktopIcon: "Create a desktop icon",
	integration.TaskAssocXLSX:   "Open .xlsx files with %s",
	integration.TaskAssocXLS:    "Open .xls files with %s",
	integration.TaskAssocCSV:    "Open .csv files with %s",
	integration.TaskPath:        "Add the install directory to PATH",
	integration.TaskStartup:     "Start %s when you sign in",
	integration.TaskContextMenu: "Add \"Compare with %s\" to the right-click menu",
}

func (p *consolePrompter) ConfirmTasks(offered integration.Selection) integration.Selection {
	fmt.Printf("\n%s Setup\n%s\n\nSelect additional tasks:\n", p.product, strings.Repeat("─", 30))

	confirmed := integration.Selection{}
	for _, task := range integration.AllTasks {
		label := taskLabels[task]
		if strings.Contains(label, "%s") {
			label = fmt.Sprintf(label, p.product)
		}
		confirmed[task] = p.yesNo(label, offered.Selected(task))
	}
	return confirmed
}

func (p *consolePrompter) ConfirmClose(imageName string) bool {
	fmt.Printf("\n%s is currently running and must be closed before setup can continue.\n", imageName)
	return p.yesNo("Close it now", true)
}

func (p *consolePrompter) yesNo(prompt string, def bool) bool {
	if def {
		fmt.Printf("  %s [Y/n]: ", prompt)
	} else {
		fmt.Printf("  %s [y/N]: ", prompt)
	}
	answer, _ := p.reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	switch answer {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}

// initLogger creates a zap logger based on the manifest. Console output is
// human-readable; the optional file sink gets structured JSON.
func initLogger(m *manifest.Manifest) *zap.Logger {
	var level zapcore.Level
	switch m.Logging.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		level,
	)

	cores := []zapcore.Core{consoleCore}

	// Default log sink lives in the temp directory: the session may still
	// abort before any destination write, so setup must not create the
	// product's data root just to log.
	logFile := m.Logging.File
	if logFile == "" {
		logFile = filepath.Join(os.TempDir(), "excella-setup.log")
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0750); err == nil {
		file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			fileCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			)
			cores = append(cores, fileCore)
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}
