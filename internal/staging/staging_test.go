package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func stageFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestValidate_MissingExeIsFatal(t *testing.T) {
	dir := stageFiles(t, map[string]string{"Excella.ico": "icon"})
	_, err := Validate(Layout{Dir: dir, ExeName: "Excella.exe", IconName: "Excella.ico"})
	if err == nil {
		t.Fatal("Validate accepted a payload without the executable")
	}
}

func TestValidate_MissingIconDisablesIcon(t *testing.T) {
	dir := stageFiles(t, map[string]string{"Excella.exe": "bin"})
	p, err := Validate(Layout{Dir: dir, ExeName: "Excella.exe", IconName: "Excella.ico"})
	if err != nil {
		t.Fatal(err)
	}
	if p.HasIcon {
		t.Error("HasIcon = true, icon was not staged")
	}
	if p.IconPath(`C:\x`) != "" {
		t.Error("IconPath should be empty without an icon")
	}
}

func TestValidate_FullPayload(t *testing.T) {
	dir := stageFiles(t, map[string]string{"Excella.exe": "bin", "Excella.ico": "icon"})
	p, err := Validate(Layout{Dir: dir, ExeName: "Excella.exe", IconName: "Excella.ico"})
	if err != nil {
		t.Fatal(err)
	}
	if !p.HasIcon {
		t.Error("HasIcon = false with the icon staged")
	}
	install := filepath.Join("install", "Excella")
	if got := p.ExePath(install); got != filepath.Join(install, "Excella.exe") {
		t.Errorf("ExePath = %q", got)
	}
}

func TestCopier_CopiesTree(t *testing.T) {
	dir := stageFiles(t, map[string]string{
		"Excella.exe":         "bin",
		"Excella.ico":         "icon",
		"resources/help.html": "help",
	})
	p, err := Validate(Layout{Dir: dir, ExeName: "Excella.exe", IconName: "Excella.ico"})
	if err != nil {
		t.Fatal(err)
	}

	installDir := t.TempDir()
	c := NewCopier(p, installDir, nil, zap.NewNop())
	if err := c.Copy(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, rel := range []string{"Excella.exe", "Excella.ico", filepath.Join("resources", "help.html")} {
		if _, err := os.Stat(filepath.Join(installDir, rel)); err != nil {
			t.Errorf("%s not copied: %v", rel, err)
		}
	}
}

func TestCopier_ExcludesSetupTooling(t *testing.T) {
	// When the payload is staged beside the installer, the installer's own
	// artifacts must not end up in the install directory.
	dir := stageFiles(t, map[string]string{
		"Excella.exe":         "bin",
		"excella-setup.exe":   "installer",
		"setup.yaml":          "manifest",
		"tools/packager.exe":  "tooling",
		"resources/help.html": "help",
	})
	p, err := Validate(Layout{Dir: dir, ExeName: "Excella.exe"})
	if err != nil {
		t.Fatal(err)
	}

	installDir := t.TempDir()
	c := NewCopier(p, installDir, nil, zap.NewNop())
	c.Exclude("EXCELLA-SETUP.EXE", "setup.yaml", "tools")

	if err := c.Copy(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, rel := range []string{"Excella.exe", filepath.Join("resources", "help.html")} {
		if _, err := os.Stat(filepath.Join(installDir, rel)); err != nil {
			t.Errorf("%s not copied: %v", rel, err)
		}
	}
	for _, rel := range []string{"excella-setup.exe", "setup.yaml", "tools"} {
		if _, err := os.Stat(filepath.Join(installDir, rel)); !os.IsNotExist(err) {
			t.Errorf("%s was installed as payload", rel)
		}
	}
}

func TestCopier_ForceCloseFallback(t *testing.T) {
	dir := stageFiles(t, map[string]string{"Excella.exe": "bin"})
	p, err := Validate(Layout{Dir: dir, ExeName: "Excella.exe"})
	if err != nil {
		t.Fatal(err)
	}

	// Destination path is initially a directory, so the first copy fails
	// the way a locked file would; the fallback clears it.
	installDir := t.TempDir()
	locked := filepath.Join(installDir, "Excella.exe")
	if err := os.MkdirAll(locked, 0755); err != nil {
		t.Fatal(err)
	}

	closed := false
	c := NewCopier(p, installDir, func(ctx context.Context) {
		closed = true
		_ = os.Remove(locked)
	}, zap.NewNop())

	if err := c.Copy(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !closed {
		t.Error("force-close fallback was not invoked")
	}
	if data, _ := os.ReadFile(locked); string(data) != "bin" {
		t.Errorf("destination content = %q after retry", data)
	}
}

func TestResolveInstallDir(t *testing.T) {
	t.Setenv("LOCALAPPDATA", `C:\Users\a\AppData\Local`)
	t.Setenv("ProgramFiles", `C:\Program Files`)

	if got := ResolveInstallDir("user", "Excella"); got != filepath.Join(`C:\Users\a\AppData\Local`, "Excella") {
		t.Errorf("user dir = %q", got)
	}
	if got := ResolveInstallDir("machine", "Excella"); got != filepath.Join(`C:\Program Files`, "Excella") {
		t.Errorf("machine dir = %q", got)
	}
}
