package products

import (
	"testing"

	"github.com/frenzywall/excella-setup/internal/regstore"
)

const testProductID = "Excella_is1"

func TestFindUninstallCommand_UserBeforeMachine(t *testing.T) {
	user := regstore.NewMemStore()
	machine := regstore.NewMemStore()
	key := productKey(testProductID)
	_ = user.WriteString(key, "UninstallString", `"C:\Users\a\AppData\Local\Excella\unins000.exe"`)
	_ = machine.WriteString(key, "UninstallString", `"C:\Program Files\Excella\unins000.exe"`)

	cmd, ok := NewLocator(user, machine).FindUninstallCommand(testProductID)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if cmd != `"C:\Users\a\AppData\Local\Excella\unins000.exe"` {
		t.Errorf("cmd = %q, want the user-scope value", cmd)
	}
}

func TestFindUninstallCommand_FallsBackToMachine(t *testing.T) {
	user := regstore.NewMemStore()
	machine := regstore.NewMemStore()
	_ = machine.WriteString(productKey(testProductID), "UninstallString", `"C:\Program Files\Excella\unins000.exe"`)

	cmd, ok := NewLocator(user, machine).FindUninstallCommand(testProductID)
	if !ok || cmd != `"C:\Program Files\Excella\unins000.exe"` {
		t.Errorf("cmd, ok = %q, %v; want machine-scope value", cmd, ok)
	}
}

func TestFindUninstallCommand_AbsentIsNotAnError(t *testing.T) {
	loc := NewLocator(regstore.NewMemStore(), regstore.NewMemStore())
	if cmd, ok := loc.FindUninstallCommand(testProductID); ok || cmd != "" {
		t.Errorf("cmd, ok = %q, %v; want empty, false", cmd, ok)
	}
}

func TestWriteRecord_ThenLocate(t *testing.T) {
	user := regstore.NewMemStore()
	rec := Record{
		ProductID:        testProductID,
		DisplayName:      "Excella",
		DisplayVersion:   "1.4.0",
		Publisher:        "frenzywall",
		InstallLocation:  `C:\Users\a\AppData\Local\Excella`,
		UninstallCommand: `"C:\Users\a\AppData\Local\Excella\uninstall.exe"`,
		EstimatedSizeKB:  20480,
	}
	if err := WriteRecord(user, rec); err != nil {
		t.Fatal(err)
	}

	loc := NewLocator(user, nil)
	cmd, ok := loc.FindUninstallCommand(testProductID)
	if !ok || cmd != rec.UninstallCommand {
		t.Errorf("FindUninstallCommand = %q, %v", cmd, ok)
	}
	dir, ok := loc.InstallLocation(testProductID)
	if !ok || dir != rec.InstallLocation {
		t.Errorf("InstallLocation = %q, %v", dir, ok)
	}
	if !user.HasValue(productKey(testProductID), "QuietUninstallString") {
		t.Error("QuietUninstallString not written")
	}
}

func TestWriteRecord_EmptyProductID(t *testing.T) {
	if err := WriteRecord(regstore.NewMemStore(), Record{}); err == nil {
		t.Error("WriteRecord accepted an empty product id")
	}
}

func TestDeleteRecord(t *testing.T) {
	user := regstore.NewMemStore()
	if err := WriteRecord(user, Record{ProductID: testProductID, UninstallCommand: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := DeleteRecord(user, testProductID); err != nil {
		t.Fatal(err)
	}
	if _, ok := NewLocator(user, nil).FindUninstallCommand(testProductID); ok {
		t.Error("record still present after delete")
	}
	// Deleting again is fine.
	if err := DeleteRecord(user, testProductID); err != nil {
		t.Errorf("second delete: %v", err)
	}
}
