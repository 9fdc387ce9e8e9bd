// Package products reads and writes the OS installed-products record:
// the per-product Uninstall key that Apps & Features lists and that a
// later version's installer consults to remove its predecessor.
package products

import (
	"fmt"

	"github.com/frenzywall/excella-setup/internal/regstore"
)

const uninstallRoot = `Software\Microsoft\Windows\CurrentVersion\Uninstall`

// Record is one installed product's uninstall registration.
type Record struct {
	ProductID        string
	DisplayName      string
	DisplayVersion   string
	Publisher        string
	InstallLocation  string
	UninstallCommand string
	DisplayIcon      string
	EstimatedSizeKB  uint32
}

func productKey(productID string) string {
	return uninstallRoot + `\` + productID
}

// Locator resolves a product's recorded uninstall command.
// User scope is consulted before machine scope; the first hit wins.
type Locator struct {
	user    regstore.Store
	machine regstore.Store
}

// NewLocator returns a Locator over the two registry scopes.
func NewLocator(user, machine regstore.Store) *Locator {
	return &Locator{user: user, machine: machine}
}

// FindUninstallCommand returns the product's recorded uninstall command.
// Absence in both scopes is not an error; it reports ok=false, meaning
// no prior version is installed.
func (l *Locator) FindUninstallCommand(productID string) (cmd string, ok bool) {
	key := productKey(productID)
	for _, store := range []regstore.Store{l.user, l.machine} {
		if store == nil {
			continue
		}
		if v, err := store.ReadString(key, "UninstallString"); err == nil && v != "" {
			return v, true
		}
	}
	return "", false
}

// InstallLocation returns the product's recorded install directory,
// with the same user-before-machine precedence.
func (l *Locator) InstallLocation(productID string) (string, bool) {
	key := productKey(productID)
	for _, store := range []regstore.Store{l.user, l.machine} {
		if store == nil {
			continue
		}
		if v, err := store.ReadString(key, "InstallLocation"); err == nil && v != "" {
			return v, true
		}
	}
	return "", false
}

// WriteRecord registers the product in the user-scope Uninstall key so it
// appears in Apps & Features and so the next version's locator finds it.
func WriteRecord(store regstore.Store, rec Record) error {
	if rec.ProductID == "" {
		return fmt.Errorf("empty product id")
	}
	key := productKey(rec.ProductID)

	strs := map[string]string{
		"DisplayName":     rec.DisplayName,
		"DisplayVersion":  rec.DisplayVersion,
		"Publisher":       rec.Publisher,
		"InstallLocation": rec.InstallLocation,
		"UninstallString": rec.UninstallCommand,
		"DisplayIcon":     rec.DisplayIcon,
	}
	if rec.UninstallCommand != "" {
		strs["QuietUninstallString"] = rec.UninstallCommand + " /VERYSILENT"
	}
	for name, v := range strs {
		if v == "" {
			continue
		}
		if err := store.WriteString(key, name, v); err != nil {
			return fmt.Errorf("writing uninstall record: %w", err)
		}
	}

	// The product ships no modify/repair mode.
	if err := store.WriteDWord(key, "NoModify", 1); err != nil {
		return err
	}
	if err := store.WriteDWord(key, "NoRepair", 1); err != nil {
		return err
	}
	if rec.EstimatedSizeKB > 0 {
		if err := store.WriteDWord(key, "EstimatedSize", rec.EstimatedSizeKB); err != nil {
			return err
		}
	}
	return nil
}

// DeleteRecord removes the product's uninstall registration.
// Deleting an absent record is not an error.
func DeleteRecord(store regstore.Store, productID string) error {
	return store.DeleteKey(productKey(productID))
}
