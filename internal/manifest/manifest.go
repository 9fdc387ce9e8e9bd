// Package manifest handles the install manifest: the YAML document the
// packaging step bakes in describing the product being installed.
// Precedence: environment variables > manifest file > embedded defaults.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest holds everything the install session needs to know about the
// product and the defaults the operator is offered.
type Manifest struct {
	Product Product `yaml:"product"`
	Install Install `yaml:"install"`
	Logging Logging `yaml:"logging"`
}

// Product identifies the target application.
type Product struct {
	Name            string `yaml:"name"`
	ID              string `yaml:"id"` // installed-products record key
	Version         string `yaml:"version"`
	Publisher       string `yaml:"publisher"`
	ImageName       string `yaml:"image_name"` // executable name in the process table
	LaunchMinimized bool   `yaml:"launch_minimized"`
}

// Install holds session behavior knobs.
type Install struct {
	Scope           string `yaml:"scope"`            // "user" or "machine"
	UninstallPolicy string `yaml:"uninstall_policy"` // "lenient" or "strict"
}

// Logging holds logging settings.
type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in manifest for Excella.
func Default() *Manifest {
	return &Manifest{
		Product: Product{
			Name:      "Excella",
			ID:        "Excella_is1",
			Version:   "0.0.0",
			Publisher: "frenzywall",
			ImageName: "Excella.exe",
		},
		Install: Install{
			Scope:           "user",
			UninstallPolicy: "lenient",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// LoadFromBytes parses a YAML manifest and merges it over the defaults.
// Environment variables take highest precedence.
func LoadFromBytes(data []byte) (*Manifest, error) {
	m := Default()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, m); err != nil {
			return nil, fmt.Errorf("parsing manifest data: %w", err)
		}
	}
	applyEnvOverrides(m)
	return m, nil
}

// Load reads the manifest from a YAML file. If path is empty or the file
// does not exist, only defaults and environment overrides are used.
func Load(path string) (*Manifest, error) {
	if path == "" {
		return LoadFromBytes(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading manifest file: %w", err)
		}
		return LoadFromBytes(nil)
	}
	return LoadFromBytes(data)
}

// LoadLayered loads with the full precedence chain:
// env vars > external file > embedded bytes > defaults.
func LoadLayered(embedded []byte, path string) (*Manifest, error) {
	m := Default()
	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, m); err != nil {
			return nil, fmt.Errorf("parsing embedded manifest: %w", err)
		}
	}
	if path == "" {
		path = Locate()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, m); err != nil {
				return nil, fmt.Errorf("parsing manifest file %s: %w", path, err)
			}
		}
	}
	applyEnvOverrides(m)
	return m, nil
}

// DefaultFileName is the manifest the packaging step stages beside the
// installer binary.
const DefaultFileName = "setup.yaml"

// Locate searches beside the installer binary for a setup.yaml the
// packaging step may have staged. Returns empty when none exists.
func Locate() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	p := filepath.Join(filepath.Dir(exe), DefaultFileName)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// applyEnvOverrides applies environment variable overrides, the highest
// precedence layer.
func applyEnvOverrides(m *Manifest) {
	if v := os.Getenv("EXCELLA_SETUP_VERSION"); v != "" {
		m.Product.Version = v
	}
	if v := os.Getenv("EXCELLA_SETUP_LOG_LEVEL"); v != "" {
		m.Logging.Level = v
	}
	if v := os.Getenv("EXCELLA_SETUP_UNINSTALL_POLICY"); v != "" {
		m.Install.UninstallPolicy = v
	}
}

// Validate checks the manifest is complete enough to run a session.
func (m *Manifest) Validate() error {
	if m.Product.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if m.Product.ID == "" {
		return fmt.Errorf("product id is required")
	}
	if m.Product.ImageName == "" {
		return fmt.Errorf("product image name is required")
	}
	switch m.Install.Scope {
	case "user", "machine":
	default:
		return fmt.Errorf("invalid install scope %q (expected \"user\" or \"machine\")", m.Install.Scope)
	}
	return nil
}
