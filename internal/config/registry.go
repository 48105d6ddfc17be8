package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName         = "garagenode"
	registryFile    = "nodes.yaml"
	registryVersion = 1
)

// registryMu serialises registry reads and writes within the process
var registryMu sync.Mutex

// GetConfigDir returns the directory holding operator-side state:
// $XDG_CONFIG_HOME/garagenode on Linux, ~/.config/garagenode on macOS and
// the user config dir elsewhere.
func GetConfigDir() (string, error) {
	if runtime.GOOS == "darwin" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, ".config", appName), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, appName), nil
}

func GetRegistryPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, registryFile), nil
}

// LoadRegistry reads the registry from GetRegistryPath. A missing file is
// an empty registry.
func LoadRegistry() (*Registry, error) {
	path, err := GetRegistryPath()
	if err != nil {
		return nil, err
	}
	return LoadRegistryFrom(path)
}

func LoadRegistryFrom(path string) (*Registry, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NewRegistry(), nil
	case err != nil:
		return nil, fmt.Errorf("reading node registry: %w", err)
	}

	reg := NewRegistry()
	if err := yaml.Unmarshal(data, reg); err != nil {
		return nil, fmt.Errorf("parsing node registry %s: %w", path, err)
	}
	if reg.Version != registryVersion {
		return nil, fmt.Errorf("node registry %s has version %d, this build reads version %d", path, reg.Version, registryVersion)
	}
	if reg.Nodes == nil {
		reg.Nodes = make(map[string]*KnownNode)
	}
	return reg, nil
}

// Save writes the registry to GetRegistryPath.
func (r *Registry) Save() error {
	path, err := GetRegistryPath()
	if err != nil {
		return err
	}
	return r.SaveTo(path)
}

// SaveTo replaces the file at path atomically, creating its directory
// if needed. A failed write leaves the previous file in place.
func (r *Registry) SaveTo(path string) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	body, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding node registry: %w", err)
	}
	data := append([]byte("# Nodes seen by 'garage-ctl scan'. Set nicknames with 'garage-ctl name'.\n\n"), body...)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, registryFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing node registry: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing node registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing node registry: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("writing node registry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing node registry: %w", err)
	}
	return nil
}
