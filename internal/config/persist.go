package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// LockKey is the persisted flag that blocks reinstallation.
const LockKey = "installer_locked"

// ErrLocked is returned when the persisted configuration is locked and
// the run is not forced.
var ErrLocked = errors.New("installer is locked; use --force to run anyway")

// FileWriter writes the application configuration as a TOML file.
type FileWriter struct{}

// Write encodes values as TOML and writes them atomically to path.
func (FileWriter) Write(path string, values map[string]any) error {
	data, err := toml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ReadFile decodes a persisted configuration file.
func ReadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	values := map[string]any{}
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return values, nil
}

// IsLocked reports whether the configuration at path has
// installer_locked = true. A missing file is not locked.
func IsLocked(path string) (bool, error) {
	values, err := ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	locked, _ := values[LockKey].(bool)
	return locked, nil
}

// CheckLock returns ErrLocked when the configuration is locked and force
// is false.
func CheckLock(path string, force bool) error {
	if force {
		return nil
	}
	locked, err := IsLocked(path)
	if err != nil {
		return err
	}
	if locked {
		return fmt.Errorf("%s: %w", path, ErrLocked)
	}
	return nil
}
