package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// UserConfigName is the per-install config file kept in the data dir.
const UserConfigName = "config.yml"

// EnsureUserConfig seeds dataDir with the bundled default config on first run
// and returns the path of the user's copy. An existing copy is never
// overwritten. The copy is 0600 because it may hold auth.jwt_secret.
func EnsureUserConfig(dataDir, defaultPath string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	userPath := filepath.Join(dataDir, UserConfigName)

	switch _, err := os.Stat(userPath); {
	case err == nil:
		return userPath, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", err
	}

	b, err := os.ReadFile(defaultPath)
	if err != nil {
		return "", fmt.Errorf("read default config: %w", err)
	}
	var parsed Config
	if err := yaml.Unmarshal(b, &parsed); err != nil {
		return "", fmt.Errorf("default config %s: %w", defaultPath, err)
	}

	tmp, err := os.CreateTemp(dataDir, UserConfigName+".*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), userPath); err != nil {
		return "", err
	}
	return userPath, nil
}
