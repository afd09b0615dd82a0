// SPDX-License-Identifier: MPL-2.0

package config

import "sync"

var (
	// configDirOverride allows tests to override the config directory.
	// Necessary because os.UserHomeDir() doesn't reliably respect the HOME
	// environment variable on all platforms (e.g., macOS in CI).
	configDirOverride string

	// configFilePathOverride is set from the --config flag.
	configFilePathOverride string

	cacheMu    sync.Mutex
	cachedCfg  *Config
	cachedPath string
)

// SetConfigDirOverride sets a custom config directory path.
// Primarily intended for testing.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
	invalidate()
}

// SetConfigFilePathOverride sets a custom config file path (--config flag).
func SetConfigFilePathOverride(path string) {
	configFilePathOverride = path
	invalidate()
}

// Reset clears overrides and the cached configuration.
// Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
	configFilePathOverride = ""
	invalidate()
}

func invalidate() {
	cacheMu.Lock()
	cachedCfg = nil
	cachedPath = ""
	cacheMu.Unlock()
}

// Load returns the user configuration, loading and caching it on first use.
func Load() (*Config, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cachedCfg != nil {
		return cachedCfg, nil
	}

	cfg, path, err := load()
	if err != nil {
		return nil, err
	}
	cachedCfg = cfg
	cachedPath = path
	return cfg, nil
}

// LoadedFrom returns the path of the config file the cached configuration
// was read from, or empty when defaults are in effect.
func LoadedFrom() string {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	return cachedPath
}
