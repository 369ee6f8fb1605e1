package config

import (
	"os"
	"path/filepath"
)

// GetConfigBaseDir returns the base directory for configuration files
func GetConfigBaseDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		// For the system service, XDG_CONFIG_HOME is set to /etc/chrolisd
		// and used directly
		if dir == "/etc/chrolisd" {
			return dir
		}
		return filepath.Join(dir, ConfigDirName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", ConfigDirName)
}

// GetConfigPath returns the full path to a configuration file
func GetConfigPath(filename string) string {
	return filepath.Join(GetConfigBaseDir(), filename)
}

// GetDaemonConfigPath returns the full path to the daemon configuration file
func GetDaemonConfigPath() string {
	return GetConfigPath(DaemonConfigFilename)
}

// GetClientConfigPath returns the full path to the client configuration file
func GetClientConfigPath() string {
	return GetConfigPath(ClientConfigFilename)
}

// ValidatePollInterval clamps a polling interval in milliseconds to the
// minimum allowed value
func ValidatePollInterval(ms int) int {
	minMs := int(MinPollInterval.Milliseconds())
	if ms < minMs {
		return minMs
	}
	return ms
}
