// Package config provides the geodex configuration types.
package config

import (
	"github.com/orbview-labs/geodex/pkg/plugin"
)

// Config is the root configuration.
type Config struct {
	// Log configures logging.
	Log *LogConfig `json:"log,omitempty" koanf:"log" toml:"log"`

	// Registry configures registry record persistence.
	Registry *RegistryConfig `json:"registry,omitempty" koanf:"registry" toml:"registry"`

	// Packages lists the installed plugin packages, in merge order.
	Packages []*PackageConfig `json:"packages,omitempty" koanf:"packages" toml:"packages"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	// Default: "error"
	Level string `json:"level,omitempty" koanf:"level" toml:"level"`

	// File is an optional log file path. Empty logs to stderr.
	File string `json:"file,omitempty" koanf:"file" toml:"file"`
}

// RegistryConfig configures registry record persistence.
type RegistryConfig struct {
	// Format selects the persisted record serialization: "yaml"
	// (human-readable) or "binary" (faster loads).
	// Default: "yaml"
	Format string `json:"format,omitempty" koanf:"format" toml:"format"`
}

// PackageConfig describes one installed plugin package.
type PackageConfig struct {
	// Name is the unique package name.
	Name string `json:"name" koanf:"name" toml:"name"`

	// Path is the package root directory.
	Path string `json:"path" koanf:"path" toml:"path"`

	// APIVersion is the plugin API version the package targets (semver).
	APIVersion string `json:"api_version,omitempty" koanf:"api_version" toml:"api_version"`
}

// PluginPackages converts the configured packages into plugin.Package
// values. Module descriptors are contributed by the host at construction
// time, not by configuration.
func (c *Config) PluginPackages() []plugin.Package {
	packages := make([]plugin.Package, 0, len(c.Packages))

	for _, pc := range c.Packages {
		packages = append(packages, plugin.Package{
			Name:       pc.Name,
			Root:       pc.Path,
			APIVersion: pc.APIVersion,
		})
	}

	return packages
}

// LogLevel returns the configured log level, or "" when unset.
func (c *Config) LogLevel() string {
	if c.Log == nil {
		return ""
	}

	return c.Log.Level
}

// RegistryFormat returns the configured record format, or "" when unset.
func (c *Config) RegistryFormat() string {
	if c.Registry == nil {
		return ""
	}

	return c.Registry.Format
}
