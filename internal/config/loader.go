// Package config loads and validates geodex configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	tomlparser "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/orbview-labs/geodex/pkg/config"
)

var (
	// ErrInvalidTOML is returned when a TOML file cannot be parsed.
	ErrInvalidTOML = errors.New("invalid TOML")

	// ErrInvalidConfig is returned when configuration fails semantic
	// validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

const (
	// GlobalConfigDir is the directory name for global configuration,
	// under the user's home directory.
	GlobalConfigDir = ".geodex"

	// GlobalConfigFile is the global configuration file name.
	GlobalConfigFile = "config.toml"

	// ProjectConfigDir is the directory name for project configuration.
	ProjectConfigDir = ".geodex"

	// ProjectConfigFile is the primary project configuration file name.
	ProjectConfigFile = "config.toml"

	// ProjectConfigFileAlt is the alternative project configuration file
	// name, at the project root.
	ProjectConfigFileAlt = "geodex.toml"

	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "GEODEX_"
)

// Loader loads configuration from layered sources.
// Precedence order (highest to lowest):
// 1. CLI Flags
// 2. Environment Variables (GEODEX_*)
// 3. Project Config (.geodex/config.toml or geodex.toml)
// 4. Global Config (~/.geodex/config.toml)
// 5. Defaults
type Loader struct {
	k           *koanf.Koanf
	homeDir     string
	workDir     string
	projectFile string
}

// NewLoader creates a Loader using the user's home and working directories.
func NewLoader() (*Loader, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "resolving home directory")
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "resolving working directory")
	}

	return NewLoaderWithDirs(homeDir, workDir), nil
}

// NewLoaderWithDirs creates a Loader with custom directories (for testing).
func NewLoaderWithDirs(homeDir, workDir string) *Loader {
	return &Loader{
		k:       koanf.New("."),
		homeDir: homeDir,
		workDir: workDir,
	}
}

// Load loads and validates configuration from all sources.
func (l *Loader) Load(flags map[string]any) (*config.Config, error) {
	cfg, err := l.LoadWithoutValidation(flags)
	if err != nil {
		return nil, err
	}

	if err := NewValidator().Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadWithoutValidation loads configuration without semantic validation.
// Useful for tooling that repairs broken configurations.
func (l *Loader) LoadWithoutValidation(flags map[string]any) (*config.Config, error) {
	l.k = koanf.New(".")

	if err := l.k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "loading defaults")
	}

	globalPath := l.GlobalConfigPath()
	if err := l.loadTOMLFile(globalPath); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "loading global config")
	}

	if projectPath := l.findProjectConfig(); projectPath != "" {
		if err := l.loadTOMLFile(projectPath); err != nil {
			return nil, errors.Wrap(err, "loading project config")
		}
	}

	envOpt := env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envTransform,
	}

	if err := l.k.Load(env.Provider(".", envOpt), nil); err != nil {
		return nil, errors.Wrap(err, "loading environment variables")
	}

	if len(flags) > 0 {
		if err := l.k.Load(confmap.Provider(flags, "."), nil); err != nil {
			return nil, errors.Wrap(err, "loading flags")
		}
	}

	var cfg config.Config

	unmarshalConf := koanf.UnmarshalConf{
		Tag:       "koanf",
		FlatPaths: false,
	}

	if err := l.k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	return &cfg, nil
}

// loadTOMLFile loads one TOML configuration file into the layered state.
func (l *Loader) loadTOMLFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	if err := l.k.Load(file.Provider(path), tomlparser.Parser()); err != nil {
		return errors.Wrapf(ErrInvalidTOML, "%s: %v", path, err)
	}

	return nil
}

// envTransform maps environment variable names to config paths.
// GEODEX_LOG_LEVEL → log.level
func envTransform(key, value string) (string, any) {
	key = strings.TrimPrefix(key, EnvPrefix)
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", ".")

	return key, value
}

// GlobalConfigPath returns the path to the global configuration file.
func (l *Loader) GlobalConfigPath() string {
	return filepath.Join(l.homeDir, GlobalConfigDir, GlobalConfigFile)
}

// ProjectConfigPaths returns the candidate project configuration paths, in
// lookup order.
func (l *Loader) ProjectConfigPaths() []string {
	return []string{
		filepath.Join(l.workDir, ProjectConfigDir, ProjectConfigFile),
		filepath.Join(l.workDir, ProjectConfigFileAlt),
	}
}

// SetProjectFile pins the project configuration to an explicit file,
// bypassing the directory lookup.
func (l *Loader) SetProjectFile(path string) {
	l.projectFile = path
}

func (l *Loader) findProjectConfig() string {
	if l.projectFile != "" {
		return l.projectFile
	}

	for _, path := range l.ProjectConfigPaths() {
		if fileExists(path) {
			return path
		}
	}

	return ""
}

// HasProjectConfig reports whether a project configuration file exists.
func (l *Loader) HasProjectConfig() bool {
	return l.findProjectConfig() != ""
}

// Defaults returns the lowest-priority configuration layer.
func Defaults() map[string]any {
	return map[string]any{
		"log": map[string]any{
			"level": "error",
			"file":  "",
		},
		"registry": map[string]any{
			"format": "yaml",
		},
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
