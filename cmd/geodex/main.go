// Package main provides the CLI entry point for geodex.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	internalconfig "github.com/orbview-labs/geodex/internal/config"
	"github.com/orbview-labs/geodex/internal/iface"
	"github.com/orbview-labs/geodex/internal/registry"
	"github.com/orbview-labs/geodex/internal/resolver"
	"github.com/orbview-labs/geodex/internal/schema"
	"github.com/orbview-labs/geodex/pkg/config"
	"github.com/orbview-labs/geodex/pkg/logger"
	"github.com/orbview-labs/geodex/pkg/plugin"
)

var (
	debugMode  bool
	traceMode  bool
	configPath string
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}

	return 0
}

var rootCmd = &cobra.Command{
	Use:   "geodex",
	Short: "Plugin registry and discovery engine",
	Long: `geodex discovers, registers, validates, and resolves plugins across
installed plugin packages.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		checkVersionFlag()
	},
	SilenceUsage:      true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&traceMode, "trace", false, "Enable trace logging")
	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		"",
		"Path to configuration file (default: .geodex/config.toml or geodex.toml)",
	)
}

// loadConfig loads the layered configuration, folding CLI flags on top.
func loadConfig() (*config.Config, error) {
	flags := make(map[string]any)
	if debugMode {
		flags["log.level"] = "debug"
	}

	if configPath != "" {
		return loadConfigFile(configPath, flags)
	}

	loader, err := internalconfig.NewLoader()
	if err != nil {
		return nil, errors.Wrap(err, "creating config loader")
	}

	cfg, err := loader.Load(flags)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFile loads configuration with an explicit project file, pointing
// the loader's working directory at the file's parent.
func loadConfigFile(path string, flags map[string]any) (*config.Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config file %s", path)
	}

	if info.IsDir() {
		return nil, errors.Newf("config path %s is a directory", path)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "resolving home directory")
	}

	loader := internalconfig.NewLoaderWithDirs(homeDir, explicitConfigDir(path))
	loader.SetProjectFile(path)

	cfg, err := loader.Load(flags)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// explicitConfigDir maps an explicit --config path to the loader's working
// directory. A file inside a .geodex directory resolves to the project root
// above it.
func explicitConfigDir(path string) string {
	dir := filepath.Dir(path)
	if filepath.Base(dir) == internalconfig.ProjectConfigDir {
		return filepath.Dir(dir)
	}

	return dir
}

// newLogger builds the process logger from configuration and flags.
func newLogger(cfg *config.Config) (logger.Logger, error) {
	level := logger.LevelFromFlags(debugMode, traceMode)

	if !debugMode && !traceMode && cfg.LogLevel() != "" {
		level = logger.ParseLevel(cfg.LogLevel())
	}

	if cfg.Log != nil && cfg.Log.File != "" {
		return logger.NewFileLogger(cfg.Log.File, level)
	}

	return logger.NewWriterLogger(os.Stderr, level), nil
}

// engine bundles the constructed subsystems behind one CLI invocation.
type engine struct {
	cfg       *config.Config
	log       logger.Logger
	ifaces    *iface.Set
	validator *schema.Validator
	format    registry.Format
	packages  []plugin.Package

	reg *registry.Registry
}

// newEngine constructs the interface set, validator, and package list from
// configuration.
func newEngine() (*engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	ifaces := iface.Builtin()

	format, err := registry.ParseFormat(cfg.RegistryFormat())
	if err != nil {
		return nil, err
	}

	return &engine{
		cfg:       cfg,
		log:       log,
		ifaces:    ifaces,
		validator: schema.NewValidator(ifaces, log),
		format:    format,
		packages:  cfg.PluginPackages(),
	}, nil
}

// registry returns the lazy merged registry over the configured packages,
// shared across one CLI invocation.
func (e *engine) registry() *registry.Registry {
	if e.reg == nil {
		e.reg = registry.New(e.packages, e.format, e.log)
	}

	return e.reg
}

// resolver returns a resolver over the merged registry.
func (e *engine) resolver() (*resolver.Resolver, error) {
	return resolver.New(e.registry(), e.ifaces, e.validator, e.packages, e.log)
}
