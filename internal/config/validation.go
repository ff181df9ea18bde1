package config

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/orbview-labs/geodex/pkg/config"
)

// Validator performs semantic validation of a loaded configuration.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks cfg for semantic errors. The first error found is
// returned; all errors wrap ErrInvalidConfig.
func (v *Validator) Validate(cfg *config.Config) error {
	if cfg == nil {
		return errors.Wrap(ErrInvalidConfig, "config is nil")
	}

	if err := v.validateLog(cfg.Log); err != nil {
		return err
	}

	if err := v.validateRegistry(cfg.Registry); err != nil {
		return err
	}

	return v.validatePackages(cfg.Packages)
}

func (*Validator) validateLog(lc *config.LogConfig) error {
	if lc == nil || lc.Level == "" {
		return nil
	}

	switch strings.ToLower(lc.Level) {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return errors.Wrapf(ErrInvalidConfig,
			"log.level: %q is not one of debug, info, warn, error", lc.Level,
		)
	}
}

func (*Validator) validateRegistry(rc *config.RegistryConfig) error {
	if rc == nil || rc.Format == "" {
		return nil
	}

	switch rc.Format {
	case "yaml", "binary":
		return nil
	default:
		return errors.Wrapf(ErrInvalidConfig,
			"registry.format: %q is not one of yaml, binary", rc.Format,
		)
	}
}

func (*Validator) validatePackages(packages []*config.PackageConfig) error {
	seen := make(map[string]bool, len(packages))

	for i, pc := range packages {
		if pc == nil {
			return errors.Wrapf(ErrInvalidConfig, "packages[%d] is empty", i)
		}

		if pc.Name == "" {
			return errors.Wrapf(ErrInvalidConfig, "packages[%d].name is required", i)
		}

		if pc.Path == "" {
			return errors.Wrapf(ErrInvalidConfig,
				"packages[%d] (%s): path is required", i, pc.Name,
			)
		}

		if seen[pc.Name] {
			return errors.Wrapf(ErrInvalidConfig,
				"duplicate package name %q", pc.Name,
			)
		}

		seen[pc.Name] = true
	}

	return nil
}
