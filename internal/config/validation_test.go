package config_test

import (
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internalconfig "github.com/orbview-labs/geodex/internal/config"
	"github.com/orbview-labs/geodex/pkg/config"
)

var _ = Describe("Validator", func() {
	var v *internalconfig.Validator

	BeforeEach(func() {
		v = internalconfig.NewValidator()
	})

	valid := func() *config.Config {
		return &config.Config{
			Log:      &config.LogConfig{Level: "info"},
			Registry: &config.RegistryConfig{Format: "yaml"},
			Packages: []*config.PackageConfig{
				{Name: "sample_package", Path: "/opt/sample"},
			},
		}
	}

	It("accepts a well-formed configuration", func() {
		Expect(v.Validate(valid())).To(Succeed())
	})

	It("rejects a nil configuration", func() {
		err := v.Validate(nil)
		Expect(errors.Is(err, internalconfig.ErrInvalidConfig)).To(BeTrue())
	})

	It("rejects unknown log levels", func() {
		cfg := valid()
		cfg.Log.Level = "verbose"

		err := v.Validate(cfg)
		Expect(err).To(MatchError(ContainSubstring("log.level")))
	})

	It("rejects unknown registry formats", func() {
		cfg := valid()
		cfg.Registry.Format = "xml"

		err := v.Validate(cfg)
		Expect(err).To(MatchError(ContainSubstring("registry.format")))
	})

	It("requires a name and path on every package", func() {
		cfg := valid()
		cfg.Packages = append(cfg.Packages, &config.PackageConfig{Name: "nameless"})

		err := v.Validate(cfg)
		Expect(err).To(MatchError(ContainSubstring("path is required")))
	})

	It("rejects duplicate package names", func() {
		cfg := valid()
		cfg.Packages = append(cfg.Packages, &config.PackageConfig{
			Name: "sample_package",
			Path: "/opt/other",
		})

		err := v.Validate(cfg)
		Expect(err).To(MatchError(ContainSubstring("duplicate package name")))
	})
})
