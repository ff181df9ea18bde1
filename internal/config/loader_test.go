package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internalconfig "github.com/orbview-labs/geodex/internal/config"
)

func writeConfig(path, content string) {
	Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
	Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
}

var _ = Describe("Loader", func() {
	var (
		homeDir string
		workDir string
		loader  *internalconfig.Loader
	)

	BeforeEach(func() {
		homeDir = GinkgoT().TempDir()
		workDir = GinkgoT().TempDir()
		loader = internalconfig.NewLoaderWithDirs(homeDir, workDir)
	})

	It("falls back to defaults when no file exists", func() {
		cfg, err := loader.Load(nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LogLevel()).To(Equal("error"))
		Expect(cfg.RegistryFormat()).To(Equal("yaml"))
		Expect(cfg.Packages).To(BeEmpty())
	})

	It("layers project config over global config", func() {
		writeConfig(filepath.Join(homeDir, ".geodex", "config.toml"), `
[log]
level = "info"

[registry]
format = "binary"
`)
		writeConfig(filepath.Join(workDir, ".geodex", "config.toml"), `
[log]
level = "debug"
`)

		cfg, err := loader.Load(nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LogLevel()).To(Equal("debug"))
		Expect(cfg.RegistryFormat()).To(Equal("binary"))
	})

	It("accepts geodex.toml at the project root as an alternative", func() {
		writeConfig(filepath.Join(workDir, "geodex.toml"), `
[[packages]]
name = "sample_package"
path = "/opt/sample"
api_version = "1.0.0"
`)

		cfg, err := loader.Load(nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Packages).To(HaveLen(1))
		Expect(cfg.Packages[0].Name).To(Equal("sample_package"))

		packages := cfg.PluginPackages()
		Expect(packages[0].Root).To(Equal("/opt/sample"))
		Expect(packages[0].APIVersion).To(Equal("1.0.0"))
	})

	It("lets environment variables override files", func() {
		writeConfig(filepath.Join(workDir, "geodex.toml"), `
[log]
level = "info"
`)
		GinkgoT().Setenv("GEODEX_LOG_LEVEL", "debug")

		cfg, err := loader.Load(nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LogLevel()).To(Equal("debug"))
	})

	It("lets flags override everything", func() {
		GinkgoT().Setenv("GEODEX_LOG_LEVEL", "info")

		cfg, err := loader.Load(map[string]any{"log.level": "debug"})

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LogLevel()).To(Equal("debug"))
	})

	It("rejects invalid TOML", func() {
		writeConfig(filepath.Join(workDir, "geodex.toml"), "= not toml")

		_, err := loader.Load(nil)
		Expect(err).To(HaveOccurred())
	})

	It("honors a pinned project file", func() {
		custom := filepath.Join(workDir, "custom.toml")
		writeConfig(custom, `
[registry]
format = "binary"
`)

		loader.SetProjectFile(custom)

		cfg, err := loader.Load(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.RegistryFormat()).To(Equal("binary"))
	})
})
