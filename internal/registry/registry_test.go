package registry_test

import (
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/orbview-labs/geodex/internal/registry"
	"github.com/orbview-labs/geodex/pkg/logger"
	"github.com/orbview-labs/geodex/pkg/plugin"
)

// writePackage persists a record for a throwaway package and returns the
// package stanza pointing at it.
func writePackage(name, apiVersion string, add func(*registry.Record)) plugin.Package {
	root := GinkgoT().TempDir()
	pkg := plugin.Package{Name: name, Root: root, APIVersion: apiVersion}

	rec := registry.NewRecord(pkg)
	if add != nil {
		add(rec)
	}

	_, err := registry.WriteRecord(rec, root, registry.FormatYAML)
	Expect(err).NotTo(HaveOccurred())

	return pkg
}

var _ = Describe("Registry", func() {
	entry := func(pkg string) registry.Entry {
		return registry.Entry{Package: pkg, Relpath: "plugins/x.yaml", Abspath: "/opt/x.yaml"}
	}

	It("fails fast when a configured package has no record", func() {
		pkg := plugin.Package{Name: "unbuilt", Root: GinkgoT().TempDir()}
		reg := registry.New([]plugin.Package{pkg}, registry.FormatYAML, logger.NewNoOpLogger())

		err := reg.EnsureLoaded()
		Expect(errors.Is(err, registry.ErrMissingRegistry)).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring("geodex build")))

		// The failure is sticky: queries keep returning it.
		_, err = reg.IdentifyKind("sectors")
		Expect(errors.Is(err, registry.ErrMissingRegistry)).To(BeTrue())
	})

	It("merges records from every configured package", func() {
		base := writePackage("base", "1.0.0", func(rec *registry.Record) {
			rec.Add(plugin.KindYAML, "sectors", plugin.NewKey("conus"), entry("base"))
			rec.Add(plugin.KindYAML, "sectors", plugin.NewKey("global"), entry("base"))
		})
		overlay := writePackage("overlay", "1.0.0", func(rec *registry.Record) {
			rec.Add(plugin.KindYAML, "sectors", plugin.NewKey("goes"), entry("overlay"))
			rec.Add(plugin.KindText, "ascii_palettes", plugin.NewKey("infrared"), entry("overlay"))
		})

		reg := registry.New(
			[]plugin.Package{base, overlay},
			registry.FormatYAML,
			logger.NewNoOpLogger(),
		)

		keys, err := reg.PluginNames("sectors")
		Expect(err).NotTo(HaveOccurred())
		Expect(keys).To(Equal([]plugin.Key{
			plugin.NewKey("conus"),
			plugin.NewKey("global"),
			plugin.NewKey("goes"),
		}))

		names, err := reg.Interfaces(plugin.KindText)
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(Equal([]string{"ascii_palettes"}))
	})

	It("resolves key collisions in configuration order, later package wins", func() {
		base := writePackage("base", "1.0.0", func(rec *registry.Record) {
			rec.Add(plugin.KindYAML, "sectors", plugin.NewKey("conus"), entry("base"))
		})
		overlay := writePackage("overlay", "1.0.0", func(rec *registry.Record) {
			rec.Add(plugin.KindYAML, "sectors", plugin.NewKey("conus"), entry("overlay"))
		})

		reg := registry.New(
			[]plugin.Package{base, overlay},
			registry.FormatYAML,
			logger.NewNoOpLogger(),
		)

		e, err := reg.GetPluginInfo("sectors", plugin.NewKey("conus"))
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Package).To(Equal("overlay"))
	})

	It("identifies the kind owning an interface", func() {
		pkg := writePackage("base", "1.0.0", func(rec *registry.Record) {
			rec.Add(plugin.KindText, "ascii_palettes", plugin.NewKey("infrared"), entry("base"))
		})

		reg := registry.New([]plugin.Package{pkg}, registry.FormatYAML, logger.NewNoOpLogger())

		kind, err := reg.IdentifyKind("ascii_palettes")
		Expect(err).NotTo(HaveOccurred())
		Expect(kind).To(Equal(plugin.KindText))

		_, err = reg.IdentifyKind("volumes")
		Expect(errors.Is(err, registry.ErrNotFound)).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring("does not exist within any package registry")))
	})

	It("distinguishes a missing plugin from a missing interface", func() {
		pkg := writePackage("base", "1.0.0", func(rec *registry.Record) {
			rec.Add(plugin.KindYAML, "sectors", plugin.NewKey("conus"), entry("base"))
		})

		reg := registry.New([]plugin.Package{pkg}, registry.FormatYAML, logger.NewNoOpLogger())

		_, err := reg.GetPluginInfo("sectors", plugin.NewKey("mars"))
		Expect(errors.Is(err, registry.ErrNotFound)).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring(`"mars"`)))
	})

	It("rejects records from an incompatible API major version", func() {
		pkg := writePackage("future", "2.0.0", nil)
		reg := registry.New([]plugin.Package{pkg}, registry.FormatYAML, logger.NewNoOpLogger())

		err := reg.EnsureLoaded()
		Expect(errors.Is(err, registry.ErrIncompatibleAPI)).To(BeTrue())
	})

	It("accepts records within the same API major version", func() {
		pkg := writePackage("minor", "1.2.3", nil)
		reg := registry.New([]plugin.Package{pkg}, registry.FormatYAML, logger.NewNoOpLogger())

		Expect(reg.EnsureLoaded()).To(Succeed())
	})
})
