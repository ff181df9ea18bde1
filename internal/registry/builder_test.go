package registry_test

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/orbview-labs/geodex/internal/iface"
	"github.com/orbview-labs/geodex/internal/registry"
	"github.com/orbview-labs/geodex/pkg/logger"
	"github.com/orbview-labs/geodex/pkg/plugin"
)

var _ = Describe("Builder", func() {
	var (
		b    *registry.Builder
		rec  *logger.Recorder
		root string
		pkg  plugin.Package
	)

	BeforeEach(func() {
		rec = logger.NewRecorder()
		b = registry.NewBuilder(iface.Builtin(), rec)
		root = GinkgoT().TempDir()
		pkg = plugin.Package{Name: "sample_package", Root: root, APIVersion: "1.0.0"}
	})

	write := func(relpath, content string) {
		Expect(writeRaw(filepath.Join(root, relpath), content)).To(Succeed())
	}

	It("registers a single-key YAML plugin", func() {
		write("plugins/sectors/conus.yaml",
			"interface: sectors\nfamily: area_definition\nname: conus\n")

		record, err := b.Build(pkg)
		Expect(err).NotTo(HaveOccurred())

		ix := record.Plugins[plugin.KindYAML]["sectors"]
		Expect(ix).NotTo(BeNil())

		e, ok := ix.Get(plugin.NewKey("conus"))
		Expect(ok).To(BeTrue())
		Expect(e.Relpath).To(Equal(filepath.Join("plugins", "sectors", "conus.yaml")))
	})

	It("expands a list-family file into one entry per sub-plugin and source", func() {
		write("plugins/products/abi.yaml", `interface: products
family: list
name: abi
spec:
  products:
    - name: Infrared
      source_names: [abi, ahi]
      product_defaults: basic_infrared
    - name: Visible
      source_names: [abi]
      family: algorithm
`)

		record, err := b.Build(pkg)
		Expect(err).NotTo(HaveOccurred())

		flat := record.Plugins[plugin.KindYAML]["products"].Flatten()
		Expect(flat).To(HaveLen(3))
		Expect(flat).To(HaveKey(plugin.NewSourceKey("abi", "Infrared")))
		Expect(flat).To(HaveKey(plugin.NewSourceKey("ahi", "Infrared")))
		Expect(flat).To(HaveKey(plugin.NewSourceKey("abi", "Visible")))
	})

	It("skips a malformed sub-plugin with a warning and keeps the rest", func() {
		write("plugins/products/abi.yaml", `interface: products
family: list
name: abi
spec:
  products:
    - name: Infrared
      source_names: [abi]
    - docstring: no name on this one
    - name: Visible
      source_names: [abi]
`)

		record, err := b.Build(pkg)
		Expect(err).NotTo(HaveOccurred())

		flat := record.Plugins[plugin.KindYAML]["products"].Flatten()
		Expect(flat).To(HaveLen(2))
		Expect(rec.Messages(logger.LevelWarn)).To(ContainElement("skipping malformed sub-plugin"))
	})

	It("registers a composite non-list plugin once per declared source", func() {
		write("plugins/products/raw.yaml", `interface: products
family: unmodified
name: Raw
source_names: [abi, ahi]
`)

		record, err := b.Build(pkg)
		Expect(err).NotTo(HaveOccurred())

		flat := record.Plugins[plugin.KindYAML]["products"].Flatten()
		Expect(flat).To(HaveKey(plugin.NewSourceKey("abi", "Raw")))
		Expect(flat).To(HaveKey(plugin.NewSourceKey("ahi", "Raw")))
	})

	It("aborts on a YAML file with an unknown interface", func() {
		write("plugins/unknown/x.yaml", "interface: volumes\nname: x\n")

		_, err := b.Build(pkg)
		Expect(errors.Is(err, registry.ErrUnknownInterface)).To(BeTrue())
	})

	It("aborts on a YAML file declaring a module interface", func() {
		write("plugins/algorithms/x.yaml", "interface: algorithms\nname: x\n")

		_, err := b.Build(pkg)
		Expect(errors.Is(err, registry.ErrKindMismatch)).To(BeTrue())
	})

	It("registers text plugins under the interface named by their directory", func() {
		write("plugins/ascii_palettes/infrared.txt", "0 0 0\n")
		write("plugins/notes/readme.txt", "not a plugin\n")

		record, err := b.Build(pkg)
		Expect(err).NotTo(HaveOccurred())

		flat := record.Plugins[plugin.KindText]["ascii_palettes"].Flatten()
		Expect(flat).To(HaveLen(1))
		Expect(flat).To(HaveKey(plugin.NewKey("infrared")))
	})

	It("registers module descriptors and skips ones with unknown interfaces", func() {
		pkg.Descriptors = []plugin.Descriptor{
			{
				Interface: "algorithms",
				Family:    "single_channel",
				Name:      "highlight",
				Relpath:   "sample.go",
				Entry:     func() {},
			},
			{Interface: "not_an_interface", Name: "stray", Entry: func() {}},
		}

		record, err := b.Build(pkg)
		Expect(err).NotTo(HaveOccurred())

		flat := record.Plugins[plugin.KindModule]["algorithms"].Flatten()
		Expect(flat).To(HaveLen(1))

		e := flat[plugin.NewKey("highlight")]
		Expect(e.Abspath).To(Equal(filepath.Join(root, "sample.go")))
		Expect(record.Plugins[plugin.KindModule]).NotTo(HaveKey("not_an_interface"))
	})

	It("produces byte-identical records across rebuilds", func() {
		write("plugins/sectors/conus.yaml",
			"interface: sectors\nfamily: area_definition\nname: conus\n")
		write("plugins/ascii_palettes/infrared.txt", "0 0 0\n")

		first, err := b.Build(pkg)
		Expect(err).NotTo(HaveOccurred())

		second, err := b.Build(pkg)
		Expect(err).NotTo(HaveOccurred())

		firstBytes, err := registry.EncodeRecord(first, registry.FormatYAML)
		Expect(err).NotTo(HaveOccurred())

		secondBytes, err := registry.EncodeRecord(second, registry.FormatYAML)
		Expect(err).NotTo(HaveOccurred())

		Expect(string(firstBytes)).To(Equal(string(secondBytes)))
	})
})
