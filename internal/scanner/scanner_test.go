package scanner_test

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/orbview-labs/geodex/internal/scanner"
	"github.com/orbview-labs/geodex/pkg/logger"
	"github.com/orbview-labs/geodex/pkg/plugin"
)

func writeFile(root, relpath, content string) {
	path := filepath.Join(root, relpath)
	Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
	Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
}

var _ = Describe("Scanner", func() {
	var (
		s    *scanner.Scanner
		root string
		pkg  plugin.Package
	)

	BeforeEach(func() {
		s = scanner.New(logger.NewNoOpLogger())
		root = GinkgoT().TempDir()
		pkg = plugin.Package{Name: "sample_package", Root: root}
	})

	It("treats a package without a plugins directory as empty", func() {
		result, err := s.Scan(pkg)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.YAML).To(BeEmpty())
		Expect(result.Text).To(BeEmpty())
	})

	It("discovers YAML files recursively with parsed documents", func() {
		writeFile(root, "plugins/sectors/conus.yaml",
			"interface: sectors\nfamily: area_definition\nname: conus\n")
		writeFile(root, "plugins/deep/nested/tree/goes.yaml",
			"interface: sectors\nfamily: area_definition\nname: goes\n")

		result, err := s.Scan(pkg)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.YAML).To(HaveLen(2))

		var names []any
		for _, yf := range result.YAML {
			names = append(names, yf.Doc["name"])
			Expect(yf.Source.Package).To(Equal("sample_package"))
			Expect(yf.Source.Abspath).To(BeAnExistingFile())
		}

		Expect(names).To(ConsistOf("conus", "goes"))
	})

	It("records relative paths against the package root", func() {
		writeFile(root, "plugins/sectors/conus.yaml",
			"interface: sectors\nname: conus\n")

		result, err := s.Scan(pkg)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.YAML[0].Source.Relpath).To(
			Equal(filepath.Join("plugins", "sectors", "conus.yaml")),
		)
	})

	It("fails the whole scan on an unparsable YAML file", func() {
		writeFile(root, "plugins/sectors/good.yaml",
			"interface: sectors\nname: good\n")
		writeFile(root, "plugins/sectors/broken.yaml",
			"interface: [unclosed\n")

		_, err := s.Scan(pkg)

		Expect(errors.Is(err, scanner.ErrScan)).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring("broken.yaml")))
	})

	It("names text plugins after the file stem without reading content", func() {
		writeFile(root, "plugins/ascii_palettes/infrared.txt", "0 0 0\n")

		result, err := s.Scan(pkg)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Text).To(HaveLen(1))
		Expect(result.Text[0].Name).To(Equal("infrared"))
	})

	It("passes through complete descriptors and skips incomplete ones", func() {
		pkg.Descriptors = []plugin.Descriptor{
			{Interface: "algorithms", Family: "single_channel", Name: "highlight", Entry: func() {}},
			{Interface: "algorithms"},
		}

		result, err := s.Scan(pkg)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Descriptors).To(HaveLen(1))
		Expect(result.Descriptors[0].Name).To(Equal("highlight"))
	})
})
