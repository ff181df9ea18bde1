package schema_test

import (
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/orbview-labs/geodex/internal/iface"
	"github.com/orbview-labs/geodex/internal/schema"
	"github.com/orbview-labs/geodex/pkg/logger"
	"github.com/orbview-labs/geodex/pkg/plugin"
)

var src = plugin.Source{
	Package: "sample_package",
	Relpath: "plugins/sectors/conus.yaml",
	Abspath: "/opt/sample_package/plugins/sectors/conus.yaml",
}

func sectorDoc() map[string]any {
	return map[string]any{
		"interface": "sectors",
		"family":    "area_definition",
		"name":      "conus",
		"spec": map[string]any{
			"area_id":    "conus",
			"projection": map[string]any{"proj": "lcc"},
		},
	}
}

var _ = Describe("Validator", func() {
	var v *schema.Validator

	BeforeEach(func() {
		v = schema.NewValidator(iface.Builtin(), logger.NewNoOpLogger())
	})

	Describe("Validate", func() {
		It("accepts a well-formed document", func() {
			validated, err := v.Validate(sectorDoc(), src)

			Expect(err).NotTo(HaveOccurred())
			Expect(validated["name"]).To(Equal("conus"))
		})

		It("requires top-level identity fields", func() {
			doc := sectorDoc()
			delete(doc, "name")

			_, err := v.Validate(doc, src)
			Expect(errors.Is(err, schema.ErrValidation)).To(BeTrue())
			Expect(err).To(MatchError(ContainSubstring("'name'")))
		})

		It("rejects unknown families", func() {
			doc := sectorDoc()
			doc["family"] = "polygon"

			_, err := v.Validate(doc, src)
			Expect(err).To(MatchError(ContainSubstring(`no contract for family "polygon"`)))
		})

		It("rejects a spec missing a required field", func() {
			doc := sectorDoc()
			doc["spec"] = map[string]any{"area_id": "conus"}

			_, err := v.Validate(doc, src)
			Expect(errors.Is(err, schema.ErrValidation)).To(BeTrue())
			Expect(err).To(MatchError(ContainSubstring(`"projection"`)))
		})

		It("rejects a spec field of the wrong type", func() {
			doc := sectorDoc()
			doc["spec"] = map[string]any{
				"area_id":    42,
				"projection": map[string]any{"proj": "lcc"},
			}

			_, err := v.Validate(doc, src)
			Expect(err).To(MatchError(ContainSubstring("must be of type string")))
		})

		It("fills defaults for absent optional fields without mutating the input", func() {
			doc := map[string]any{
				"interface": "feature_annotators",
				"family":    "standard",
				"name":      "default_annotator",
				"spec": map[string]any{
					"coastline": map[string]any{"enabled": true},
					"borders":   map[string]any{"enabled": true},
				},
			}

			validated, err := v.Validate(doc, src)
			Expect(err).NotTo(HaveOccurred())

			specBlock := validated["spec"].(map[string]any)
			Expect(specBlock["rivers"]).To(Equal(map[string]any{"enabled": false}))
			Expect(specBlock["states"]).To(Equal(map[string]any{"enabled": false}))

			inputSpec := doc["spec"].(map[string]any)
			Expect(inputSpec).NotTo(HaveKey("rivers"))
		})

		It("requires source_name on composite non-list documents", func() {
			doc := map[string]any{
				"interface": "products",
				"family":    "unmodified",
				"name":      "Raw",
			}

			_, err := v.Validate(doc, src)
			Expect(err).To(MatchError(ContainSubstring("'source_name'")))
		})

		It("carries file provenance in every error", func() {
			doc := sectorDoc()
			delete(doc, "family")

			_, err := v.Validate(doc, src)
			Expect(err).To(MatchError(ContainSubstring(`package "sample_package"`)))
			Expect(err).To(MatchError(ContainSubstring("plugins/sectors/conus.yaml")))
		})
	})

	Describe("CheckComposition", func() {
		var products *iface.Spec

		BeforeEach(func() {
			spec, ok := iface.Builtin().Get(iface.Products)
			Expect(ok).To(BeTrue())
			products = spec
		})

		It("returns the defaults reference when present", func() {
			ref, err := v.CheckComposition(products, map[string]any{
				"name":             "Infrared",
				"product_defaults": "basic_infrared",
			}, src)

			Expect(err).NotTo(HaveOccurred())
			Expect(ref).To(Equal("basic_infrared"))
		})

		It("returns nothing when the family is declared directly", func() {
			ref, err := v.CheckComposition(products, map[string]any{
				"name":   "Visible",
				"family": "algorithm",
			}, src)

			Expect(err).NotTo(HaveOccurred())
			Expect(ref).To(BeEmpty())
		})

		It("rejects documents declaring both", func() {
			_, err := v.CheckComposition(products, map[string]any{
				"name":             "Infrared",
				"family":           "algorithm",
				"product_defaults": "basic_infrared",
			}, src)

			Expect(err).To(MatchError(ContainSubstring("mutually exclusive")))
		})

		It("rejects documents declaring neither", func() {
			_, err := v.CheckComposition(products, map[string]any{
				"name": "Infrared",
			}, src)

			Expect(err).To(MatchError(ContainSubstring("is required")))
		})
	})

	Describe("ValidateDescriptor", func() {
		var algorithms *iface.Spec

		BeforeEach(func() {
			spec, ok := iface.Builtin().Get(iface.Algorithms)
			Expect(ok).To(BeTrue())
			algorithms = spec
		})

		It("accepts a complete descriptor with a known family", func() {
			err := v.ValidateDescriptor(algorithms, plugin.Descriptor{
				Interface: "algorithms",
				Family:    "single_channel",
				Name:      "highlight",
				Entry:     func() {},
			}, src)

			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects an unknown family", func() {
			err := v.ValidateDescriptor(algorithms, plugin.Descriptor{
				Interface: "algorithms",
				Family:    "quadruple_channel",
				Name:      "highlight",
				Entry:     func() {},
			}, src)

			Expect(err).To(MatchError(ContainSubstring("quadruple_channel")))
		})

		It("rejects a nil entry", func() {
			err := v.ValidateDescriptor(algorithms, plugin.Descriptor{
				Interface: "algorithms",
				Family:    "single_channel",
				Name:      "highlight",
			}, src)

			Expect(err).To(MatchError(ContainSubstring("missing entry")))
		})
	})
})
