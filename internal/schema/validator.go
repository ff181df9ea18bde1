package schema

import (
	koanfmaps "github.com/knadh/koanf/maps"

	"github.com/orbview-labs/geodex/internal/iface"
	"github.com/orbview-labs/geodex/pkg/logger"
	"github.com/orbview-labs/geodex/pkg/plugin"
)

// Validator validates raw plugin documents and module descriptors against
// the family contracts registered for each interface.
//
// Contracts are held in a lookup table keyed by (interface, family); there
// is no name-based dispatch.
type Validator struct {
	ifaces   *iface.Set
	families map[familyKey]*FamilySchema
	log      logger.Logger
}

type familyKey struct {
	Interface string
	Family    string
}

// NewValidator creates a Validator with the builtin family contracts for
// the given interface set.
func NewValidator(ifaces *iface.Set, log logger.Logger) *Validator {
	v := &Validator{
		ifaces:   ifaces,
		families: make(map[familyKey]*FamilySchema),
		log:      log,
	}

	for _, fs := range builtinFamilies() {
		v.Register(fs)
	}

	return v
}

// Register adds (or replaces) a family contract.
func (v *Validator) Register(fs *FamilySchema) {
	v.families[familyKey{Interface: fs.Interface, Family: fs.Family}] = fs
}

// KnownFamily reports whether a contract exists for (interfaceName, family).
func (v *Validator) KnownFamily(interfaceName, family string) bool {
	_, ok := v.families[familyKey{Interface: interfaceName, Family: family}]

	return ok
}

// CheckComposition enforces the composition rule for composable interfaces:
// exactly one of 'family' or the defaults reference must be present. It
// returns the referenced defaults plugin name, or "" when the plugin
// declares its family directly. Non-composable interfaces always return "".
func (v *Validator) CheckComposition(
	spec *iface.Spec,
	doc map[string]any,
	src plugin.Source,
) (string, error) {
	if !spec.Composable() {
		return "", nil
	}

	_, hasFamily := doc["family"]
	ref, hasDefaults := doc[spec.DefaultsInterface]

	switch {
	case hasFamily && hasDefaults:
		return "", validationErrorf(src,
			"plugin %v: properties 'family' and %q are mutually exclusive",
			doc["name"], spec.DefaultsInterface,
		)
	case !hasFamily && !hasDefaults:
		return "", validationErrorf(src,
			"plugin %v: one of 'family' or %q is required",
			doc["name"], spec.DefaultsInterface,
		)
	case hasDefaults:
		name, ok := ref.(string)
		if !ok || name == "" {
			return "", validationErrorf(src,
				"plugin %v: %q must be a non-empty plugin name",
				doc["name"], spec.DefaultsInterface,
			)
		}

		return name, nil
	default:
		return "", nil
	}
}

// Validate checks a raw YAML plugin document against the contract for its
// declared family and returns a validated copy with schema defaults filled
// in. The input document is never mutated.
//
// Composable plugins must have their defaults resolved (family present)
// before calling Validate; use CheckComposition first.
func (v *Validator) Validate(
	doc map[string]any,
	src plugin.Source,
) (map[string]any, error) {
	interfaceName, ok := doc["interface"].(string)
	if !ok || interfaceName == "" {
		return nil, validationErrorf(src, "missing required field 'interface'")
	}

	spec, ok := v.ifaces.Get(interfaceName)
	if !ok {
		return nil, validationErrorf(src, "unknown interface %q", interfaceName)
	}

	name, ok := doc["name"].(string)
	if !ok || name == "" {
		return nil, validationErrorf(src, "missing required field 'name'")
	}

	family, ok := doc["family"].(string)
	if !ok || family == "" {
		return nil, validationErrorf(src,
			"plugin %q: missing required field 'family'", name,
		)
	}

	if spec.Composite && family != iface.FamilyList {
		if sourceName, ok := doc["source_name"].(string); !ok || sourceName == "" {
			return nil, validationErrorf(src,
				"plugin %q: missing required field 'source_name'", name,
			)
		}
	}

	fs, ok := v.families[familyKey{Interface: interfaceName, Family: family}]
	if !ok {
		return nil, validationErrorf(src,
			"plugin %q: no contract for family %q of interface %q",
			name, family, interfaceName,
		)
	}

	validated := koanfmaps.Copy(doc)

	if err := v.validateSpec(fs, validated, name, src); err != nil {
		return nil, err
	}

	return validated, nil
}

// validateSpec checks the spec block fields in place on the (copied)
// document, filling defaults for absent optional fields.
func (v *Validator) validateSpec(
	fs *FamilySchema,
	doc map[string]any,
	name string,
	src plugin.Source,
) error {
	if len(fs.Spec) == 0 {
		return nil
	}

	specBlock, ok := doc["spec"].(map[string]any)
	if !ok {
		if _, present := doc["spec"]; present {
			return validationErrorf(src,
				"plugin %q: 'spec' must be a mapping", name,
			)
		}

		specBlock = make(map[string]any)
		doc["spec"] = specBlock
	}

	for _, field := range fs.Spec {
		value, present := specBlock[field.Name]
		if !present {
			if field.Required {
				return validationErrorf(src,
					"plugin %q: spec missing required field %q (family %q)",
					name, field.Name, fs.Family,
				)
			}

			if field.Default != nil {
				specBlock[field.Name] = defaultValue(field.Default)
			}

			continue
		}

		if !checkType(value, field.Type) {
			return validationErrorf(src,
				"plugin %q: spec field %q must be of type %s",
				name, field.Name, field.Type,
			)
		}
	}

	return nil
}

// ValidateDescriptor checks a module plugin descriptor against its
// interface's registered families.
func (v *Validator) ValidateDescriptor(
	spec *iface.Spec,
	d plugin.Descriptor,
	src plugin.Source,
) error {
	if d.Family == "" {
		return validationErrorf(src,
			"module plugin %q: missing family", d.Name,
		)
	}

	if !v.KnownFamily(spec.Name, d.Family) {
		return validationErrorf(src,
			"module plugin %q: no contract for family %q of interface %q",
			d.Name, d.Family, spec.Name,
		)
	}

	if d.Entry == nil {
		return validationErrorf(src,
			"module plugin %q: missing entry", d.Name,
		)
	}

	return nil
}

// defaultValue deep-copies mapping defaults so plugins never share schema
// state.
func defaultValue(v any) any {
	if m, ok := v.(map[string]any); ok {
		return koanfmaps.Copy(m)
	}

	return v
}
