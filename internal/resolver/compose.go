package resolver

import (
	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
	koanfmaps "github.com/knadh/koanf/maps"

	"github.com/orbview-labs/geodex/internal/iface"
	"github.com/orbview-labs/geodex/internal/schema"
	"github.com/orbview-labs/geodex/pkg/plugin"
)

// overrideAllKey applies an override to every plugin not named explicitly.
const overrideAllKey = "all"

// listMember is the decoded identity of one sub-plugin inside a
// list-family file.
type listMember struct {
	Name        string   `mapstructure:"name"`
	SourceNames []string `mapstructure:"source_names"`
}

// extractDoc produces the standalone document for (spec, key) out of the
// containing file's document. For list-family files this means locating the
// matching sub-plugin and synthesizing a per-plugin document; otherwise the
// file document itself is the plugin, narrowed to the requested source.
//
// The returned document is always a copy; the parsed file stays pristine in
// the resolver's cache.
func extractDoc(
	spec *iface.Spec,
	key plugin.Key,
	fileDoc map[string]any,
	src plugin.Source,
) (map[string]any, error) {
	family, _ := fileDoc["family"].(string)
	if family == iface.FamilyList {
		return extractListDoc(spec, key, fileDoc, src)
	}

	doc := koanfmaps.Copy(fileDoc)
	if spec.Composite {
		doc["source_name"] = key.SourceName
		delete(doc, "source_names")
	}

	return doc, nil
}

// extractListDoc finds the sub-plugin matching key inside a list-family
// file and synthesizes its standalone document.
func extractListDoc(
	spec *iface.Spec,
	key plugin.Key,
	fileDoc map[string]any,
	src plugin.Source,
) (map[string]any, error) {
	specBlock, _ := fileDoc["spec"].(map[string]any)

	members, _ := specBlock[spec.ListMember].([]any)

	for _, raw := range members {
		sub, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		var member listMember
		if err := mapstructure.Decode(sub, &member); err != nil {
			continue
		}

		if member.Name != key.Name || !memberHasSource(member, key) {
			continue
		}

		doc := koanfmaps.Copy(sub)
		doc["interface"] = spec.Name

		if spec.Composite {
			doc["source_name"] = key.SourceName
			delete(doc, "source_names")
		}

		return doc, nil
	}

	return nil, errors.Wrapf(schema.ErrValidation,
		"plugin %q not present in list file it was registered from "+
			"(package %q, file %q); rebuild the registry",
		key, src.Package, src.Relpath,
	)
}

// memberHasSource reports whether a list member covers the requested
// source name.
func memberHasSource(member listMember, key plugin.Key) bool {
	if !key.Composite() {
		return true
	}

	for _, source := range member.SourceNames {
		if source == key.SourceName {
			return true
		}
	}

	return false
}

// resolveComposition applies the defaults reference of a composable plugin.
//
// The composition rule is checked first: exactly one of 'family' or the
// defaults reference must be present. With a reference, the defaults plugin
// is resolved through the resolver (triggering its own validation), its
// family is carried over, and its field tree is merged underneath the
// specific plugin's own fields: every field the plugin set wins, every
// absent field is filled from the defaults.
func (r *Resolver) resolveComposition(
	spec *iface.Spec,
	doc map[string]any,
	src plugin.Source,
) (map[string]any, error) {
	ref, err := r.validator.CheckComposition(spec, doc, src)
	if err != nil {
		return nil, err
	}

	if ref == "" {
		return doc, nil
	}

	def, err := r.GetPlugin(spec.DefaultsInterface, plugin.NewKey(ref))
	if err != nil {
		return nil, errors.Wrapf(err,
			"resolving %s %q for plugin %v (package %q, file %q)",
			spec.DefaultsInterface, ref, doc["name"], src.Package, src.Relpath,
		)
	}

	specific := koanfmaps.Copy(doc)
	delete(specific, spec.DefaultsInterface)

	// The defaults document supplies 'family' and fills every field the
	// specific plugin left unset. Identity fields stay the plugin's own.
	merged := koanfmaps.Copy(def.Doc)
	delete(merged, "interface")
	delete(merged, "name")
	delete(merged, "source_name")

	koanfmaps.Merge(specific, merged)

	return merged, nil
}

// applyOverride derives a new plugin with caller overrides merged
// underneath its spec block. The cached base is never mutated.
func applyOverride(base *plugin.Plugin, override map[string]map[string]any) *plugin.Plugin {
	args, ok := override[base.Name]
	if !ok {
		args, ok = override[overrideAllKey]
	}

	if !ok || len(args) == 0 {
		return base
	}

	specific := koanfmaps.Copy(base.Doc)

	specBlock, _ := specific["spec"].(map[string]any)
	if specBlock == nil {
		specBlock = make(map[string]any)
	}

	// Override values only fill gaps: fields the plugin set itself win.
	merged := koanfmaps.Copy(args)
	koanfmaps.Merge(specBlock, merged)

	specific["spec"] = merged

	derived := *base
	derived.Doc = specific
	derived.Spec = merged

	return &derived
}
