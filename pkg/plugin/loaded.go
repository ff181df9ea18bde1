package plugin

// Plugin is a fully materialized, validated plugin.
//
// Instances are created lazily on first resolution and cached by the
// resolver for the process lifetime. A resolution with caller-supplied
// overrides produces a new derived Plugin; the cached base is never mutated.
type Plugin struct {
	// Interface is the owning interface name.
	Interface string

	// Family is the validated family. For composable plugins resolved
	// through a defaults reference, this is the family inherited from the
	// defaults plugin.
	Family string

	// Name is the plugin name.
	Name string

	// SourceName is set for plugins of composite-key interfaces.
	SourceName string

	// Doc is the full validated document of a YAML plugin, with schema
	// defaults filled in. Nil for module and text plugins.
	Doc map[string]any

	// Spec is the family-specific content block of a YAML plugin.
	Spec map[string]any

	// Entry is the callable behavior of a module plugin.
	Entry any

	// Text is the payload of a text-resource plugin.
	Text string

	// Source is the plugin's provenance.
	Source Source
}

// Key returns the identity key of the plugin within its interface.
func (p *Plugin) Key() Key {
	return Key{SourceName: p.SourceName, Name: p.Name}
}

// OutputChecker is the entry contract for the "output_checkers" interface.
// A checker claims ownership of an output file by recognizing its format.
type OutputChecker interface {
	// CorrectType reports whether the checker understands the file at path.
	CorrectType(path string) bool

	// Compare compares a produced output against a comparison product and
	// returns a human-readable list of differences (empty means identical).
	Compare(output, compare string) ([]string, error)
}
