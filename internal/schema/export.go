package schema

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
)

const (
	schemaURI = "https://json-schema.org/draft/2020-12/schema"
	title     = "geodex plugin file"
)

// PluginFile documents the top-level contract of a declarative plugin file.
// It exists for JSON Schema generation; validation itself runs on the raw
// document (see Validator).
type PluginFile struct {
	// Interface is the plugin interface name.
	Interface string `json:"interface" jsonschema:"required"`

	// Family is the taxonomic sub-kind within the interface. Composable
	// plugins may reference a defaults plugin instead.
	Family string `json:"family,omitempty"`

	// Name is the plugin name, unique within the interface.
	Name string `json:"name" jsonschema:"required"`

	// Docstring is a human-readable description of the plugin.
	Docstring string `json:"docstring,omitempty"`

	// ProductDefaults names a defaults plugin to inherit fields from.
	// Mutually exclusive with Family.
	ProductDefaults string `json:"product_defaults,omitempty"`

	// Spec holds the family-specific content of the plugin.
	Spec map[string]any `json:"spec,omitempty"`
}

// Generate produces a JSON Schema for the declarative plugin file format.
func Generate() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
	}

	s := r.Reflect(&PluginFile{})
	s.Version = schemaURI
	s.Title = title

	return s
}

// GenerateJSON produces the JSON Schema as bytes.
// When indent is true, the output is pretty-printed.
func GenerateJSON(indent bool) ([]byte, error) {
	s := Generate()

	var (
		data []byte
		err  error
	)

	if indent {
		data, err = json.MarshalIndent(s, "", "  ")
	} else {
		data, err = json.Marshal(s)
	}

	if err != nil {
		return nil, errors.Wrap(err, "marshaling schema to JSON")
	}

	// Append trailing newline for file output.
	return append(data, '\n'), nil
}
