// Package plugin provides the public API for geodex plugin package authors.
//
// A plugin package is an installed, independently distributable unit that
// contributes plugins to the processing framework. It consists of a directory
// tree of declarative (YAML) and text-resource plugin files under
// `<root>/plugins/`, plus zero or more module plugins declared as Descriptor
// values and handed to the host at construction time.
//
// Example module plugin:
//
//	package mypkg
//
//	import "github.com/orbview-labs/geodex/pkg/plugin"
//
//	func singleChannel(data []float64) []float64 { ... }
//
//	var SingleChannel = plugin.Descriptor{
//		Interface: "algorithms",
//		Family:    "single_channel",
//		Name:      "single_channel",
//		Relpath:   "plugins/modules/algorithms/single_channel.go",
//		Entry:     singleChannel,
//	}
package plugin

import "strings"

// Kind classifies plugins by how their content is expressed.
type Kind string

const (
	// KindYAML identifies declarative plugins authored as YAML files.
	KindYAML Kind = "yaml_based"

	// KindModule identifies code plugins declared through Descriptor values.
	KindModule Kind = "module_based"

	// KindText identifies plain-text resource plugins (e.g. ascii palettes).
	KindText Kind = "text_based"
)

// Kinds returns every plugin kind in a stable order.
// Every persisted registry record carries all of these as top-level keys.
func Kinds() []Kind {
	return []Kind{KindYAML, KindModule, KindText}
}

// Valid reports whether k is one of the three known plugin kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindYAML, KindModule, KindText:
		return true
	default:
		return false
	}
}

// Descriptor declares the identity of a module plugin.
//
// Module plugins declare themselves through a Descriptor instead of being
// discovered by import-time introspection. Interface and Name are required;
// a descriptor missing either is not a plugin and is skipped during scans.
type Descriptor struct {
	// Interface is the plugin interface this descriptor belongs to
	// (e.g. "algorithms", "readers").
	Interface string

	// Family is the taxonomic sub-kind within the interface.
	Family string

	// Name is the plugin name, unique within the interface.
	Name string

	// Relpath is the path of the declaring source file relative to the
	// package root. Used for provenance only.
	Relpath string

	// Entry is the callable behavior of the plugin. Consumers assert it
	// to the contract type of the owning interface.
	Entry any
}

// Complete reports whether the descriptor declares the required identity
// fields.
func (d Descriptor) Complete() bool {
	return d.Interface != "" && d.Name != ""
}

// Package describes one installed plugin package.
type Package struct {
	// Name is the unique package name.
	Name string

	// Root is the absolute path to the package directory. Plugin files
	// live under Root/plugins; the persisted registry record is written
	// next to them.
	Root string

	// APIVersion is the plugin API version the package was built against
	// (semver). Empty means "any".
	APIVersion string

	// Descriptors are the module plugins contributed by the package.
	Descriptors []Descriptor
}

// Source records the provenance of a plugin: the owning package and where
// inside it the plugin was found. Validation errors carry a Source so the
// operator can locate the broken file.
type Source struct {
	// Package is the owning package name.
	Package string `yaml:"package" json:"package"`

	// Relpath is the plugin file path relative to the package root.
	Relpath string `yaml:"relpath" json:"relpath"`

	// Abspath is the absolute plugin file path.
	Abspath string `yaml:"abspath" json:"abspath"`
}

// Key identifies a plugin within an interface. Most interfaces key plugins
// by Name alone; composite interfaces (products) additionally key by the
// data source name.
type Key struct {
	// SourceName is the data source component of a composite key.
	// Empty for single-key interfaces.
	SourceName string

	// Name is the plugin name.
	Name string
}

// NewKey returns a single-part key.
func NewKey(name string) Key {
	return Key{Name: name}
}

// NewSourceKey returns a two-part (source_name, name) key.
func NewSourceKey(sourceName, name string) Key {
	return Key{SourceName: sourceName, Name: name}
}

// Composite reports whether the key carries a source name component.
func (k Key) Composite() bool {
	return k.SourceName != ""
}

// String renders the key as "name" or "source_name:name".
func (k Key) String() string {
	if k.SourceName == "" {
		return k.Name
	}

	return k.SourceName + ":" + k.Name
}

// ParseKey parses "name" or "source_name:name" back into a Key.
func ParseKey(s string) Key {
	if source, name, ok := strings.Cut(s, ":"); ok {
		return Key{SourceName: source, Name: name}
	}

	return Key{Name: s}
}
