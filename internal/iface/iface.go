// Package iface defines the plugin interfaces known to the framework and
// how plugin identity is computed for each of them.
package iface

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/orbview-labs/geodex/pkg/plugin"
)

// FamilyList is the special family of plugins that contain a list of
// sub-plugins. A list plugin expands into one registry entry per sub-plugin.
const FamilyList = "list"

// ErrDuplicateInterface is returned when an interface name is declared twice.
var ErrDuplicateInterface = errors.New("duplicate interface name")

// Spec declares one plugin interface: its kind, how identity is computed,
// and whether plugins may compose with a defaults interface.
type Spec struct {
	// Name is the interface name (e.g. "algorithms", "products").
	Name string

	// Kind is the plugin kind every plugin of this interface belongs to.
	Kind plugin.Kind

	// Composite marks interfaces whose plugins are keyed by
	// (source_name, name) instead of name alone.
	Composite bool

	// DefaultsInterface names the interface supplying default field values
	// for composable plugins. Empty for non-composable interfaces.
	DefaultsInterface string

	// ListMember is the key inside a list plugin's spec block holding the
	// sub-plugin list. Empty for interfaces without a list family.
	ListMember string
}

// Composable reports whether plugins of this interface may substitute a
// defaults reference for their family.
func (s *Spec) Composable() bool {
	return s.DefaultsInterface != ""
}

// DeriveNames computes the registry keys for one sub-plugin entry of a
// list-family plugin. A sub-plugin missing a required key is malformed and
// yields an error; the caller skips it and registers the remaining entries.
func (s *Spec) DeriveNames(sub map[string]any) ([]plugin.Key, error) {
	name, ok := sub["name"].(string)
	if !ok || name == "" {
		return nil, errors.Errorf(
			"sub-plugin of interface %q missing required key 'name'", s.Name,
		)
	}

	if !s.Composite {
		return []plugin.Key{plugin.NewKey(name)}, nil
	}

	rawSources, ok := sub["source_names"].([]any)
	if !ok || len(rawSources) == 0 {
		return nil, errors.Errorf(
			"sub-plugin %q of interface %q missing required key 'source_names'",
			name, s.Name,
		)
	}

	keys := make([]plugin.Key, 0, len(rawSources))

	for _, raw := range rawSources {
		source, ok := raw.(string)
		if !ok || source == "" {
			return nil, errors.Errorf(
				"sub-plugin %q of interface %q has a non-string source name",
				name, s.Name,
			)
		}

		keys = append(keys, plugin.NewSourceKey(source, name))
	}

	return keys, nil
}

// Set is a lookup table of interface specs. It is constructed once at
// process start and passed to every component that needs it.
type Set struct {
	byName map[string]*Spec
}

// NewSet builds a Set from the given specs.
func NewSet(specs ...*Spec) (*Set, error) {
	byName := make(map[string]*Spec, len(specs))

	for _, spec := range specs {
		if _, exists := byName[spec.Name]; exists {
			return nil, errors.Wrapf(ErrDuplicateInterface, "%s", spec.Name)
		}

		byName[spec.Name] = spec
	}

	return &Set{byName: byName}, nil
}

// Get returns the spec for the named interface.
func (s *Set) Get(name string) (*Spec, bool) {
	spec, ok := s.byName[name]

	return spec, ok
}

// Names returns every interface name in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.byName))

	for name := range s.byName {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ByKind returns the specs of every interface of the given kind, sorted by
// name.
func (s *Set) ByKind(kind plugin.Kind) []*Spec {
	var specs []*Spec

	for _, name := range s.Names() {
		if s.byName[name].Kind == kind {
			specs = append(specs, s.byName[name])
		}
	}

	return specs
}
