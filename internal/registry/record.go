// Package registry builds, persists, and merges plugin registry records.
//
// Each installed plugin package gets one persisted record file mapping
// plugin kind → interface → plugin name → location metadata. At runtime the
// records of every configured package are merged into a single process-wide
// structure that answers registry-only queries without loading any plugin
// content.
package registry

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/orbview-labs/geodex/pkg/plugin"
)

// ErrMalformedRecord is returned when a persisted record violates the
// record invariants (missing kind keys, unparsable content).
var ErrMalformedRecord = errors.New("malformed registry record")

// Format selects the serialization of persisted records.
type Format string

const (
	// FormatYAML persists records as YAML. Human-readable; used for test
	// fixtures and debugging.
	FormatYAML Format = "yaml"

	// FormatBinary persists records as gob. Faster to load; the production
	// default.
	FormatBinary Format = "binary"
)

// Valid reports whether f is a known record format.
func (f Format) Valid() bool {
	return f == FormatYAML || f == FormatBinary
}

// ParseFormat maps a configured format name to a Format. Empty selects the
// YAML default.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatYAML, nil
	}

	f := Format(s)
	if !f.Valid() {
		return "", errors.Newf("unknown registry format %q", s)
	}

	return f, nil
}

const (
	yamlRecordFile   = "registered_plugins.yaml"
	binaryRecordFile = "registered_plugins.gob"

	recordFileMode = 0o644
)

// Entry locates one plugin inside its owning package.
type Entry struct {
	// Package is the owning package name.
	Package string `yaml:"package"`

	// Relpath is the plugin file path relative to the package root.
	Relpath string `yaml:"relpath"`

	// Abspath is the absolute plugin file path.
	Abspath string `yaml:"abspath"`
}

// Source converts the entry back into a provenance record.
func (e Entry) Source() plugin.Source {
	return plugin.Source{
		Package: e.Package,
		Relpath: e.Relpath,
		Abspath: e.Abspath,
	}
}

// InterfaceIndex holds every registered plugin of one interface.
//
// Single-key interfaces use Plugins (name → entry); composite-key
// interfaces use Sources (source_name → name → entry). The two shapes are
// kept explicit so that decoding a persisted record never has to guess.
type InterfaceIndex struct {
	Plugins map[string]Entry            `yaml:"plugins,omitempty"`
	Sources map[string]map[string]Entry `yaml:"sources,omitempty"`
}

// Add registers an entry under the given key.
func (ix *InterfaceIndex) Add(key plugin.Key, e Entry) {
	if key.Composite() {
		if ix.Sources == nil {
			ix.Sources = make(map[string]map[string]Entry)
		}

		if ix.Sources[key.SourceName] == nil {
			ix.Sources[key.SourceName] = make(map[string]Entry)
		}

		ix.Sources[key.SourceName][key.Name] = e

		return
	}

	if ix.Plugins == nil {
		ix.Plugins = make(map[string]Entry)
	}

	ix.Plugins[key.Name] = e
}

// Get looks up an entry by key.
func (ix *InterfaceIndex) Get(key plugin.Key) (Entry, bool) {
	if key.Composite() {
		byName, ok := ix.Sources[key.SourceName]
		if !ok {
			return Entry{}, false
		}

		e, ok := byName[key.Name]

		return e, ok
	}

	e, ok := ix.Plugins[key.Name]

	return e, ok
}

// Flatten returns every registered entry keyed by plugin key.
func (ix *InterfaceIndex) Flatten() map[plugin.Key]Entry {
	out := make(map[plugin.Key]Entry, len(ix.Plugins))

	for name, e := range ix.Plugins {
		out[plugin.NewKey(name)] = e
	}

	for source, byName := range ix.Sources {
		for name, e := range byName {
			out[plugin.NewSourceKey(source, name)] = e
		}
	}

	return out
}

// Clone returns a deep copy of the index.
func (ix *InterfaceIndex) Clone() *InterfaceIndex {
	clone := &InterfaceIndex{}

	for name, e := range ix.Plugins {
		clone.Add(plugin.NewKey(name), e)
	}

	for source, byName := range ix.Sources {
		for name, e := range byName {
			clone.Add(plugin.NewSourceKey(source, name), e)
		}
	}

	return clone
}

// Extend merges src into the index. Later packages extend earlier ones;
// genuine key collisions are last-write-wins at the leaf level.
func (ix *InterfaceIndex) Extend(src *InterfaceIndex) {
	for name, e := range src.Plugins {
		ix.Add(plugin.NewKey(name), e)
	}

	for source, byName := range src.Sources {
		for name, e := range byName {
			ix.Add(plugin.NewSourceKey(source, name), e)
		}
	}
}

// KindIndex maps interface name → interface index for one plugin kind.
type KindIndex map[string]*InterfaceIndex

// Record is the persisted, package-scoped index of plugin locations.
type Record struct {
	// Package is the owning package name.
	Package string `yaml:"package"`

	// APIVersion is the plugin API version the package targets.
	APIVersion string `yaml:"api_version,omitempty"`

	// Plugins maps kind → interface → plugins. Every plugin kind is
	// present in every record, even when empty, so merge logic can assume
	// structural completeness.
	Plugins map[plugin.Kind]KindIndex `yaml:"plugins"`
}

// NewRecord creates an empty record for pkg with all kind keys present.
func NewRecord(pkg plugin.Package) *Record {
	kinds := make(map[plugin.Kind]KindIndex, len(plugin.Kinds()))

	for _, kind := range plugin.Kinds() {
		kinds[kind] = make(KindIndex)
	}

	return &Record{
		Package:    pkg.Name,
		APIVersion: pkg.APIVersion,
		Plugins:    kinds,
	}
}

// Add registers an entry for (kind, interfaceName, key).
func (r *Record) Add(kind plugin.Kind, interfaceName string, key plugin.Key, e Entry) {
	ki := r.Plugins[kind]
	if ki == nil {
		ki = make(KindIndex)
		r.Plugins[kind] = ki
	}

	ix := ki[interfaceName]
	if ix == nil {
		ix = &InterfaceIndex{}
		ki[interfaceName] = ix
	}

	ix.Add(key, e)
}

// EnsureKinds verifies that every plugin kind key exists in the record.
func (r *Record) EnsureKinds() error {
	for _, kind := range plugin.Kinds() {
		if _, ok := r.Plugins[kind]; !ok {
			return errors.Wrapf(ErrMalformedRecord,
				"record for package %q is missing plugin kind %q", r.Package, kind,
			)
		}
	}

	return nil
}

// RecordPath returns the record file path inside a package root for the
// given format.
func RecordPath(root string, f Format) string {
	if f == FormatBinary {
		return filepath.Join(root, binaryRecordFile)
	}

	return filepath.Join(root, yamlRecordFile)
}

// EncodeRecord serializes a record in the given format. YAML output is
// deterministic (sorted keys), which keeps rebuilds byte-identical when the
// sources have not changed.
func EncodeRecord(rec *Record, f Format) ([]byte, error) {
	if f == FormatBinary {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
			return nil, errors.Wrap(err, "gob-encoding registry record")
		}

		return buf.Bytes(), nil
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return nil, errors.Wrap(err, "yaml-encoding registry record")
	}

	return data, nil
}

// WriteRecord persists a record into the package root and returns the path
// written.
func WriteRecord(rec *Record, root string, f Format) (string, error) {
	data, err := EncodeRecord(rec, f)
	if err != nil {
		return "", err
	}

	path := RecordPath(root, f)
	if err := os.WriteFile(path, data, recordFileMode); err != nil {
		return "", errors.Wrapf(err, "writing registry record %s", path)
	}

	return path, nil
}

// ReadRecord loads a persisted record, detecting the format from the file
// extension.
func ReadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path) //nolint:gosec // record paths come from configured package roots
	if err != nil {
		return nil, errors.Wrapf(err, "reading registry record %s", path)
	}

	rec := &Record{}

	if filepath.Ext(path) == ".gob" {
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(rec); err != nil {
			return nil, errors.Wrapf(ErrMalformedRecord, "decoding %s: %v", path, err)
		}
	} else if err := yaml.Unmarshal(data, rec); err != nil {
		return nil, errors.Wrapf(ErrMalformedRecord, "decoding %s: %v", path, err)
	}

	return rec, nil
}
