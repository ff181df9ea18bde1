package registry

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/orbview-labs/geodex/internal/iface"
	"github.com/orbview-labs/geodex/internal/scanner"
	"github.com/orbview-labs/geodex/pkg/logger"
	"github.com/orbview-labs/geodex/pkg/plugin"
)

var (
	// ErrUnknownInterface is returned when a YAML plugin declares an
	// interface no known Interface corresponds to. This indicates a
	// schema/package mismatch and aborts the package's rebuild.
	ErrUnknownInterface = errors.New("unknown plugin interface")

	// ErrKindMismatch is returned when a plugin is declared through the
	// wrong mechanism for its interface (e.g. a YAML file for a
	// module-based interface).
	ErrKindMismatch = errors.New("plugin kind mismatch")
)

// Builder converts one package's scanned plugins into a registry record.
type Builder struct {
	ifaces  *iface.Set
	scanner *scanner.Scanner
	log     logger.Logger
}

// NewBuilder creates a Builder for the given interface set.
func NewBuilder(ifaces *iface.Set, log logger.Logger) *Builder {
	return &Builder{
		ifaces:  ifaces,
		scanner: scanner.New(log),
		log:     log,
	}
}

// Build scans pkg and produces its registry record.
//
// Scan errors and unknown-interface errors abort the build; a malformed
// sub-plugin inside a list-family file is logged as a warning and skipped
// while the rest of the file still registers.
func (b *Builder) Build(pkg plugin.Package) (*Record, error) {
	result, err := b.scanner.Scan(pkg)
	if err != nil {
		return nil, err
	}

	rec := NewRecord(pkg)

	for _, yf := range result.YAML {
		if err := b.addYAML(rec, yf); err != nil {
			return nil, err
		}
	}

	for _, tf := range result.Text {
		b.addText(rec, tf)
	}

	for _, d := range result.Descriptors {
		b.addDescriptor(rec, pkg, d)
	}

	return rec, nil
}

// BuildAndWrite builds pkg's record and persists it into the package root.
func (b *Builder) BuildAndWrite(pkg plugin.Package, f Format) (string, error) {
	rec, err := b.Build(pkg)
	if err != nil {
		return "", err
	}

	return WriteRecord(rec, pkg.Root, f)
}

// addYAML registers one declarative plugin file, expanding list-family
// plugins into one entry per sub-plugin.
func (b *Builder) addYAML(rec *Record, yf scanner.YAMLFile) error {
	src := yf.Source

	interfaceName, ok := yf.Doc["interface"].(string)
	if !ok || interfaceName == "" {
		return errors.Wrapf(ErrUnknownInterface,
			"file %q in package %q declares no interface", src.Relpath, src.Package,
		)
	}

	spec, ok := b.ifaces.Get(interfaceName)
	if !ok {
		return errors.Wrapf(ErrUnknownInterface,
			"%q declared by %q in package %q", interfaceName, src.Relpath, src.Package,
		)
	}

	if spec.Kind != plugin.KindYAML {
		return errors.Wrapf(ErrKindMismatch,
			"interface %q is %s but %q in package %q declares it in YAML",
			interfaceName, spec.Kind, src.Relpath, src.Package,
		)
	}

	entry := Entry{Package: src.Package, Relpath: src.Relpath, Abspath: src.Abspath}

	family, _ := yf.Doc["family"].(string)
	if family == iface.FamilyList {
		return b.expandList(rec, spec, yf, entry)
	}

	name, ok := yf.Doc["name"].(string)
	if !ok || name == "" {
		return errors.Wrapf(scanner.ErrScan,
			"file %q in package %q declares no plugin name", src.Relpath, src.Package,
		)
	}

	keys, err := b.singleKeys(spec, yf.Doc, name)
	if err != nil {
		return errors.Wrapf(err, "file %q in package %q", src.Relpath, src.Package)
	}

	for _, key := range keys {
		rec.Add(spec.Kind, spec.Name, key, entry)
	}

	return nil
}

// singleKeys computes the registry keys for a non-list plugin document.
// Composite interfaces key each plugin by (source_name, name); the document
// supplies either one source_name or a source_names list.
func (*Builder) singleKeys(
	spec *iface.Spec,
	doc map[string]any,
	name string,
) ([]plugin.Key, error) {
	if !spec.Composite {
		return []plugin.Key{plugin.NewKey(name)}, nil
	}

	if source, ok := doc["source_name"].(string); ok && source != "" {
		return []plugin.Key{plugin.NewSourceKey(source, name)}, nil
	}

	rawSources, ok := doc["source_names"].([]any)
	if !ok || len(rawSources) == 0 {
		return nil, errors.Wrapf(scanner.ErrScan,
			"plugin %q of composite interface %q declares no source names",
			name, spec.Name,
		)
	}

	keys := make([]plugin.Key, 0, len(rawSources))

	for _, raw := range rawSources {
		source, ok := raw.(string)
		if !ok || source == "" {
			return nil, errors.Wrapf(scanner.ErrScan,
				"plugin %q of composite interface %q has a non-string source name",
				name, spec.Name,
			)
		}

		keys = append(keys, plugin.NewSourceKey(source, name))
	}

	return keys, nil
}

// expandList registers one entry per sub-plugin of a list-family file.
// Malformed sub-plugins are skipped with a warning; the rest of the file
// still registers.
func (b *Builder) expandList(
	rec *Record,
	spec *iface.Spec,
	yf scanner.YAMLFile,
	entry Entry,
) error {
	src := yf.Source

	specBlock, ok := yf.Doc["spec"].(map[string]any)
	if !ok {
		return errors.Wrapf(scanner.ErrScan,
			"list plugin %q in package %q has no spec block", src.Relpath, src.Package,
		)
	}

	members, ok := specBlock[spec.ListMember].([]any)
	if !ok {
		return errors.Wrapf(scanner.ErrScan,
			"list plugin %q in package %q has no %q list",
			src.Relpath, src.Package, spec.ListMember,
		)
	}

	for _, member := range members {
		sub, ok := member.(map[string]any)
		if !ok {
			b.log.Warn("skipping non-mapping sub-plugin",
				"package", src.Package,
				"file", src.Relpath,
			)

			continue
		}

		keys, err := spec.DeriveNames(sub)
		if err != nil {
			b.log.Warn("skipping malformed sub-plugin",
				"package", src.Package,
				"file", src.Relpath,
				"error", err,
			)

			continue
		}

		for _, key := range keys {
			rec.Add(spec.Kind, spec.Name, key, entry)
		}
	}

	return nil
}

// addText registers a text-resource plugin. The owning interface is the
// path segment of the file that names a known text interface; files outside
// any text interface directory are not plugins and are skipped.
func (b *Builder) addText(rec *Record, tf scanner.TextFile) {
	src := tf.Source

	for _, segment := range strings.Split(filepath.ToSlash(src.Relpath), "/") {
		spec, ok := b.ifaces.Get(segment)
		if !ok || spec.Kind != plugin.KindText {
			continue
		}

		rec.Add(plugin.KindText, spec.Name, plugin.NewKey(tf.Name), Entry{
			Package: src.Package,
			Relpath: src.Relpath,
			Abspath: src.Abspath,
		})

		return
	}

	b.log.Debug("text file outside any text interface directory",
		"package", src.Package,
		"file", src.Relpath,
	)
}

// addDescriptor registers a module plugin. A descriptor naming an unknown
// or non-module interface is not an interface plugin and is skipped with a
// debug log, mirroring the treatment of stray files during scans.
func (b *Builder) addDescriptor(rec *Record, pkg plugin.Package, d plugin.Descriptor) {
	spec, ok := b.ifaces.Get(d.Interface)
	if !ok || spec.Kind != plugin.KindModule {
		b.log.Debug("skipping descriptor for unknown module interface",
			"package", pkg.Name,
			"interface", d.Interface,
			"name", d.Name,
		)

		return
	}

	abspath := ""
	if d.Relpath != "" {
		abspath = filepath.Join(pkg.Root, d.Relpath)
	}

	rec.Add(plugin.KindModule, spec.Name, plugin.NewKey(d.Name), Entry{
		Package: pkg.Name,
		Relpath: d.Relpath,
		Abspath: abspath,
	})
}
