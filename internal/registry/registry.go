package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"

	"github.com/orbview-labs/geodex/pkg/logger"
	"github.com/orbview-labs/geodex/pkg/plugin"
)

// CurrentAPIVersion is the plugin API version of this engine. Package
// records built against a different major version are rejected at load
// time.
const CurrentAPIVersion = "1.0.0"

var (
	// ErrMissingRegistry is returned when a configured package has no
	// persisted record on disk. Stale or missing metadata is never treated
	// as "no plugins"; the operator must rebuild.
	ErrMissingRegistry = errors.New("plugin registry record not found")

	// ErrNotFound is returned when a requested (interface, name) does not
	// exist in the merged registry.
	ErrNotFound = errors.New("plugin not found")

	// ErrIncompatibleAPI is returned when a package record was built
	// against an incompatible plugin API major version.
	ErrIncompatibleAPI = errors.New("incompatible plugin API version")
)

// Registry is the process-wide merged view of every configured package's
// persisted record. Records are loaded and merged once on first access;
// every query afterwards is an in-memory lookup that never loads plugin
// content.
type Registry struct {
	packages []plugin.Package
	format   Format
	log      logger.Logger

	loadOnce sync.Once
	loadErr  error

	merged          map[plugin.Kind]KindIndex
	kindByInterface map[string]plugin.Kind
}

// New creates a Registry over the configured packages. Nothing is loaded
// until the first query or an explicit EnsureLoaded call.
func New(packages []plugin.Package, format Format, log logger.Logger) *Registry {
	return &Registry{
		packages: packages,
		format:   format,
		log:      log,
	}
}

// EnsureLoaded loads and merges every package's persisted record. Safe to
// call from multiple goroutines; the load happens exactly once per process.
func (r *Registry) EnsureLoaded() error {
	r.loadOnce.Do(func() {
		r.loadErr = r.load()
	})

	return r.loadErr
}

// load reads every configured package's record and merges them in
// configuration order.
func (r *Registry) load() error {
	r.merged = make(map[plugin.Kind]KindIndex, len(plugin.Kinds()))
	r.kindByInterface = make(map[string]plugin.Kind)

	for _, kind := range plugin.Kinds() {
		r.merged[kind] = make(KindIndex)
	}

	hostVersion := semver.MustParse(CurrentAPIVersion)

	for _, pkg := range r.packages {
		path := RecordPath(pkg.Root, r.format)

		rec, err := ReadRecord(path)
		if err != nil {
			return errors.Wrapf(ErrMissingRegistry,
				"package %q has no registry record at %s; run 'geodex build' (%v)",
				pkg.Name, path, err,
			)
		}

		if err := rec.EnsureKinds(); err != nil {
			return err
		}

		if err := checkAPIVersion(rec, hostVersion); err != nil {
			return err
		}

		r.merge(rec)

		r.log.Debug("merged registry record", "package", pkg.Name, "path", path)
	}

	return nil
}

// checkAPIVersion rejects records built against a different API major
// version. Records without a version are accepted.
func checkAPIVersion(rec *Record, host *semver.Version) error {
	if rec.APIVersion == "" {
		return nil
	}

	v, err := semver.NewVersion(rec.APIVersion)
	if err != nil {
		return errors.Wrapf(ErrMalformedRecord,
			"package %q declares invalid api_version %q", rec.Package, rec.APIVersion,
		)
	}

	constraint, err := semver.NewConstraint(fmt.Sprintf("^%d", host.Major()))
	if err != nil {
		return errors.Wrap(err, "building API version constraint")
	}

	if !constraint.Check(v) {
		return errors.Wrapf(ErrIncompatibleAPI,
			"package %q targets plugin API %s, host is %s",
			rec.Package, rec.APIVersion, CurrentAPIVersion,
		)
	}

	return nil
}

// merge folds one record into the merged view. An interface already present
// is deep-extended rather than overwritten; genuine key collisions are
// last-write-wins at the leaf level.
func (r *Registry) merge(rec *Record) {
	for kind, ki := range rec.Plugins {
		dst := r.merged[kind]
		if dst == nil {
			dst = make(KindIndex)
			r.merged[kind] = dst
		}

		for interfaceName, ix := range ki {
			if existing, ok := dst[interfaceName]; ok {
				existing.Extend(ix)
			} else {
				dst[interfaceName] = ix.Clone()
			}

			if _, ok := r.kindByInterface[interfaceName]; !ok {
				r.kindByInterface[interfaceName] = kind
			}
		}
	}
}

// IdentifyKind resolves which plugin kind owns the given interface name.
// An interface absent from every loaded package is a registry error, never
// a default.
func (r *Registry) IdentifyKind(interfaceName string) (plugin.Kind, error) {
	if err := r.EnsureLoaded(); err != nil {
		return "", err
	}

	kind, ok := r.kindByInterface[interfaceName]
	if !ok {
		return "", errors.Wrapf(ErrNotFound,
			"interface %q does not exist within any package registry", interfaceName,
		)
	}

	return kind, nil
}

// GetPluginInfo returns the location metadata for one plugin without
// loading its content.
func (r *Registry) GetPluginInfo(interfaceName string, key plugin.Key) (Entry, error) {
	kind, err := r.IdentifyKind(interfaceName)
	if err != nil {
		return Entry{}, err
	}

	ix, ok := r.merged[kind][interfaceName]
	if !ok {
		return Entry{}, errors.Wrapf(ErrNotFound, "interface %q", interfaceName)
	}

	e, ok := ix.Get(key)
	if !ok {
		return Entry{}, errors.Wrapf(ErrNotFound,
			"plugin %q of interface %q", key, interfaceName,
		)
	}

	return e, nil
}

// ListPlugins returns the full key → metadata mapping for an interface
// without loading any plugin content.
func (r *Registry) ListPlugins(interfaceName string) (map[plugin.Key]Entry, error) {
	kind, err := r.IdentifyKind(interfaceName)
	if err != nil {
		return nil, err
	}

	ix, ok := r.merged[kind][interfaceName]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "interface %q", interfaceName)
	}

	return ix.Flatten(), nil
}

// PluginNames returns the sorted keys of every plugin of an interface.
func (r *Registry) PluginNames(interfaceName string) ([]plugin.Key, error) {
	entries, err := r.ListPlugins(interfaceName)
	if err != nil {
		return nil, err
	}

	keys := make([]plugin.Key, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	return keys, nil
}

// Interfaces returns the sorted interface names known to the merged
// registry for the given kind.
func (r *Registry) Interfaces(kind plugin.Kind) ([]string, error) {
	if err := r.EnsureLoaded(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(r.merged[kind]))
	for name := range r.merged[kind] {
		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}
