// Package resolver loads, validates, and caches plugins on demand.
//
// The resolver is the request-time half of the engine: the registry knows
// where every plugin lives, the resolver materializes one plugin at a time,
// validates it against its family contract, and keeps the validated object
// for the process lifetime.
package resolver

import (
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"

	"github.com/orbview-labs/geodex/internal/iface"
	"github.com/orbview-labs/geodex/internal/registry"
	"github.com/orbview-labs/geodex/internal/schema"
	"github.com/orbview-labs/geodex/pkg/logger"
	"github.com/orbview-labs/geodex/pkg/plugin"
)

// defaultFileCacheSize bounds the parsed-file LRU. One multi-product file
// serves many plugins; caching the parsed document avoids re-reading it for
// every sibling resolution.
const defaultFileCacheSize = 64

// Option configures a single resolution.
type Option func(*options)

type options struct {
	specOverride map[string]map[string]any
}

// WithSpecOverride supplies caller overrides applied after defaults
// resolution. The map is keyed by plugin name; the special "all" key
// applies to every plugin not named explicitly. Override values only fill
// fields the plugin itself did not set.
func WithSpecOverride(override map[string]map[string]any) Option {
	return func(o *options) {
		o.specOverride = override
	}
}

// Resolver resolves plugins through the registry, validating and caching
// them on first use.
type Resolver struct {
	reg       *registry.Registry
	ifaces    *iface.Set
	validator *schema.Validator
	log       logger.Logger

	// catalog indexes module descriptors: interface → name → descriptor.
	catalog map[string]map[string]plugin.Descriptor

	mu    sync.Mutex
	cache map[cacheKey]*plugin.Plugin
	files *lru.Cache[string, map[string]any]
}

type cacheKey struct {
	Interface string
	Key       plugin.Key
}

// New creates a Resolver over the given registry and packages. The
// packages supply the module descriptors that registry records reference.
func New(
	reg *registry.Registry,
	ifaces *iface.Set,
	validator *schema.Validator,
	packages []plugin.Package,
	log logger.Logger,
) (*Resolver, error) {
	files, err := lru.New[string, map[string]any](defaultFileCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "creating parsed-file cache")
	}

	catalog := make(map[string]map[string]plugin.Descriptor)

	for _, pkg := range packages {
		for _, d := range pkg.Descriptors {
			if !d.Complete() {
				continue
			}

			if catalog[d.Interface] == nil {
				catalog[d.Interface] = make(map[string]plugin.Descriptor)
			}

			catalog[d.Interface][d.Name] = d
		}
	}

	return &Resolver{
		reg:       reg,
		ifaces:    ifaces,
		validator: validator,
		log:       log,
		catalog:   catalog,
		cache:     make(map[cacheKey]*plugin.Plugin),
		files:     files,
	}, nil
}

// GetPlugin resolves one plugin by interface and key. The first resolution
// loads and validates the plugin; repeated calls return the cached object.
// With overrides, a new derived object is returned and the cached base is
// left untouched.
func (r *Resolver) GetPlugin(
	interfaceName string,
	key plugin.Key,
	opts ...Option,
) (*plugin.Plugin, error) {
	spec, ok := r.ifaces.Get(interfaceName)
	if !ok {
		return nil, errors.Wrapf(registry.ErrNotFound,
			"unknown interface %q", interfaceName,
		)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	base, err := r.base(spec, key)
	if err != nil {
		return nil, err
	}

	if o.specOverride == nil {
		return base, nil
	}

	return applyOverride(base, o.specOverride), nil
}

// GetPlugins resolves every plugin of an interface. Used by consumers that
// must search across all plugins of a kind.
func (r *Resolver) GetPlugins(interfaceName string) ([]*plugin.Plugin, error) {
	keys, err := r.reg.PluginNames(interfaceName)
	if err != nil {
		return nil, err
	}

	plugins := make([]*plugin.Plugin, 0, len(keys))

	for _, key := range keys {
		p, err := r.GetPlugin(interfaceName, key)
		if err != nil {
			return nil, err
		}

		plugins = append(plugins, p)
	}

	return plugins, nil
}

// SelectOutputChecker returns the first output checker that claims the
// given file.
func (r *Resolver) SelectOutputChecker(path string) (*plugin.Plugin, error) {
	checkers, err := r.GetPlugins(iface.OutputCheckers)
	if err != nil {
		return nil, err
	}

	for _, p := range checkers {
		checker, ok := p.Entry.(plugin.OutputChecker)
		if !ok {
			r.log.Debug("output checker entry has wrong contract type", "name", p.Name)

			continue
		}

		if checker.CorrectType(path) {
			return p, nil
		}
	}

	return nil, errors.Wrapf(registry.ErrNotFound,
		"no output checker claims file %q", path,
	)
}

// base returns the cached plugin for (spec, key), loading it on first use.
// The lock is not held across loads so that composable plugins can resolve
// their defaults plugin recursively.
func (r *Resolver) base(spec *iface.Spec, key plugin.Key) (*plugin.Plugin, error) {
	ck := cacheKey{Interface: spec.Name, Key: key}

	r.mu.Lock()
	if p, ok := r.cache[ck]; ok {
		r.mu.Unlock()

		return p, nil
	}
	r.mu.Unlock()

	p, err := r.load(spec, key)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another resolution may have raced us here; keep the first object so
	// repeated lookups stay pointer-identical.
	if existing, ok := r.cache[ck]; ok {
		return existing, nil
	}

	r.cache[ck] = p

	return p, nil
}

// load materializes one plugin according to its interface kind.
func (r *Resolver) load(spec *iface.Spec, key plugin.Key) (*plugin.Plugin, error) {
	entry, err := r.reg.GetPluginInfo(spec.Name, key)
	if err != nil {
		return nil, err
	}

	switch spec.Kind {
	case plugin.KindModule:
		return r.loadModule(spec, key, entry)
	case plugin.KindText:
		return r.loadText(spec, key, entry)
	default:
		return r.loadYAML(spec, key, entry)
	}
}

// loadModule binds a registered module descriptor to its loaded form.
func (r *Resolver) loadModule(
	spec *iface.Spec,
	key plugin.Key,
	entry registry.Entry,
) (*plugin.Plugin, error) {
	d, ok := r.catalog[spec.Name][key.Name]
	if !ok {
		return nil, errors.Wrapf(registry.ErrNotFound,
			"module plugin %q of interface %q has no registered descriptor; "+
				"is package %q configured?",
			key.Name, spec.Name, entry.Package,
		)
	}

	src := entry.Source()

	if err := r.validator.ValidateDescriptor(spec, d, src); err != nil {
		return nil, err
	}

	return &plugin.Plugin{
		Interface: spec.Name,
		Family:    d.Family,
		Name:      d.Name,
		Entry:     d.Entry,
		Source:    src,
	}, nil
}

// loadText reads a text-resource plugin's payload.
func (r *Resolver) loadText(
	spec *iface.Spec,
	key plugin.Key,
	entry registry.Entry,
) (*plugin.Plugin, error) {
	src := entry.Source()

	data, err := os.ReadFile(entry.Abspath) //nolint:gosec // path comes from the registry record
	if err != nil {
		return nil, errors.Wrapf(schema.ErrValidation,
			"reading text plugin %q of interface %q (package %q, file %q): %v",
			key.Name, spec.Name, src.Package, src.Relpath, err,
		)
	}

	if len(data) == 0 {
		return nil, errors.Wrapf(schema.ErrValidation,
			"text plugin %q of interface %q is empty (package %q, file %q)",
			key.Name, spec.Name, src.Package, src.Relpath,
		)
	}

	return &plugin.Plugin{
		Interface: spec.Name,
		Name:      key.Name,
		Text:      string(data),
		Source:    src,
	}, nil
}

// loadYAML materializes a declarative plugin: extract its document from the
// containing file, resolve a defaults reference if present, and validate
// against the family contract.
func (r *Resolver) loadYAML(
	spec *iface.Spec,
	key plugin.Key,
	entry registry.Entry,
) (*plugin.Plugin, error) {
	src := entry.Source()

	fileDoc, err := r.document(entry.Abspath, src)
	if err != nil {
		return nil, err
	}

	raw, err := extractDoc(spec, key, fileDoc, src)
	if err != nil {
		return nil, err
	}

	raw, err = r.resolveComposition(spec, raw, src)
	if err != nil {
		return nil, err
	}

	validated, err := r.validator.Validate(raw, src)
	if err != nil {
		return nil, err
	}

	family, _ := validated["family"].(string)
	specBlock, _ := validated["spec"].(map[string]any)

	return &plugin.Plugin{
		Interface:  spec.Name,
		Family:     family,
		Name:       key.Name,
		SourceName: key.SourceName,
		Doc:        validated,
		Spec:       specBlock,
		Source:     src,
	}, nil
}

// document returns the parsed top-level document of a plugin file, cached
// in the LRU. Cached documents are shared; callers must copy before
// mutating.
func (r *Resolver) document(abspath string, src plugin.Source) (map[string]any, error) {
	if doc, ok := r.files.Get(abspath); ok {
		return doc, nil
	}

	data, err := os.ReadFile(abspath) //nolint:gosec // path comes from the registry record
	if err != nil {
		return nil, errors.Wrapf(schema.ErrValidation,
			"reading plugin file (package %q, file %q): %v", src.Package, src.Relpath, err,
		)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(schema.ErrValidation,
			"parsing plugin file (package %q, file %q): %v", src.Package, src.Relpath, err,
		)
	}

	r.files.Add(abspath, doc)

	return doc, nil
}
