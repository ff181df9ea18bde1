// Package scanner discovers plugin files inside an installed plugin
// package's directory tree.
package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/orbview-labs/geodex/pkg/logger"
	"github.com/orbview-labs/geodex/pkg/plugin"
)

// PluginDir is the conventional subdirectory holding a package's plugins.
const PluginDir = "plugins"

// ErrScan is the sentinel for unrecoverable scan failures. A declarative
// file that cannot be parsed is a hard error for the whole scan; malformed
// declarative data must not be silently dropped.
var ErrScan = errors.New("plugin scan failed")

// YAMLFile is one parsed declarative plugin file.
type YAMLFile struct {
	// Doc is the parsed top-level document.
	Doc map[string]any

	// Source is the file's provenance.
	Source plugin.Source
}

// TextFile is one text-resource plugin file.
type TextFile struct {
	// Name is the plugin name, derived from the file name stem.
	Name string

	// Source is the file's provenance.
	Source plugin.Source
}

// Result holds everything discovered in one package.
type Result struct {
	YAML        []YAMLFile
	Text        []TextFile
	Descriptors []plugin.Descriptor
}

// Scanner walks plugin package trees.
type Scanner struct {
	log logger.Logger
}

// New creates a Scanner.
func New(log logger.Logger) *Scanner {
	return &Scanner{log: log}
}

// Scan discovers every plugin contributed by pkg: YAML and text files under
// the package's plugins subtree, plus the package's module descriptors.
//
// A package without a plugins directory contributes no file-based plugins;
// that is not an error. A YAML file that fails to parse aborts the scan. A
// descriptor missing its identity fields is skipped with a debug log; it is
// not an interface plugin.
func (s *Scanner) Scan(pkg plugin.Package) (*Result, error) {
	result := &Result{}

	root := filepath.Join(pkg.Root, PluginDir)
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		s.log.Debug("package has no plugins directory", "package", pkg.Name, "root", root)
	} else {
		if err := s.scanYAML(pkg, root, result); err != nil {
			return nil, err
		}

		if err := s.scanText(pkg, root, result); err != nil {
			return nil, err
		}
	}

	for _, d := range pkg.Descriptors {
		if !d.Complete() {
			s.log.Debug("skipping incomplete module descriptor",
				"package", pkg.Name,
				"interface", d.Interface,
				"name", d.Name,
			)

			continue
		}

		result.Descriptors = append(result.Descriptors, d)
	}

	return result, nil
}

// scanYAML parses every *.yaml file under root into result.YAML.
func (s *Scanner) scanYAML(pkg plugin.Package, root string, result *Result) error {
	paths, err := doublestar.FilepathGlob(filepath.Join(root, "**", "*.yaml"))
	if err != nil {
		return errors.Wrapf(ErrScan, "globbing %s: %v", root, err)
	}

	for _, path := range paths {
		doc, err := s.parseYAML(path)
		if err != nil {
			return errors.Wrapf(ErrScan,
				"package %q: parsing %s: %v", pkg.Name, path, err,
			)
		}

		result.YAML = append(result.YAML, YAMLFile{
			Doc:    doc,
			Source: s.source(pkg, path),
		})
	}

	return nil
}

// scanText collects every *.txt file under root into result.Text. The
// plugin name is the file name stem; content is loaded on demand by the
// resolver, never during a scan.
func (s *Scanner) scanText(pkg plugin.Package, root string, result *Result) error {
	paths, err := doublestar.FilepathGlob(filepath.Join(root, "**", "*.txt"))
	if err != nil {
		return errors.Wrapf(ErrScan, "globbing %s: %v", root, err)
	}

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		result.Text = append(result.Text, TextFile{
			Name:   name,
			Source: s.source(pkg, path),
		})
	}

	return nil
}

// parseYAML reads and parses one declarative plugin file.
func (*Scanner) parseYAML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // paths come from the package tree
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// source builds the provenance record for a file inside pkg.
func (*Scanner) source(pkg plugin.Package, path string) plugin.Source {
	abspath, err := filepath.Abs(path)
	if err != nil {
		abspath = path
	}

	relpath, err := filepath.Rel(pkg.Root, path)
	if err != nil {
		relpath = path
	}

	return plugin.Source{
		Package: pkg.Name,
		Relpath: relpath,
		Abspath: abspath,
	}
}
