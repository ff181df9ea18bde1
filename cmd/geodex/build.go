package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/orbview-labs/geodex/internal/registry"
	"github.com/orbview-labs/geodex/pkg/plugin"
)

var buildCmd = &cobra.Command{
	Use:   "build [package...]",
	Short: "Build registry records for configured packages",
	Long: `Scan each configured plugin package and write its registry record into
the package root. With arguments, only the named packages are rebuilt.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

type buildResult struct {
	pkg      string
	path     string
	plugins  int
	size     int64
	duration time.Duration
}

func runBuild(_ *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	packages, err := selectPackages(eng.packages, args)
	if err != nil {
		return err
	}

	builder := registry.NewBuilder(eng.ifaces, eng.log)
	results := make([]buildResult, len(packages))

	// Each package writes its own record file, so rebuilds are independent
	// and can run concurrently.
	var eg errgroup.Group

	for i, pkg := range packages {
		eg.Go(func() error {
			start := time.Now()

			rec, err := builder.Build(pkg)
			if err != nil {
				return err
			}

			path, err := registry.WriteRecord(rec, pkg.Root, eng.format)
			if err != nil {
				return err
			}

			results[i] = buildResult{
				pkg:      pkg.Name,
				path:     path,
				plugins:  countPlugins(rec),
				size:     fileSize(path),
				duration: time.Since(start),
			}

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	for _, res := range results {
		fmt.Printf("%s: %d plugins, %s, %s (%s)\n",
			res.pkg,
			res.plugins,
			humanize.Bytes(uint64(res.size)), //nolint:gosec // sizes are non-negative
			durafmt.Parse(res.duration.Round(time.Millisecond)).LimitFirstN(2),
			res.path,
		)
	}

	return nil
}

// selectPackages filters the configured packages down to the requested
// names. No arguments selects everything.
func selectPackages(configured []plugin.Package, names []string) ([]plugin.Package, error) {
	if len(names) == 0 {
		return configured, nil
	}

	byName := make(map[string]plugin.Package, len(configured))
	for _, pkg := range configured {
		byName[pkg.Name] = pkg
	}

	selected := make([]plugin.Package, 0, len(names))

	for _, name := range names {
		pkg, ok := byName[name]
		if !ok {
			return nil, errors.Newf("package %q is not configured", name)
		}

		selected = append(selected, pkg)
	}

	return selected, nil
}

func countPlugins(rec *registry.Record) int {
	total := 0

	for _, ki := range rec.Plugins {
		for _, ix := range ki {
			total += len(ix.Flatten())
		}
	}

	return total
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}

	return info.Size()
}
