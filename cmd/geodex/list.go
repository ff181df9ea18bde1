package main

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/orbview-labs/geodex/internal/registry"
	"github.com/orbview-labs/geodex/pkg/plugin"
)

var listCmd = &cobra.Command{
	Use:   "list [interface]",
	Short: "List registered interfaces or plugins",
	Long: `Without arguments, list every interface known to the merged registry.
With an interface name, list the registered plugins of that interface.
Listing never loads or validates plugin content.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	reg := eng.registry()

	if len(args) == 0 {
		return listInterfaces(reg)
	}

	return listPlugins(reg, args[0])
}

func listInterfaces(reg *registry.Registry) error {
	t := tablewriter.NewTable(os.Stdout)
	t.Header("KIND", "INTERFACE", "PLUGINS")

	for _, kind := range plugin.Kinds() {
		names, err := reg.Interfaces(kind)
		if err != nil {
			return err
		}

		for _, name := range names {
			entries, err := reg.ListPlugins(name)
			if err != nil {
				return err
			}

			if err := t.Append(string(kind), name, len(entries)); err != nil {
				return err
			}
		}
	}

	return t.Render()
}

func listPlugins(reg *registry.Registry, interfaceName string) error {
	keys, err := reg.PluginNames(interfaceName)
	if err != nil {
		return err
	}

	entries, err := reg.ListPlugins(interfaceName)
	if err != nil {
		return err
	}

	t := tablewriter.NewTable(os.Stdout)
	t.Header("PLUGIN", "PACKAGE", "FILE")

	for _, key := range keys {
		e := entries[key]
		if err := t.Append(key.String(), e.Package, e.Relpath); err != nil {
			return err
		}
	}

	return t.Render()
}
