package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/orbview-labs/geodex/pkg/plugin"
)

var describeCmd = &cobra.Command{
	Use:   "describe <interface> <plugin>",
	Short: "Resolve one plugin and print its validated form",
	Long: `Resolve a plugin through the registry, validate it against its family
contract, and print the result. Composite plugins are addressed as
source:name.`,
	Args: cobra.ExactArgs(2), //nolint:mnd // interface and plugin name
	RunE: runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(_ *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	res, err := eng.resolver()
	if err != nil {
		return err
	}

	p, err := res.GetPlugin(args[0], plugin.ParseKey(args[1]))
	if err != nil {
		return err
	}

	return printPlugin(p)
}

func printPlugin(p *plugin.Plugin) error {
	fmt.Printf("interface: %s\n", p.Interface)
	fmt.Printf("family: %s\n", p.Family)
	fmt.Printf("name: %s\n", p.Name)

	if p.SourceName != "" {
		fmt.Printf("source_name: %s\n", p.SourceName)
	}

	fmt.Printf("package: %s\n", p.Source.Package)
	fmt.Printf("file: %s\n", p.Source.Relpath)

	if p.Text != "" {
		fmt.Printf("---\n%s", p.Text)

		return nil
	}

	if p.Doc == nil {
		return nil
	}

	fmt.Println("---")

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)

	if err := enc.Encode(p.Doc); err != nil {
		return err
	}

	return enc.Close()
}
