package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/orbview-labs/geodex/pkg/plugin"
)

var validateCmd = &cobra.Command{
	Use:   "validate [interface [plugin...]]",
	Short: "Validate registered plugins against their family contracts",
	Long: `Resolve and validate plugins. Without arguments, every registered plugin
of every interface is validated. With an interface, only that interface's
plugins; with plugin names, only those plugins. Exits non-zero when any
plugin fails validation.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	reg := eng.registry()

	res, err := eng.resolver()
	if err != nil {
		return err
	}

	var targets []validateTarget

	switch {
	case len(args) == 0:
		for _, kind := range plugin.Kinds() {
			names, err := reg.Interfaces(kind)
			if err != nil {
				return err
			}

			for _, name := range names {
				keys, err := reg.PluginNames(name)
				if err != nil {
					return err
				}

				for _, key := range keys {
					targets = append(targets, validateTarget{name, key})
				}
			}
		}
	case len(args) == 1:
		keys, err := reg.PluginNames(args[0])
		if err != nil {
			return err
		}

		for _, key := range keys {
			targets = append(targets, validateTarget{args[0], key})
		}
	default:
		for _, arg := range args[1:] {
			targets = append(targets, validateTarget{args[0], plugin.ParseKey(arg)})
		}
	}

	failed := 0

	for _, t := range targets {
		if _, err := res.GetPlugin(t.iface, t.key); err != nil {
			failed++

			fmt.Printf("FAIL %s %s: %v\n", t.iface, t.key, err)

			continue
		}

		fmt.Printf("ok   %s %s\n", t.iface, t.key)
	}

	if failed > 0 {
		return errors.Newf("%d of %d plugins failed validation", failed, len(targets))
	}

	return nil
}

type validateTarget struct {
	iface string
	key   plugin.Key
}
