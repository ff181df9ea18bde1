package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	internalconfig "github.com/orbview-labs/geodex/internal/config"
)

var configInitGlobal bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage geodex configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Write a starter configuration to .geodex/config.toml in the current
directory, or to ~/.geodex/config.toml with --global. Existing files are
never overwritten.`,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(
		&configInitGlobal,
		"global",
		false,
		"Write the global configuration instead of the project one",
	)

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	writer, err := internalconfig.NewWriter()
	if err != nil {
		return err
	}

	path := writer.ProjectConfigPath()
	if configInitGlobal {
		path = writer.GlobalConfigPath()
	}

	if fileExists(path) {
		return errors.Newf("config file already exists at %s", path)
	}

	if err := writer.WriteFile(path, internalconfig.Starter()); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", path)

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}
