package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orbview-labs/geodex/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema for plugin files",
	Long: `Generate the JSON Schema describing the structure of declarative plugin
files, for editor integration and external validation.`,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(_ *cobra.Command, _ []string) error {
	data, err := schema.GenerateJSON(true)
	if err != nil {
		return err
	}

	fmt.Println(string(data))

	return nil
}
