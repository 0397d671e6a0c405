package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/artpar/structure/core/schema"
)

var describeCmd = &cobra.Command{
	Use:   "describe [schema...]",
	Short: "Print schema signatures",
	Long: `Print the signature of each named schema: attributes with their
source keys, types, defaults and constraints, plus predicates and rules.
Without arguments every schema in the directory is described.

Examples:
  structure describe
  structure describe shop.Order
  structure describe Order --output json`,
	RunE: runDescribe,
}

var describeOutput string

func init() {
	rootCmd.AddCommand(describeCmd)

	describeCmd.Flags().StringVarP(&describeOutput, "output", "o", "yaml", "output format: yaml or json")
}

func runDescribe(cmd *cobra.Command, args []string) error {
	if describeOutput != "yaml" && describeOutput != "json" {
		return fmt.Errorf("--output must be 'yaml' or 'json', got %q", describeOutput)
	}

	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer cat.Stop()

	var defs []*schema.Definition
	if len(args) == 0 {
		defs = cat.Registry().List()
	}
	for _, name := range args {
		def, err := cat.Get(name)
		if err != nil {
			return err
		}
		defs = append(defs, def)
	}

	sigs := make([]schema.Signature, 0, len(defs))
	for _, def := range defs {
		sigs = append(sigs, def.Signature())
	}

	out := cmd.OutOrStdout()
	if describeOutput == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sigs)
	}

	// one YAML document per schema
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	for _, sig := range sigs {
		if err := enc.Encode(sig); err != nil {
			return fmt.Errorf("encode signature: %w", err)
		}
	}
	return enc.Close()
}
