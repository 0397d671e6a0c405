package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate schema documents",
	Long: `Validate every schema document in the schema directory.

Checks:
  - Configuration is valid
  - Every document parses and builds
  - Schema names are unique
  - Every named reference resolves

Examples:
  structure validate
  structure validate --schemas ./schemas`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfg.Schemas.Dir)

	if _, err := os.Stat(cfg.Schemas.Dir); err != nil {
		fmt.Fprintf(out, "  %s Schema directory exists\n", crossMark)
		return fmt.Errorf("schema directory not found: %s", cfg.Schemas.Dir)
	}
	fmt.Fprintf(out, "  %s Schema directory exists\n", checkMark)

	cat, err := openCatalog()
	if err != nil {
		fmt.Fprintf(out, "  %s Schema documents valid\n", crossMark)
		return fmt.Errorf("schema error: %w", err)
	}
	defer cat.Stop()
	fmt.Fprintf(out, "  %s Schema documents valid\n", checkMark)

	failed := 0
	for _, def := range cat.Registry().List() {
		if err := def.CheckReferences(); err != nil {
			failed++
			fmt.Fprintf(out, "  %s %s\n", crossMark, def.Name())
			for _, e := range unjoin(err) {
				fmt.Fprintf(out, "      %v\n", e)
			}
			continue
		}
		fmt.Fprintf(out, "  %s %s (%d attributes)\n", checkMark, def.Name(), len(def.Attributes()))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d schemas have unresolved references", failed, cat.Registry().Len())
	}

	fmt.Fprintf(out, "\n%d schemas valid\n", cat.Registry().Len())
	return nil
}

func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
