package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/artpar/structure/core/schema"
)

var parseCmd = &cobra.Command{
	Use:   "parse <schema> [file]",
	Short: "Parse JSON input with a schema",
	Long: `Parse JSON input into records of the named schema and print them.

The input is read from file, or from stdin when file is omitted or "-".
It must be a JSON object or an array of objects. Records are printed
as plain JSON (or YAML with --output yaml).

Overrides given with --set take precedence over the input. Values are
read as YAML scalars, so --set qty=3 is an integer and --set note=null
is null.

Examples:
  structure parse shop.Order order.json
  cat orders.json | structure parse shop.Order --set paid=true
  structure parse Order order.json --output yaml`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runParse,
}

var (
	parseSet    []string
	parseOutput string
	parsePretty bool
	parseHash   bool
)

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringArrayVar(&parseSet, "set", nil, "override an attribute (key=value, repeatable)")
	parseCmd.Flags().StringVarP(&parseOutput, "output", "o", "json", "output format: json or yaml")
	parseCmd.Flags().BoolVar(&parsePretty, "pretty", false, "indent JSON output")
	parseCmd.Flags().BoolVar(&parseHash, "hash", false, "print each record's structural hash instead of its fields")
}

func runParse(cmd *cobra.Command, args []string) error {
	if parseOutput != "json" && parseOutput != "yaml" {
		return fmt.Errorf("--output must be 'json' or 'yaml', got %q", parseOutput)
	}

	overrides, err := parseOverrides(parseSet)
	if err != nil {
		return err
	}

	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer cat.Stop()

	def, err := cat.Get(args[0])
	if err != nil {
		return err
	}

	path := "-"
	if len(args) == 2 {
		path = args[1]
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	result, err := parseInput(def, data, overrides)
	if err != nil {
		return err
	}

	return writeResult(cmd.OutOrStdout(), result)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// parseInput parses a JSON object or array of objects. The result mirrors
// the input shape.
func parseInput(def *schema.Definition, data []byte, overrides map[string]any) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var input any
	if err := dec.Decode(&input); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}

	switch in := input.(type) {
	case map[string]any:
		rec, err := def.Parse(in, overrides)
		if err != nil {
			return nil, err
		}
		return render(rec), nil

	case []any:
		out := make([]any, 0, len(in))
		for i, item := range in {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("item %d: expected an object, got %T", i, item)
			}
			rec, err := def.Parse(obj, overrides)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out = append(out, render(rec))
		}
		return out, nil

	default:
		return nil, fmt.Errorf("input must be an object or an array of objects, got %T", input)
	}
}

func render(rec *schema.Record) any {
	if parseHash {
		return fmt.Sprintf("%016x", rec.Hash())
	}
	return printable(rec.Plain())
}

// printable replaces values without a useful JSON or YAML form by their
// string form.
func printable(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = printable(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = printable(e)
		}
		return x
	case *url.URL:
		if x == nil {
			return nil
		}
		return x.String()
	case time.Duration:
		return x.String()
	}
	return v
}

func writeResult(w io.Writer, result any) error {
	if parseOutput == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	if parsePretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// parseOverrides turns key=value pairs into an override map.
func parseOverrides(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	overrides := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("--set %q: expected key=value", pair)
		}

		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("--set %q: %w", pair, err)
		}
		overrides[strings.TrimSpace(key)] = value
	}
	return overrides, nil
}
