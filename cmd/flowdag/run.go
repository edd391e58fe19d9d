package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowdag/flowdag/internal/config"
	"github.com/flowdag/flowdag/internal/executor"
	"github.com/flowdag/flowdag/internal/loader"
	"github.com/flowdag/flowdag/internal/logging"
)

func newRunCommand() *cobra.Command {
	var (
		file   string
		inputs []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a workflow file locally and print its outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadRunConfig()

			if err := config.LoadDotEnv(filepath.Join(filepath.Dir(file), ".env")); err != nil {
				return err
			}

			log := logging.Setup(cfg.LogLevel, true)

			wf, err := loader.Load(file)
			if err != nil {
				return err
			}

			overrides, err := parseInputOverrides(inputs)
			if err != nil {
				return err
			}

			reg := executor.NewRegistry(executor.Dependencies{})
			result := executor.Run(cmd.Context(), wf, reg, "local", executor.RunOptions{
				MaxConcurrency: cfg.MaxConcurrency,
				Overrides:      overrides,
				Log:            log,
			})

			out, _ := json.MarshalIndent(result.Outputs, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if result.Err != nil {
				return result.Err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "workflow YAML file (required)")
	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "override a global variable as key=value (JSON value if parseable)")
	cmd.MarkFlagRequired("file")

	return cmd
}

// parseInputOverrides turns `-i key=value` flags into a global overrides
// map, parsing each value as JSON when possible so `-i count=3` yields the
// number 3 (a float64) rather than the string "3", and falling back to the
// raw string otherwise.
func parseInputOverrides(inputs []string) (map[string]any, error) {
	out := make(map[string]any, len(inputs))
	for _, kv := range inputs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid -i value %q, expected key=value", kv)
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		out[key] = parsed
	}
	return out, nil
}
