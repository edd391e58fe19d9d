package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSubmitCommand() *cobra.Command {
	var (
		file           string
		coordinatorURL string
		inputs         []string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a workflow file to a running coordinator",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			overrides, err := parseInputOverrides(inputs)
			if err != nil {
				return err
			}

			var workflow any
			if err := yaml.Unmarshal(raw, &workflow); err != nil {
				return err
			}

			body, err := json.Marshal(map[string]any{
				"workflow":  workflow,
				"overrides": overrides,
			})
			if err != nil {
				return err
			}

			resp, err := http.Post(coordinatorURL+"/submit", "application/json", bytes.NewReader(body))
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var result map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result["run_id"])
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "workflow YAML file (required)")
	cmd.Flags().StringVarP(&coordinatorURL, "coordinator", "c", "http://localhost:7070", "coordinator base URL")
	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "override a global variable as key=value")
	cmd.MarkFlagRequired("file")

	return cmd
}
