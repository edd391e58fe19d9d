package main

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/flowdag/flowdag/internal/config"
	"github.com/flowdag/flowdag/internal/executor"
	"github.com/flowdag/flowdag/internal/loader"
	"github.com/flowdag/flowdag/internal/logging"
)

func newServeCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a workflow behind a webhook endpoint, one run per POST",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadServeConfig()
			log := logging.Setup(cfg.LogLevel, true)

			wf, err := loader.Load(file)
			if err != nil {
				return err
			}

			reg := executor.NewRegistry(executor.Dependencies{})

			mux := http.NewServeMux()
			mux.HandleFunc("POST /webhook", func(w http.ResponseWriter, r *http.Request) {
				var overrides map[string]any
				body, _ := io.ReadAll(r.Body)
				if len(body) > 0 {
					if err := json.Unmarshal(body, &overrides); err != nil {
						http.Error(w, "invalid JSON body", http.StatusBadRequest)
						return
					}
				}

				result := executor.Run(r.Context(), wf, reg, "webhook", executor.RunOptions{
					MaxConcurrency: cfg.MaxConcurrency,
					Overrides:      overrides,
					Log:            log,
				})

				w.Header().Set("Content-Type", "application/json")
				if result.Err != nil {
					w.WriteHeader(http.StatusUnprocessableEntity)
				}
				_ = json.NewEncoder(w).Encode(map[string]any{
					"outputs": result.Outputs,
					"error":   errString(result.Err),
				})
			})

			log.Info().Str("port", cfg.Port).Msg("serving workflow")
			return http.ListenAndServe(":"+cfg.Port, mux)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "workflow YAML file (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
