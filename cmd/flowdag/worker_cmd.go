package main

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowdag/flowdag/internal/config"
	"github.com/flowdag/flowdag/internal/executor"
	"github.com/flowdag/flowdag/internal/logging"
	"github.com/flowdag/flowdag/internal/worker"
)

func newWorkerCommand() *cobra.Command {
	var (
		id             string
		port           string
		coordinatorURL string
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run a worker that claims and executes tasks from a coordinator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadWorkerConfig()
			if id != "" {
				cfg.ID = id
			}
			if port != "" {
				cfg.Port = port
			}
			if coordinatorURL != "" {
				cfg.CoordinatorURL = coordinatorURL
			}
			if cfg.ID == "" {
				cfg.ID = "worker-" + cfg.Port
			}

			log := logging.Setup(cfg.LogLevel, true)
			log = logging.ForWorker(log, cfg.ID)

			reg := executor.NewRegistry(executor.Dependencies{})
			w := worker.New(cfg.ID, cfg.CoordinatorURL, "http://localhost:"+cfg.Port, reg, log)

			srv := worker.NewServer(w)
			go func() {
				log.Info().Str("port", cfg.Port).Msg("worker listening")
				_ = http.ListenAndServe(":"+cfg.Port, srv)
			}()

			return w.Run(cmd.Context(), time.Duration(cfg.HeartbeatIntervalMS)*time.Millisecond)
		},
	}

	cmd.Flags().StringVarP(&id, "id", "i", "", "worker id")
	cmd.Flags().StringVarP(&port, "port", "p", "", "port to listen on")
	cmd.Flags().StringVarP(&coordinatorURL, "coordinator", "c", "", "coordinator base URL")

	return cmd
}
