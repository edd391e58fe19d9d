package main

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowdag/flowdag/internal/config"
	"github.com/flowdag/flowdag/internal/coordinator"
	"github.com/flowdag/flowdag/internal/logging"
)

func newCoordinatorCommand() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "coordinator",
		Short: "Run the distributed coordinator, assigning tasks to registered workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadCoordinatorConfig()
			if port != "" {
				cfg.Port = port
			}
			log := logging.Setup(cfg.LogLevel, true)

			var store coordinator.Store
			if cfg.DatabaseDSN != "" {
				bunStore, err := coordinator.NewBunStore(cfg.DatabaseDSN)
				if err != nil {
					return err
				}
				if err := bunStore.EnsureSchema(context.Background()); err != nil {
					return err
				}
				store = bunStore
				log.Info().Msg("coordinator bookkeeping persisted to database")
			}

			coord := coordinator.New(coordinator.Options{
				HeartbeatInterval: time.Duration(cfg.HeartbeatIntervalMS) * time.Millisecond,
				MissedHeartbeats:  cfg.MissedHeartbeats,
				MaxRetries:        cfg.MaxRetries,
			}, log, store)

			srv := coordinator.NewServer(coord, log)
			log.Info().Str("port", cfg.Port).Msg("coordinator listening")
			return http.ListenAndServe(":"+cfg.Port, srv)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "port to listen on")
	return cmd
}
