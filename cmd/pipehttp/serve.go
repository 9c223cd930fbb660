package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/DaianCosta/pipehttp/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve GET /call, /match, /runs, /healthz and /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadConfig(v)
			if err != nil {
				return err
			}
			cfg, err := serverConfig(doc)
			if err != nil {
				return err
			}
			a, err := newApp(doc)
			if err != nil {
				return err
			}
			defer a.Close()

			// A nil *Store must not reach the server as a non-nil interface.
			var runs server.RunStore
			if a.store != nil {
				runs = a.store
			}

			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(cfg, a.executor, runs).Run(ctx)
		},
	}
}

func serverConfig(doc *ConfigDoc) (server.Config, error) {
	read, err := parseDuration("server.read_timeout", doc.Server.ReadTimeout)
	if err != nil {
		return server.Config{}, err
	}
	write, err := parseDuration("server.write_timeout", doc.Server.WriteTimeout)
	if err != nil {
		return server.Config{}, err
	}
	return server.Config{Addr: doc.Server.Addr, ReadTimeout: read, WriteTimeout: write}, nil
}

// cmdContext falls back to Background when a command runs outside Execute.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
