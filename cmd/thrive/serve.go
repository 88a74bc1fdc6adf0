package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/csmol/thrivescraper/api"
	"github.com/csmol/thrivescraper/internal/ui"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API over the mined store",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, logger, thriveDb, err := setup()
		if err != nil {
			return err
		}
		defer thriveDb.Close()

		port := servePort
		if port == 0 {
			port = config.Ui.Port
		}

		minerApi := api.NewMinerAPI()
		if err := minerApi.Initialize(context.Background(), config, logger, thriveDb); err != nil {
			return err
		}
		defer minerApi.Close()

		server, err := ui.NewServer(logger, config, thriveDb, minerApi, port)
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Stop(ctx)
		}
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (defaults to the configured port)")
	rootCmd.AddCommand(serveCmd)
}
