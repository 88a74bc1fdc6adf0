package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/csmol/thrivescraper/internal/miner"
	"github.com/csmol/thrivescraper/pkg/kafka"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Import mined repository records published to kafka into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, logger, thriveDb, err := setup()
		if err != nil {
			return err
		}
		defer thriveDb.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		consumer, err := kafka.NewConsumer(config, logger, config.Kafka.TopicRepo, config.Kafka.GroupId)
		if err != nil {
			return err
		}
		defer consumer.Close()

		reconciler := miner.NewReconciler(logger, thriveDb)
		consumer.RegisterHandler("repo", func(data []byte) error {
			var msg miner.RepoMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				return fmt.Errorf("failed to unmarshal repo message: %w", err)
			}

			added, err := reconciler.ReconcileRepo(ctx, msg.ToResponse())
			if err != nil {
				return fmt.Errorf("failed to reconcile repo %q: %w", msg.FullName, err)
			}
			if added {
				logger.Info(ctx, "Imported new repo %q", msg.FullName)
			}
			return nil
		})

		// Stop on SIGINT/SIGTERM
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			logger.Info(ctx, "Received shutdown signal, gracefully shutting down...")
			cancel()
		}()

		return consumer.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(consumeCmd)
}
