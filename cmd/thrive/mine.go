package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/csmol/thrivescraper/internal/miner"
)

var (
	minerVersion string
	mineTopics   []string
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Fetch repositories for the configured topics and reconcile them into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		config, logger, thriveDb, err := setup()
		if err != nil {
			return err
		}
		defer thriveDb.Close()

		if len(mineTopics) > 0 {
			config.Miner.Topics = mineTopics
		}

		m, err := miner.FactoryMiner(minerVersion, logger, config, thriveDb)
		if err != nil {
			return err
		}
		// v2 holds a kafka writer that must be released
		if closer, ok := m.(interface{ Close() error }); ok {
			defer closer.Close()
		}

		logger.Info(ctx, "Starting THRIVE topic miner (%s)", minerVersion)
		if !m.Mine(ctx) {
			return errors.New("mining failed")
		}
		logger.Info(ctx, "Successfully!")
		return nil
	},
}

func init() {
	mineCmd.Flags().StringVar(&minerVersion, "miner", "v1", "miner version to run (v1 writes the store, v2 publishes to kafka)")
	mineCmd.Flags().StringSliceVar(&mineTopics, "topic", nil, "topic to mine (repeatable, overrides the configured list)")
	rootCmd.AddCommand(mineCmd)
}
