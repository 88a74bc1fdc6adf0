package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csmol/thrivescraper/cfg"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the application version",
	Run: func(cmd *cobra.Command, args []string) {
		loader, _ := cfg.NewViperLoader()
		config, err := loader.Load()
		if err != nil {
			fmt.Println("thrivescraper (unknown version)")
			return
		}
		fmt.Printf("%s version %s\n", config.App.Name, config.App.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
