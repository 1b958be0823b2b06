package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/bgrules/internal/config"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:          "bgrules",
	Short:        "bgrules plays and inspects two-player backgammon games",
	Long:         `bgrules drives the backgammon rules engine from the terminal: play a hot-seat game, check the dice, and convert layouts to and from gnubg position IDs.`,
	Version:      version,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("env-file", "", "Read settings from this .env file (default ./.env when present)")
}

// loadConfig reads the environment and the --env-file flag.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile == "" {
		return config.Load()
	}
	return config.Load(envFile)
}
