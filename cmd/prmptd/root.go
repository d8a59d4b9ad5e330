package main

import (
	"github.com/spf13/cobra"

	"github.com/prmpt-academy/prmpt-api/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "prmptd",
	Short: "Prmpt API server",
	Long:  "prmptd serves lessons, judges learner submissions and tracks credits for the Prmpt prompt-engineering academy.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file (process environment wins)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(judgeCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command) config.Config {
	path, _ := cmd.Flags().GetString("env-file")
	return config.Load(path)
}
