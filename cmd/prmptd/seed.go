package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prmpt-academy/prmpt-api/internal/db"
	"github.com/prmpt-academy/prmpt-api/internal/lesson"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Load lessons from a YAML file into an empty lesson store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		path := "lessons/seed.yaml"
		if cfg.SeedLessons != "" {
			path = cfg.SeedLessons
		}
		if len(args) == 1 {
			path = args[0]
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer dbh.Close()

		drafts, err := lesson.LoadSeedFile(path)
		if err != nil {
			return err
		}
		n, err := lesson.Seed(ctx, lesson.NewService(lesson.NewSQLStore(dbh, cfg.DBDriver)), drafts)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "lesson store is not empty; nothing seeded")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d lessons from %s\n", n, path)
		return nil
	},
}
