package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/vedran77/notes/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the PostgreSQL schema",
	Long:  `Apply the embedded schema to the database named by DATABASE_URL (or the DB_* settings). Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			fatal("Failed to connect to database", err)
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool); err != nil {
			fatal("Failed to migrate", err)
		}
		logger.Info().Msg("schema applied")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
