package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"billflow/internal/core"
	"billflow/internal/db"
	"billflow/internal/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Setup()

	rootCmd := &cobra.Command{
		Use:   "billctl",
		Short: "Operational tooling for the billflow server",
	}
	rootCmd.AddCommand(migrateCmd(), createUserCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// migrateCmd applies every .sql file in the migrations directory, in name order.
func migrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pool, err := db.NewPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("failed to read migrations directory: %w", err)
			}

			var files []string
			for _, e := range entries {
				if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
					files = append(files, e.Name())
				}
			}
			sort.Strings(files)

			for _, name := range files {
				sqlBytes, err := os.ReadFile(filepath.Join(dir, name))
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", name, err)
				}
				if _, err := pool.Exec(ctx, string(sqlBytes)); err != nil {
					return fmt.Errorf("migration %s failed: %w", name, err)
				}
				log.Info().Str("migration", name).Msg("applied")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "migrations", "directory containing .sql migration files")
	return cmd
}

// createUserCmd creates an account and provisions its default settings.
func createUserCmd() *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pool, err := db.NewPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			user, err := core.NewUserService(pool).Create(ctx, email, name, password)
			if err != nil {
				return err
			}
			if _, err := core.NewSettingsService(pool).GetOrCreate(ctx, user.ID); err != nil {
				return err
			}

			log.Info().Int("id", user.ID).Str("email", user.Email).Msg("user created")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password, minimum 8 characters (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
