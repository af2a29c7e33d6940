package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"toursApi/internal/app"
	"toursApi/internal/config"
	"toursApi/internal/shared/auth"
	"toursApi/internal/shared/logging"
)

var rootCmd = &cobra.Command{
	Use:           "seed",
	Short:         "Load or remove the development data set",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(importCmd(), deleteCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func importCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import tours, users and reviews from JSON files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSeeder(cmd.Context(), func(ctx context.Context, s *app.Seeder) error {
				counts, err := s.Import(ctx, dir)
				if err != nil {
					return err
				}
				fmt.Printf("Data successfully loaded! %v\n", counts)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "dev-data/data", "directory holding tours.json, users.json and reviews.json")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete every tour, user and review",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSeeder(cmd.Context(), func(ctx context.Context, s *app.Seeder) error {
				if err := s.Delete(ctx); err != nil {
					return err
				}
				fmt.Println("Data successfully deleted!")
				return nil
			})
		},
	}
}

func withSeeder(ctx context.Context, fn func(context.Context, *app.Seeder) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := config.LoadEnvFiles(); err != nil {
		return err
	}
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	slog.SetDefault(logger)
	if cfg.Database.Driver != config.DriverMongo {
		logger.Warn("seeding the in-memory driver has no lasting effect")
	}

	stores, err := app.OpenStores(ctx, cfg.Database, auth.NewBcryptHasher(cfg.Auth.BcryptCost))
	if err != nil {
		return err
	}
	defer stores.Close(context.Background())
	return fn(ctx, app.NewSeeder(stores, logger))
}
