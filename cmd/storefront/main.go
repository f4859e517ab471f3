package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/viralforge/storefront/internal/app/bootstrap"
)

var Version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Digital storefront for eBook sales and gated downloads",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/default.yaml", "path to the YAML config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(workerCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(seedProductsCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			runtime, err := bootstrap.NewRuntime(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("bootstrap api runtime: %w", err)
			}
			return runtime.RunAPI(cmd.Context())
		},
	}
}

func workerCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the email outbox and purchase expiry workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			runtime, err := bootstrap.NewRuntime(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("bootstrap worker runtime: %w", err)
			}
			return runtime.RunWorker(cmd.Context())
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			return bootstrap.Migrate(cmd.Context(), cfg)
		},
	}
}

func seedProductsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-products",
		Short: "Upsert the default product catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			products, err := bootstrap.SeedProducts(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("seed products: %w", err)
			}
			for _, p := range products {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", p.ID, p.FileKey, p.Name)
			}
			return nil
		},
	}
}
