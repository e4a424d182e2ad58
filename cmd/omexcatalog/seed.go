package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"omexcatalog/internal/category"
	"omexcatalog/internal/database"
	"omexcatalog/internal/store"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the category hierarchy",
	Long: `Creates the categories from a YAML seed file (the built-in OMEX hierarchy
when --file is not given). Existing categories are kept, so the command can
be run repeatedly.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML seed file with a top-level categories list")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	nodes, err := readSeed(seedFile)
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	svc := category.NewService(store.NewCategoryStore(db), nil,
		category.WithListener(store.NewCacheLogStore(db)))

	res, err := database.Seed(cmd.Context(), svc, nodes)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded categories: %d created, %d skipped\n", res.Created, res.Skipped)
	return nil
}

func readSeed(path string) ([]database.SeedNode, error) {
	if path == "" {
		return database.DefaultSeed()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return database.LoadSeed(f)
}
