package main

import (
	"errors"

	"github.com/agnesleth/hello-poor/internal/app"
	"github.com/agnesleth/hello-poor/internal/domain"
	"github.com/agnesleth/hello-poor/internal/usecase"
	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match INGREDIENT...",
		Short: "Match ingredients against stored store catalogs or a records file",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runMatch,
	}
	cmd.Flags().StringSlice("store", nil, "Store IDs whose stored catalogs are merged, in order")
	cmd.Flags().String("records", "", "JSON file of sale item records to match against instead of stored catalogs")
	cmd.Flags().String("format", "table", "Output format: json, table")
	return cmd
}

func runMatch(cmd *cobra.Command, args []string) error {
	stores, _ := cmd.Flags().GetStringSlice("store")
	recordsFile, _ := cmd.Flags().GetString("records")
	if len(stores) == 0 && recordsFile == "" {
		return errors.New("either --store or --records is required")
	}

	var results []domain.MatchResult
	var err error
	if recordsFile != "" {
		results, err = matchRecords(cmd, recordsFile, args)
	} else {
		results, err = matchStores(cmd, stores, args)
	}
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		return writeJSON(cmd.OutOrStdout(), results)
	default:
		printMatchesTable(cmd.OutOrStdout(), results)
		return nil
	}
}

func matchStores(cmd *cobra.Command, stores, ingredients []string) ([]domain.MatchResult, error) {
	application, err := openApp(cmd)
	if err != nil {
		return nil, err
	}
	defer application.Close()

	return application.Offers.MatchIngredients(cmd.Context(), stores, ingredients)
}

// matchRecords matches against a catalog rebuilt from exported records
func matchRecords(cmd *cobra.Command, path string, ingredients []string) ([]domain.MatchResult, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	var records []domain.SaleItemRecord
	if err := readJSONFile(path, &records); err != nil {
		return nil, err
	}
	catalog := domain.CatalogFromRecords(records, usecase.Normalize)

	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		Threshold:          cfg.Matching.Threshold,
		TermWeights:        app.TermWeights(cfg.Matching),
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	})
	return matcher.MatchAll(cmd.Context(), ingredients, catalog)
}
