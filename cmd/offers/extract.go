package main

import (
	"github.com/agnesleth/hello-poor/internal/app"
	"github.com/agnesleth/hello-poor/internal/domain"
	"github.com/agnesleth/hello-poor/internal/usecase"
	"github.com/spf13/cobra"
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Build a sale item catalog from a JSON file of candidate blocks",
		Long: `Reads a JSON array of {"name","price","description"} candidate blocks
and prints the cleaned, priced and deduplicated catalog. Nothing is stored.`,
		Args: cobra.NoArgs,
		RunE: runExtract,
	}
	cmd.Flags().String("file", "-", "Candidates JSON file (- for stdin)")
	cmd.Flags().String("format", "json", "Output format: json, table")
	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	file, _ := cmd.Flags().GetString("file")
	var candidates []domain.Candidate
	if err := readJSONFile(file, &candidates); err != nil {
		return err
	}

	debug := cfg.Matching.EnableDebugLogging
	extractor := usecase.NewSaleItemExtractor(
		usecase.NewProductNameCleaner(app.CleanerConfig(cfg.Cleaner, debug)),
		usecase.NewPriceParser(debug),
		debug,
	)
	catalog, stats := extractor.Extract(candidates)

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table":
		printRecordsTable(cmd.OutOrStdout(), catalog.Records())
		printStats(cmd.OutOrStdout(), stats)
		return nil
	default:
		return writeJSON(cmd.OutOrStdout(), catalog.Records())
	}
}
