package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type scrapeResult struct {
	StoreID    string `json:"store_id"`
	Items      int    `json:"items"`
	Candidates int    `json:"candidates"`
	Discarded  int    `json:"discarded"`
	Error      string `json:"error,omitempty"`
}

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape STORE_ID...",
		Short: "Scrape and store the offers of one or more stores",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScrape,
	}
	cmd.Flags().String("format", "table", "Output format: json, table")
	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	application, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	outcomes := application.Offers.ScrapeStores(cmd.Context(), args)

	results := make([]scrapeResult, len(outcomes))
	failed := 0
	for i, outcome := range outcomes {
		results[i] = scrapeResult{
			StoreID:    outcome.StoreID,
			Items:      outcome.Items,
			Candidates: outcome.Stats.Candidates,
			Discarded:  outcome.Stats.Discarded,
		}
		if outcome.Err != nil {
			results[i].Error = outcome.Err.Error()
			failed++
		}
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	default:
		printScrapeTable(cmd.OutOrStdout(), results)
	}

	if failed == len(outcomes) {
		return fmt.Errorf("all %d stores failed to scrape", failed)
	}
	return nil
}
