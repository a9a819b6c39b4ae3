package main

import (
	"fmt"
	"io"

	"github.com/agnesleth/hello-poor/internal/domain"
	"github.com/agnesleth/hello-poor/internal/usecase"
)

func printRecordsTable(w io.Writer, records []domain.SaleItemRecord) {
	for i, rec := range records {
		line := fmt.Sprintf(" %d. %s  |  %s", i+1, rec.Name, rec.Price)
		if rec.DiscountPercentage != domain.NotAvailable {
			line += fmt.Sprintf("  (save %s, -%s)", rec.DiscountAmount, rec.DiscountPercentage)
		}
		fmt.Fprintln(w, line)
	}
}

func printStats(w io.Writer, stats usecase.ExtractStats) {
	fmt.Fprintf(w, "\n%d candidates -> %d items (discarded %d, no price %d, merged %d)\n",
		stats.Candidates, stats.Items, stats.Discarded, stats.NoPrice, stats.Merged)
}

func printMatchesTable(w io.Writer, results []domain.MatchResult) {
	for _, result := range results {
		if result.Matched() {
			fmt.Fprintf(w, " %s -> %s (%.1f)\n", result.Query, *result.MatchedName, result.Score)
			continue
		}
		fmt.Fprintf(w, " %s -> no match (best %.1f)\n", result.Query, result.Score)
	}
}

func printScrapeTable(w io.Writer, results []scrapeResult) {
	for _, result := range results {
		if result.Error != "" {
			fmt.Fprintf(w, " %s: FAILED %s\n", result.StoreID, result.Error)
			continue
		}
		fmt.Fprintf(w, " %s: %d items from %d candidates (%d discarded)\n",
			result.StoreID, result.Items, result.Candidates, result.Discarded)
	}
}
