package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/agnesleth/hello-poor/config"
	"github.com/agnesleth/hello-poor/internal/app"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "offers",
		Short:         "Hello Poor - store offer scraping and ingredient matching CLI",
		Long:          "Scrape weekly store offers, turn them into sale item catalogs and match recipe ingredients against them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		newScrapeCmd(),
		newExtractCmd(),
		newMatchCmd(),
		newRecipesCmd(),
	)
	return rootCmd
}

// loadConfig reads the configuration named by --config and applies --debug
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Matching.EnableDebugLogging = true
	}
	return cfg, nil
}

// openApp loads the configuration and wires the services behind it
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

// readJSONFile decodes a JSON file, or stdin when path is "-"
func readJSONFile(path string, v any) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
