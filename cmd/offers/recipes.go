package main

import (
	"fmt"

	"github.com/agnesleth/hello-poor/internal/domain"
	"github.com/spf13/cobra"
)

func newRecipesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "Manage the recipes recommendations are chosen from",
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import recipes from a JSON file",
		Long: `Reads a JSON array of {"recipe_name","recipe_url","recipe_img","main_ingredients"}
objects. Recipes are upserted by name, ignoring case.`,
		Args: cobra.NoArgs,
		RunE: runRecipesImport,
	}
	importCmd.Flags().String("file", "-", "Recipes JSON file (- for stdin)")

	cmd.AddCommand(importCmd)
	return cmd
}

func runRecipesImport(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	var recipes []domain.Recipe
	if err := readJSONFile(file, &recipes); err != nil {
		return err
	}

	application, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	n, err := application.Recommendations.ImportRecipes(cmd.Context(), recipes)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d recipes\n", n)
	return nil
}
