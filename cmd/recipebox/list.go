package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/recipebox/internal/types"
)

var listJSONOutput bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recipes, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSONOutput, "json", false, "Output in JSON format")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	recipes, err := s.ListRecipes(cmd.Context())
	if err != nil {
		return fmt.Errorf("list recipes: %w", err)
	}

	if listJSONOutput {
		if recipes == nil {
			recipes = []types.Recipe{}
		}
		return printJSON(cmd.OutOrStdout(), types.RecipeListResponse{
			Recipes: recipes,
			Count:   len(recipes),
		})
	}

	if len(recipes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recipes found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tNAME\tCREATED\tINGREDIENTS")
	for _, r := range recipes {
		ingredients := strings.Join(r.Ingredients, ", ")
		if ingredients == "" {
			ingredients = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.ID,
			r.Name,
			r.CreatedAt.Format("2006-01-02 15:04"),
			ingredients,
		)
	}
	return w.Flush()
}
