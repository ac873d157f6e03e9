package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/recipebox/internal/types"
	"github.com/hyperengineering/recipebox/internal/validation"
)

var addIngredients []string

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a recipe",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().StringArrayVarP(&addIngredients, "ingredient", "i", nil,
		"Ingredient name (repeatable)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	req := types.NewRecipe{Name: args[0], Ingredients: addIngredients}
	if errs := validation.ValidateNewRecipe(req); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Field + ": " + e.Message
		}
		return fmt.Errorf("invalid recipe: %s", strings.Join(msgs, "; "))
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	recipe, err := s.CreateRecipe(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("add recipe: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added recipe %q (%s) with %d ingredients\n",
		recipe.Name, recipe.ID, len(recipe.Ingredients))
	return nil
}
