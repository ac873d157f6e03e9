package store

import (
	"context"

	"github.com/hyperengineering/recipebox/internal/types"
)

// Store defines the interface contract for recipe storage operations.
type Store interface {
	CreateRecipe(ctx context.Context, recipe types.NewRecipe) (*types.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*types.Recipe, error)
	ListRecipes(ctx context.Context) ([]types.Recipe, error)
	ListRecipesByAge(ctx context.Context) ([]types.RecipeHeader, error)
	IngredientNames(ctx context.Context, recipeID string) ([]string, error)
	DeleteRecipe(ctx context.Context, id string) error
	DeleteRecipes(ctx context.Context, ids []string) (int64, error)
	Snapshot(ctx context.Context, destPath string) error
	GetStats(ctx context.Context) (*types.StoreStats, error)
	SchemaVersion(ctx context.Context) (int64, error)
	Close() error
}
