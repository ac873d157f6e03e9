package types

import "time"

// Recipe is a stored recipe together with its ingredient names.
type Recipe struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Ingredients []string  `json:"ingredients"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecipeHeader is a recipe row without its ingredients.
type RecipeHeader struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRecipe is the input for creating a recipe.
// A zero CreatedAt means "now".
type NewRecipe struct {
	Name        string    `json:"name"`
	Ingredients []string  `json:"ingredients"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// StoreStats contains aggregate counts for the recipe database.
type StoreStats struct {
	RecipeCount     int64 `json:"recipe_count"`
	IngredientCount int64 `json:"ingredient_count"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	RecipeCount   int64  `json:"recipe_count"`
	SchemaVersion int64  `json:"schema_version"`
}

// RecipeListResponse is the body of GET /api/v1/recipes.
type RecipeListResponse struct {
	Recipes []Recipe `json:"recipes"`
	Count   int      `json:"count"`
}

// DuplicateRecipe describes a recipe found to share its ingredient signature
// with an older one.
type DuplicateRecipe struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CanonicalID string `json:"canonical_id"`
	Signature   string `json:"signature"`
}

// DedupeReport is the body of POST /api/v1/maintenance/dedupe.
type DedupeReport struct {
	DryRun     bool              `json:"dry_run"`
	Scanned    int               `json:"scanned"`
	Removed    int64             `json:"removed"`
	Duplicates []DuplicateRecipe `json:"duplicates"`
}
