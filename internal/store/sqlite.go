package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperengineering/recipebox/internal/types"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so that created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// pragmas are applied to every connection the pool opens.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// SQLiteStore represents the SQLite-backed recipe database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Option customises NewSQLiteStore.
type Option func(*options)

type options struct {
	migrations fs.FS
}

// WithMigrations replaces the embedded schema with the migrations in fsys.
func WithMigrations(fsys fs.FS) Option {
	return func(o *options) { o.migrations = fsys }
}

// NewSQLiteStore opens (or creates) the database at dbPath and brings its
// schema up to date. Foreign-key enforcement is on for every connection.
// On any failure the handle is closed and no store is returned.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := RunMigrations(db, o.migrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// dsn appends the connection pragmas understood by modernc.org/sqlite.
func dsn(dbPath string) string {
	params := make([]string, len(pragmas))
	for i, p := range pragmas {
		params[i] = "_pragma=" + p
	}
	return dbPath + "?" + strings.Join(params, "&")
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRecipe inserts a recipe and its ingredients in one transaction.
func (s *SQLiteStore) CreateRecipe(ctx context.Context, recipe types.NewRecipe) (*types.Recipe, error) {
	if strings.TrimSpace(recipe.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRecipe)
	}

	createdAt := recipe.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC()

	result := &types.Recipe{
		ID:          ulid.Make().String(),
		Name:        recipe.Name,
		Ingredients: append([]string{}, recipe.Ingredients...),
		CreatedAt:   createdAt,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO recipes (id, name, created_at) VALUES (?, ?, ?)`,
		result.ID, result.Name, formatTime(createdAt),
	); err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}

	if len(result.Ingredients) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_name) VALUES (?, ?)`)
		if err != nil {
			return nil, fmt.Errorf("prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, name := range result.Ingredients {
			if _, err := stmt.ExecContext(ctx, result.ID, name); err != nil {
				return nil, fmt.Errorf("insert ingredient: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return result, nil
}

// GetRecipe retrieves a recipe and its ingredients by ID.
func (s *SQLiteStore) GetRecipe(ctx context.Context, id string) (*types.Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM recipes WHERE id = ?`, id)

	header, err := scanRecipeHeader(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan row: %w", err)
	}

	ingredients, err := s.IngredientNames(ctx, id)
	if err != nil {
		return nil, err
	}

	return &types.Recipe{
		ID:          header.ID,
		Name:        header.Name,
		Ingredients: ingredients,
		CreatedAt:   header.CreatedAt,
	}, nil
}

// ListRecipes returns every recipe with its ingredients, oldest first.
func (s *SQLiteStore) ListRecipes(ctx context.Context) ([]types.Recipe, error) {
	headers, err := s.ListRecipesByAge(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT recipe_id, ingredient_name FROM recipe_ingredients ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query ingredients: %w", err)
	}
	defer rows.Close()

	byRecipe := make(map[string][]string)
	for rows.Next() {
		var recipeID, name string
		if err := rows.Scan(&recipeID, &name); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		byRecipe[recipeID] = append(byRecipe[recipeID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	recipes := make([]types.Recipe, 0, len(headers))
	for _, h := range headers {
		ingredients := byRecipe[h.ID]
		if ingredients == nil {
			ingredients = []string{}
		}
		recipes = append(recipes, types.Recipe{
			ID:          h.ID,
			Name:        h.Name,
			Ingredients: ingredients,
			CreatedAt:   h.CreatedAt,
		})
	}
	return recipes, nil
}

// ListRecipesByAge returns recipe rows ordered by creation time ascending.
// Rows with equal timestamps are ordered by ID.
func (s *SQLiteStore) ListRecipesByAge(ctx context.Context) ([]types.RecipeHeader, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM recipes ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	var headers []types.RecipeHeader
	for rows.Next() {
		h, err := scanRecipeHeader(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		headers = append(headers, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return headers, nil
}

// IngredientNames returns the raw ingredient names stored for a recipe.
func (s *SQLiteStore) IngredientNames(ctx context.Context, recipeID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ingredient_name FROM recipe_ingredients WHERE recipe_id = ? ORDER BY id ASC`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("query ingredients: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return names, nil
}

// DeleteRecipe removes a single recipe and its ingredients.
func (s *SQLiteStore) DeleteRecipe(ctx context.Context, id string) error {
	n, err := s.DeleteRecipes(ctx, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRecipes removes the given recipes in one transaction and returns the
// number of recipe rows deleted. Ingredient rows are removed explicitly as
// well as through the cascade.
func (s *SQLiteStore) DeleteRecipes(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	delIngredients, err := tx.PrepareContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`)
	if err != nil {
		return 0, fmt.Errorf("prepare statement: %w", err)
	}
	defer delIngredients.Close()

	delRecipe, err := tx.PrepareContext(ctx, `DELETE FROM recipes WHERE id = ?`)
	if err != nil {
		return 0, fmt.Errorf("prepare statement: %w", err)
	}
	defer delRecipe.Close()

	var deleted int64
	for _, id := range ids {
		if _, err := delIngredients.ExecContext(ctx, id); err != nil {
			return 0, fmt.Errorf("delete ingredients of %s: %w", id, err)
		}
		result, err := delRecipe.ExecContext(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("delete recipe %s: %w", id, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("get rows affected: %w", err)
		}
		deleted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return deleted, nil
}

// Snapshot writes a self-contained copy of the database to destPath.
// destPath must not exist.
func (s *SQLiteStore) Snapshot(ctx context.Context, destPath string) error {
	if dir := filepath.Dir(destPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	// VACUUM INTO is WAL-safe and produces a compacted copy
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, destPath); err != nil {
		return fmt.Errorf("vacuum into %s: %w", destPath, err)
	}
	return nil
}

// GetStats returns aggregate store statistics
func (s *SQLiteStore) GetStats(ctx context.Context) (*types.StoreStats, error) {
	var stats types.StoreStats
	err := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM recipes), (SELECT COUNT(*) FROM recipe_ingredients)
	`).Scan(&stats.RecipeCount, &stats.IngredientCount)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return &stats, nil
}

// SchemaVersion returns the applied migration version.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int64, error) {
	return schemaVersion(ctx, s.db)
}

func scanRecipeHeader(scanner interface{ Scan(...any) error }) (*types.RecipeHeader, error) {
	var h types.RecipeHeader
	var createdAt string
	if err := scanner.Scan(&h.ID, &h.Name, &createdAt); err != nil {
		return nil, err
	}
	h.CreatedAt = parseTime(createdAt)
	return &h, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts the store's own layout as well as RFC 3339 and SQLite
// CURRENT_TIMESTAMP values written by other tools. Unparseable values yield
// the zero time.
func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, time.DateTime} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
