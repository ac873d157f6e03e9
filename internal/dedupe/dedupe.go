// Package dedupe removes recipes whose ingredient set duplicates an older
// recipe. The oldest recipe for each ingredient signature is kept.
package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hyperengineering/recipebox/internal/types"
)

// Separator joins normalized ingredient names into a signature.
// Ingredient names containing it are rejected at input validation.
const Separator = "|"

// Store defines the store operations needed by the remover.
type Store interface {
	ListRecipesByAge(ctx context.Context) ([]types.RecipeHeader, error)
	IngredientNames(ctx context.Context, recipeID string) ([]string, error)
	DeleteRecipes(ctx context.Context, ids []string) (int64, error)
}

// Backupper takes a copy of the database before duplicates are deleted.
type Backupper interface {
	Backup(ctx context.Context) (string, error)
}

// Duplicate is a recipe whose signature was already seen on an older recipe.
type Duplicate struct {
	ID          string
	Name        string
	CanonicalID string
	Signature   string
}

// Result is the outcome of one cleanup run. Err is non-nil when the run
// could not complete; Removed then reflects what was actually deleted.
type Result struct {
	Scanned    int
	Removed    int64
	Duplicates []Duplicate
	DryRun     bool
	BackupPath string
	Err        error
}

// OK reports whether the run completed.
func (r Result) OK() bool {
	return r.Err == nil
}

// Report converts the result to its API representation.
func (r Result) Report() types.DedupeReport {
	dups := make([]types.DuplicateRecipe, 0, len(r.Duplicates))
	for _, d := range r.Duplicates {
		dups = append(dups, types.DuplicateRecipe{
			ID:          d.ID,
			Name:        d.Name,
			CanonicalID: d.CanonicalID,
			Signature:   d.Signature,
		})
	}
	return types.DedupeReport{
		DryRun:     r.DryRun,
		Scanned:    r.Scanned,
		Removed:    r.Removed,
		Duplicates: dups,
	}
}

// Normalize lowercases and trims whitespace from a raw ingredient name.
func Normalize(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

// Signature returns the canonical key for a set of ingredient names:
// normalized, sorted, and joined with Separator. No ingredients yields "".
func Signature(names []string) string {
	normalized := make([]string, len(names))
	for i, n := range names {
		normalized[i] = Normalize(n)
	}
	sort.Strings(normalized)
	return strings.Join(normalized, Separator)
}

// Remover finds and deletes duplicate recipes.
type Remover struct {
	store  Store
	dryRun bool
	backup Backupper
}

// Option customises a Remover.
type Option func(*Remover)

// WithDryRun reports duplicates without deleting them.
func WithDryRun(dryRun bool) Option {
	return func(r *Remover) { r.dryRun = dryRun }
}

// WithBackup snapshots the database before any deletion.
// A failed backup aborts the run.
func WithBackup(b Backupper) Option {
	return func(r *Remover) { r.backup = b }
}

// NewRemover creates a Remover over the given store.
func NewRemover(store Store, opts ...Option) *Remover {
	r := &Remover{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one cleanup pass. It never returns a Go error: failures are
// logged and carried in Result.Err so the caller can continue.
func (r *Remover) Run(ctx context.Context) Result {
	start := time.Now()
	result := Result{DryRun: r.dryRun}

	slog.Info("duplicate scan started",
		"component", "dedupe",
		"action", "scan_start",
		"dry_run", r.dryRun,
	)

	dups, scanned, err := r.scan(ctx)
	result.Scanned = scanned
	result.Duplicates = dups
	if err != nil {
		return r.fail(result, "scan", err)
	}

	if len(dups) > 0 && !r.dryRun {
		if r.backup != nil {
			path, err := r.backup.Backup(ctx)
			if err != nil {
				return r.fail(result, "backup", err)
			}
			result.BackupPath = path
		}

		ids := make([]string, len(dups))
		for i, d := range dups {
			ids[i] = d.ID
		}
		removed, err := r.store.DeleteRecipes(ctx, ids)
		if err != nil {
			return r.fail(result, "delete", err)
		}
		result.Removed = removed
	}

	slog.Info("duplicate scan completed",
		"component", "dedupe",
		"action", "scan_complete",
		"scanned", result.Scanned,
		"duplicates", len(result.Duplicates),
		"removed", result.Removed,
		"dry_run", r.dryRun,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result
}

// scan walks recipes oldest first and collects every recipe whose signature
// belongs to an earlier one.
func (r *Remover) scan(ctx context.Context) ([]Duplicate, int, error) {
	recipes, err := r.store.ListRecipesByAge(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}

	seen := make(map[string]string, len(recipes))
	var dups []Duplicate

	for i, recipe := range recipes {
		if err := ctx.Err(); err != nil {
			return dups, i, err
		}

		names, err := r.store.IngredientNames(ctx, recipe.ID)
		if err != nil {
			return dups, i, fmt.Errorf("ingredients of %s: %w", recipe.ID, err)
		}
		sig := Signature(names)

		canonical, ok := seen[sig]
		if !ok {
			seen[sig] = recipe.ID
			continue
		}

		dups = append(dups, Duplicate{
			ID:          recipe.ID,
			Name:        recipe.Name,
			CanonicalID: canonical,
			Signature:   sig,
		})
		slog.Info("duplicate recipe found",
			"component", "dedupe",
			"recipe_id", recipe.ID,
			"name", recipe.Name,
			"canonical_id", canonical,
		)
	}

	return dups, len(recipes), nil
}

func (r *Remover) fail(result Result, phase string, err error) Result {
	result.Err = fmt.Errorf("%s: %w", phase, err)
	slog.Error("duplicate cleanup failed",
		"component", "dedupe",
		"action", phase+"_failed",
		"error", err,
	)
	return result
}
