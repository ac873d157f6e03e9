package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/recipebox/internal/dedupe"
	"github.com/hyperengineering/recipebox/internal/store"
	"github.com/hyperengineering/recipebox/internal/types"
	"github.com/hyperengineering/recipebox/internal/validation"
)

// maxBodyBytes bounds request bodies for recipe creation.
const maxBodyBytes = 1 << 20

// Handler implements the API handlers
type Handler struct {
	store      store.Store
	apiKey     string
	version    string
	cleanupOps []dedupe.Option
}

// NewHandler creates a new Handler. cleanupOpts are applied to every
// remover started through the maintenance endpoint.
func NewHandler(s store.Store, apiKey, version string, cleanupOpts ...dedupe.Option) *Handler {
	return &Handler{
		store:      s,
		apiKey:     apiKey,
		version:    version,
		cleanupOps: cleanupOpts,
	}
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		slog.Error("health stats failed", "error", err)
		WriteProblem(w, r, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	version, err := h.store.SchemaVersion(r.Context())
	if err != nil {
		slog.Error("health schema version failed", "error", err)
		WriteProblem(w, r, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		RecipeCount:   stats.RecipeCount,
		SchemaVersion: version,
	})
}

// ListRecipes handles GET /api/v1/recipes
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.store.ListRecipes(r.Context())
	if err != nil {
		slog.Error("list recipes failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	if recipes == nil {
		recipes = []types.Recipe{}
	}

	writeJSON(w, http.StatusOK, types.RecipeListResponse{
		Recipes: recipes,
		Count:   len(recipes),
	})
}

// GetRecipe handles GET /api/v1/recipes/{id}
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if verr := validation.ValidateULID("id", id); verr != nil {
		WriteProblemWithErrors(w, r, "Invalid recipe id", []validation.ValidationError{*verr})
		return
	}

	recipe, err := h.store.GetRecipe(r.Context(), id)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

// CreateRecipe handles POST /api/v1/recipes
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req types.NewRecipe
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validation.ValidateNewRecipe(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	recipe, err := h.store.CreateRecipe(r.Context(), req)
	if err != nil {
		slog.Error("create recipe failed", "error", err, "name", req.Name)
		MapStoreError(w, r, err)
		return
	}

	slog.Info("recipe created",
		"request_id", GetRequestID(r.Context()),
		"recipe_id", recipe.ID,
		"ingredients", len(recipe.Ingredients),
	)
	w.Header().Set("Location", "/api/v1/recipes/"+recipe.ID)
	writeJSON(w, http.StatusCreated, recipe)
}

// DeleteRecipe handles DELETE /api/v1/recipes/{id}
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if verr := validation.ValidateULID("id", id); verr != nil {
		WriteProblemWithErrors(w, r, "Invalid recipe id", []validation.ValidationError{*verr})
		return
	}

	if err := h.store.DeleteRecipe(r.Context(), id); err != nil {
		MapStoreError(w, r, err)
		return
	}

	slog.Info("recipe deleted",
		"request_id", GetRequestID(r.Context()),
		"recipe_id", id,
	)
	w.WriteHeader(http.StatusNoContent)
}

// Dedupe handles POST /api/v1/maintenance/dedupe
func (h *Handler) Dedupe(w http.ResponseWriter, r *http.Request) {
	dryRun := false
	if v := r.URL.Query().Get("dry_run"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid dry_run value %q", v))
			return
		}
		dryRun = parsed
	}

	opts := append(append([]dedupe.Option{}, h.cleanupOps...), dedupe.WithDryRun(dryRun))
	result := dedupe.NewRemover(h.store, opts...).Run(r.Context())
	if !result.OK() {
		WriteProblem(w, r, http.StatusInternalServerError, "Duplicate cleanup failed")
		return
	}

	writeJSON(w, http.StatusOK, result.Report())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
