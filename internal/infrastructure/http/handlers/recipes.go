package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/recipeatlas/server/internal/infrastructure/http/middleware"
	"github.com/recipeatlas/server/internal/infrastructure/http/respond"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"go.uber.org/zap"
)

// RecipeHandlers handles recipe CRUD, feeds and search
type RecipeHandlers struct {
	base
	recipes inbound.RecipeService
}

// NewRecipeHandlers creates the recipe handlers
func NewRecipeHandlers(recipes inbound.RecipeService, v *Validator, logger *zap.Logger) *RecipeHandlers {
	return &RecipeHandlers{
		base:    base{logger: logger, validator: v},
		recipes: recipes,
	}
}

type ingredientRequest struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity" validate:"omitempty,min=0"`
	Unit     string   `json:"unit"`
	Notes    string   `json:"notes"`
}

type stepRequest struct {
	Instruction     string              `json:"instruction"`
	ImageURL        string              `json:"image_url"`
	DurationMinutes *int                `json:"duration_minutes" validate:"omitempty,min=0"`
	Ingredients     []ingredientRequest `json:"ingredients" validate:"dive"`
}

type createRecipeRequest struct {
	Title        string        `json:"title" validate:"required"`
	Description  string        `json:"description"`
	Instructions string        `json:"instructions"`
	ImageURL     string        `json:"image_url"`
	StateID      uint          `json:"state_id" validate:"required"`
	Steps        []stepRequest `json:"steps" validate:"dive"`
}

// updateRecipeRequest is a patch: absent fields are left untouched and a
// present steps array replaces the whole step tree.
type updateRecipeRequest struct {
	Title        *string        `json:"title"`
	Description  *string        `json:"description"`
	Instructions *string        `json:"instructions"`
	ImageURL     *string        `json:"image_url"`
	StateID      *uint          `json:"state_id" validate:"omitempty,gt=0"`
	Steps        *[]stepRequest `json:"steps" validate:"omitempty,dive"`
}

func toStepInputs(steps []stepRequest) []inbound.StepInput {
	out := make([]inbound.StepInput, 0, len(steps))
	for _, s := range steps {
		in := inbound.StepInput{
			Instruction:     s.Instruction,
			ImageURL:        s.ImageURL,
			DurationMinutes: s.DurationMinutes,
		}
		for _, ing := range s.Ingredients {
			in.Ingredients = append(in.Ingredients, inbound.IngredientInput{
				Name:     ing.Name,
				Quantity: ing.Quantity,
				Unit:     ing.Unit,
				Notes:    ing.Notes,
			})
		}
		out = append(out, in)
	}
	return out
}

// List handles GET /api/recipes
func (h *RecipeHandlers) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.recipes.ListRecipes(r.Context(), inbound.ListRecipesQuery{
		StateID:   queryUint(r, "state"),
		CountryID: queryUint(r, "country"),
		Sort:      r.URL.Query().Get("sort"),
		Page:      pageQuery(r),
		ViewerID:  middleware.ViewerID(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// Get handles GET /api/recipes/{id}
func (h *RecipeHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rec, err := h.recipes.GetRecipe(r.Context(), id, middleware.ViewerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

// GetBySlug handles GET /api/recipes/slug/{slug}
func (h *RecipeHandlers) GetBySlug(w http.ResponseWriter, r *http.Request) {
	rec, err := h.recipes.GetRecipeBySlug(r.Context(), chi.URLParam(r, "slug"), middleware.ViewerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

// Create handles POST /api/recipes
func (h *RecipeHandlers) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req createRecipeRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	rec, err := h.recipes.CreateRecipe(r.Context(), userID, inbound.CreateRecipeCommand{
		Title:        req.Title,
		Description:  req.Description,
		Instructions: req.Instructions,
		ImageURL:     req.ImageURL,
		StateID:      req.StateID,
		Steps:        toStepInputs(req.Steps),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, rec)
}

// Update handles PUT /api/recipes/{id}
func (h *RecipeHandlers) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req updateRecipeRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	cmd := inbound.UpdateRecipeCommand{
		Title:        req.Title,
		Description:  req.Description,
		Instructions: req.Instructions,
		ImageURL:     req.ImageURL,
		StateID:      req.StateID,
	}
	if req.Steps != nil {
		steps := toStepInputs(*req.Steps)
		cmd.Steps = &steps
	}

	rec, err := h.recipes.UpdateRecipe(r.Context(), id, userID, cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /api/recipes/{id}
func (h *RecipeHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.recipes.DeleteRecipe(r.Context(), id, userID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Edit handles GET /api/recipes/{id}/edit
func (h *RecipeHandlers) Edit(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rec, err := h.recipes.GetRecipeForEdit(r.Context(), id, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

// Popular handles GET /api/recipes/popular
func (h *RecipeHandlers) Popular(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.Popular(r.Context(),
		queryInt(r, "limit", defaultFeedLimit),
		r.URL.Query().Get("country"),
		middleware.ViewerID(r),
	)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, recipes)
}

// Recent handles GET /api/recipes/recent
func (h *RecipeHandlers) Recent(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.Recent(r.Context(), queryInt(r, "limit", defaultFeedLimit), middleware.ViewerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, recipes)
}

// Search handles GET /api/search
func (h *RecipeHandlers) Search(w http.ResponseWriter, r *http.Request) {
	result, err := h.recipes.Search(r.Context(), inbound.SearchQuery{
		Text:      r.URL.Query().Get("q"),
		StateID:   queryUint(r, "state"),
		CountryID: queryUint(r, "country"),
		Page:      pageQuery(r),
		ViewerID:  middleware.ViewerID(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

// Home handles GET /api/home
func (h *RecipeHandlers) Home(w http.ResponseWriter, r *http.Request) {
	home, err := h.recipes.Home(r.Context(), middleware.ViewerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, home)
}

// Nav handles GET /api/nav
func (h *RecipeHandlers) Nav(w http.ResponseWriter, r *http.Request) {
	nav, err := h.recipes.Nav(r.Context(), middleware.ViewerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, nav)
}
