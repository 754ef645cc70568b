package handlers

import (
	"net/http"

	"github.com/recipeatlas/server/internal/infrastructure/http/middleware"
	"github.com/recipeatlas/server/internal/infrastructure/http/respond"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"go.uber.org/zap"
)

// TaxonomyHandlers handles countries and states
type TaxonomyHandlers struct {
	base
	taxonomy inbound.TaxonomyService
	recipes  inbound.RecipeService
}

// NewTaxonomyHandlers creates the taxonomy handlers
func NewTaxonomyHandlers(taxonomy inbound.TaxonomyService, recipes inbound.RecipeService, v *Validator, logger *zap.Logger) *TaxonomyHandlers {
	return &TaxonomyHandlers{
		base:     base{logger: logger, validator: v},
		taxonomy: taxonomy,
		recipes:  recipes,
	}
}

// ListCountries handles GET /api/countries
func (h *TaxonomyHandlers) ListCountries(w http.ResponseWriter, r *http.Request) {
	list, err := h.taxonomy.ListCountries(r.Context(), pageQuery(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// GetCountry handles GET /api/countries/{id}
func (h *TaxonomyHandlers) GetCountry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.taxonomy.GetCountry(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

// CountryStates handles GET /api/countries/{id}/states
func (h *TaxonomyHandlers) CountryStates(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.listStates(w, r, id)
}

// ListStates handles GET /api/states with an optional country_id filter
func (h *TaxonomyHandlers) ListStates(w http.ResponseWriter, r *http.Request) {
	h.listStates(w, r, queryUint(r, "country_id"))
}

func (h *TaxonomyHandlers) listStates(w http.ResponseWriter, r *http.Request, countryID uint) {
	list, err := h.taxonomy.ListStates(r.Context(), countryID, pageQuery(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// GetState handles GET /api/states/{id}
func (h *TaxonomyHandlers) GetState(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	s, err := h.taxonomy.GetState(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, s)
}

// CountryRecipes handles GET /api/countries/{id}/recipes
func (h *TaxonomyHandlers) CountryRecipes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.taxonomy.GetCountry(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.listRecipes(w, r, inbound.ListRecipesQuery{CountryID: id})
}

// StateRecipes handles GET /api/states/{id}/recipes
func (h *TaxonomyHandlers) StateRecipes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.taxonomy.GetState(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.listRecipes(w, r, inbound.ListRecipesQuery{StateID: id})
}

func (h *TaxonomyHandlers) listRecipes(w http.ResponseWriter, r *http.Request, q inbound.ListRecipesQuery) {
	q.Sort = "newest"
	q.Page = pageQuery(r)
	q.ViewerID = middleware.ViewerID(r)

	list, err := h.recipes.ListRecipes(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}
