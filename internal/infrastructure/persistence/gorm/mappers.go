package gorm

import (
	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/domain/recipe"
	"github.com/recipeatlas/server/internal/domain/taxonomy"
	"github.com/recipeatlas/server/internal/domain/user"
)

// UserToModel converts a domain user to a GORM model
func UserToModel(u *user.User) *UserModel {
	s := u.Snapshot()
	return &UserModel{
		ID:           s.ID,
		Username:     s.Username,
		Email:        s.Email,
		PasswordHash: s.PasswordHash,
		Bio:          s.Bio,
		Country:      s.Country,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// ModelToUser converts a GORM model to a domain user
func ModelToUser(m *UserModel) *user.User {
	return user.FromSnapshot(user.Snapshot{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Bio:          m.Bio,
		Country:      m.Country,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	})
}

// RecipeToModel converts a domain recipe, including its step tree, to a
// GORM model
func RecipeToModel(r *recipe.Recipe) *RecipeModel {
	s := r.Snapshot()
	m := &RecipeModel{
		ID:          s.ID,
		Title:       s.Title,
		Slug:        s.Slug,
		Description: s.Description,
		ImageURL:    s.ImageURL,
		AuthorID:    s.AuthorID,
		StateID:     s.StateID,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		Steps:       StepsToModels(s.ID, s.Steps),
	}
	if r.Mode() == recipe.ModeText {
		instructions := s.Instructions
		m.Instructions = &instructions
	}
	return m
}

// StepsToModels converts steps to fresh rows for the given recipe
func StepsToModels(recipeID uint, steps []recipe.Step) []StepModel {
	models := make([]StepModel, 0, len(steps))
	for _, st := range steps {
		sm := StepModel{
			RecipeID:        recipeID,
			StepNumber:      st.Number,
			Instruction:     st.Instruction,
			ImageURL:        st.ImageURL,
			DurationMinutes: st.DurationMinutes,
			CreatedAt:       st.CreatedAt,
		}
		for _, ing := range st.Ingredients {
			sm.Ingredients = append(sm.Ingredients, IngredientModel{
				Name:      ing.Name,
				Quantity:  ing.Quantity,
				Unit:      ing.Unit,
				Notes:     ing.Notes,
				SortOrder: ing.Order,
				CreatedAt: ing.CreatedAt,
			})
		}
		models = append(models, sm)
	}
	return models
}

// ModelToRecipe converts a GORM model to a domain recipe. Steps are taken
// from the model as loaded; callers preload them in display order.
func ModelToRecipe(m *RecipeModel) *recipe.Recipe {
	s := recipe.Snapshot{
		ID:          m.ID,
		Title:       m.Title,
		Slug:        m.Slug,
		Description: m.Description,
		ImageURL:    m.ImageURL,
		AuthorID:    m.AuthorID,
		StateID:     m.StateID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Instructions != nil {
		s.Instructions = *m.Instructions
	}
	for _, sm := range m.Steps {
		st := recipe.Step{
			ID:              sm.ID,
			Number:          sm.StepNumber,
			Instruction:     sm.Instruction,
			ImageURL:        sm.ImageURL,
			DurationMinutes: sm.DurationMinutes,
			CreatedAt:       sm.CreatedAt,
		}
		for _, im := range sm.Ingredients {
			st.Ingredients = append(st.Ingredients, recipe.Ingredient{
				ID:        im.ID,
				Name:      im.Name,
				Quantity:  im.Quantity,
				Unit:      im.Unit,
				Notes:     im.Notes,
				Order:     im.SortOrder,
				CreatedAt: im.CreatedAt,
			})
		}
		s.Steps = append(s.Steps, st)
	}
	return recipe.FromSnapshot(s)
}

// CountryToModel converts a domain country to a GORM model
func CountryToModel(c *taxonomy.Country) *CountryModel {
	m := &CountryModel{
		ID:        c.ID,
		Name:      c.Name,
		Continent: c.Continent,
		Lat:       c.Lat,
		Lng:       c.Lng,
		CreatedAt: c.CreatedAt,
	}
	if c.Code != "" {
		code := c.Code
		m.Code = &code
	}
	return m
}

// ModelToCountry converts a GORM model to a domain country
func ModelToCountry(m *CountryModel) *taxonomy.Country {
	c := &taxonomy.Country{
		ID:        m.ID,
		Name:      m.Name,
		Continent: m.Continent,
		Lat:       m.Lat,
		Lng:       m.Lng,
		CreatedAt: m.CreatedAt,
	}
	if m.Code != nil {
		c.Code = *m.Code
	}
	return c
}

// ModelToState converts a GORM model to a domain state
func ModelToState(m *StateModel) *taxonomy.State {
	return &taxonomy.State{
		ID:        m.ID,
		Name:      m.Name,
		CountryID: m.CountryID,
		CreatedAt: m.CreatedAt,
	}
}

// CommentToModel converts a domain comment to a GORM model
func CommentToModel(c *engagement.Comment) *CommentModel {
	return &CommentModel{
		ID:        c.ID,
		RecipeID:  c.RecipeID,
		UserID:    c.UserID,
		ParentID:  c.ParentID,
		Content:   c.Content,
		IsEdited:  c.IsEdited,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ModelToComment converts a GORM model to a domain comment
func ModelToComment(m *CommentModel) *engagement.Comment {
	return &engagement.Comment{
		ID:        m.ID,
		RecipeID:  m.RecipeID,
		UserID:    m.UserID,
		ParentID:  m.ParentID,
		Content:   m.Content,
		IsEdited:  m.IsEdited,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ModelToFavorite converts a GORM model to a domain favorite
func ModelToFavorite(m *FavoriteModel) (*engagement.Favorite, error) {
	subject, err := engagement.NewSubject(engagement.FavoriteType(m.FavoriteType), m.FavoriteID)
	if err != nil {
		return nil, err
	}
	return &engagement.Favorite{
		ID:        m.ID,
		UserID:    m.UserID,
		Subject:   subject,
		CreatedAt: m.CreatedAt,
	}, nil
}
