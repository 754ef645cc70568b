package assembler

import (
	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/domain/recipe"
	"github.com/recipeatlas/server/internal/domain/taxonomy"
	"github.com/recipeatlas/server/internal/domain/user"
	"github.com/recipeatlas/server/internal/ports/inbound"
)

// Author returns the compact reference of u. A missing user (deleted
// mid-request) yields a zero reference.
func Author(u *user.User) inbound.AuthorDTO {
	if u == nil {
		return inbound.AuthorDTO{}
	}
	return inbound.AuthorDTO{ID: u.ID(), Username: u.Username()}
}

// PublicUser serialises a profile without the email
func PublicUser(u *user.User) *inbound.UserDTO {
	return &inbound.UserDTO{
		ID:        u.ID(),
		Username:  u.Username(),
		Bio:       u.Bio(),
		Country:   u.Country(),
		CreatedAt: u.CreatedAt(),
	}
}

// PrivateUser serialises the owner's own profile, email included
func PrivateUser(u *user.User) *inbound.UserDTO {
	dto := PublicUser(u)
	dto.Email = u.Email()
	return dto
}

// Country serialises a country; count may be nil
func Country(c *taxonomy.Country, count *int64) inbound.CountryDTO {
	return inbound.CountryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Code:        c.Code,
		Continent:   c.Continent,
		Lat:         c.Lat,
		Lng:         c.Lng,
		RecipeCount: count,
	}
}

// State serialises a state; country and count may be nil
func State(s *taxonomy.State, country *taxonomy.Country, count *int64) inbound.StateDTO {
	dto := inbound.StateDTO{
		ID:          s.ID,
		Name:        s.Name,
		CountryID:   s.CountryID,
		RecipeCount: count,
	}
	if country != nil {
		dto.CountryName = country.Name
	}
	return dto
}

// Tally serialises a vote tally
func Tally(t engagement.Tally) inbound.TallyDTO {
	dto := inbound.TallyDTO{
		Upvotes:   t.Upvotes,
		Downvotes: t.Downvotes,
		Score:     t.Score(),
	}
	if t.UserVote != nil {
		v := string(*t.UserVote)
		dto.UserVote = &v
	}
	return dto
}

// Recipe serialises a recipe. Steps are included only when withSteps is set.
func Recipe(r *recipe.Recipe, author inbound.AuthorDTO, state *inbound.StateDTO, tally engagement.Tally, withSteps bool) inbound.RecipeDTO {
	dto := inbound.RecipeDTO{
		ID:          r.ID(),
		Title:       r.Title(),
		Slug:        r.Slug(),
		Description: r.Description(),
		ImageURL:    r.ImageURL(),
		Mode:        string(r.Mode()),
		Author:      author,
		State:       state,
		TallyDTO:    Tally(tally),
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}
	if r.Mode() == recipe.ModeText {
		instructions := r.Instructions()
		dto.Instructions = &instructions
	}
	if withSteps {
		dto.Steps = Steps(r.Steps())
	}
	return dto
}

// Steps serialises a step tree, always as a non-nil slice
func Steps(steps []recipe.Step) []inbound.StepDTO {
	out := make([]inbound.StepDTO, 0, len(steps))
	for _, s := range steps {
		ingredients := make([]inbound.IngredientDTO, 0, len(s.Ingredients))
		for _, i := range s.Ingredients {
			ingredients = append(ingredients, inbound.IngredientDTO{
				ID:       i.ID,
				Name:     i.Name,
				Quantity: i.Quantity,
				Unit:     i.Unit,
				Notes:    i.Notes,
				Order:    i.Order,
			})
		}
		out = append(out, inbound.StepDTO{
			ID:              s.ID,
			StepNumber:      s.Number,
			Instruction:     s.Instruction,
			ImageURL:        s.ImageURL,
			DurationMinutes: s.DurationMinutes,
			Ingredients:     ingredients,
		})
	}
	return out
}

// Comment serialises a comment without replies
func Comment(c *engagement.Comment, author inbound.AuthorDTO, tally engagement.Tally) inbound.CommentDTO {
	return inbound.CommentDTO{
		ID:        c.ID,
		RecipeID:  c.RecipeID,
		ParentID:  c.ParentID,
		Content:   c.Content,
		IsEdited:  c.IsEdited,
		Author:    author,
		TallyDTO:  Tally(tally),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
