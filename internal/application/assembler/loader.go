package assembler

import (
	"context"

	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/domain/recipe"
	"github.com/recipeatlas/server/internal/domain/taxonomy"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"github.com/recipeatlas/server/internal/ports/outbound"
)

// Loader serialises lists of recipes and comments with one batched query
// per related table instead of one per row.
type Loader struct {
	users    outbound.UserRepository
	taxonomy outbound.TaxonomyRepository
	votes    outbound.VoteRepository
}

// NewLoader creates a loader
func NewLoader(users outbound.UserRepository, taxonomy outbound.TaxonomyRepository, votes outbound.VoteRepository) *Loader {
	return &Loader{users: users, taxonomy: taxonomy, votes: votes}
}

// Recipes serialises recipes in order with authors, states and tallies.
// withSteps includes each recipe's step tree.
func (l *Loader) Recipes(ctx context.Context, recipes []*recipe.Recipe, viewerID uint, withSteps bool) ([]inbound.RecipeDTO, error) {
	out := make([]inbound.RecipeDTO, 0, len(recipes))
	if len(recipes) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	stateIDs := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID())
		authorIDs = append(authorIDs, r.AuthorID())
		stateIDs = append(stateIDs, r.StateID())
	}

	authors, err := l.users.FindByIDs(ctx, unique(authorIDs))
	if err != nil {
		return nil, err
	}
	states, err := l.States(ctx, unique(stateIDs))
	if err != nil {
		return nil, err
	}
	tallies, err := l.votes.Tallies(ctx, engagement.TargetRecipe, ids, viewerID)
	if err != nil {
		return nil, err
	}

	for _, r := range recipes {
		var state *inbound.StateDTO
		if s, ok := states[r.StateID()]; ok {
			state = &s
		}
		out = append(out, Recipe(r, Author(authors[r.AuthorID()]), state, tallies[r.ID()], withSteps))
	}
	return out, nil
}

// States loads states with their country names, keyed by id
func (l *Loader) States(ctx context.Context, ids []uint) (map[uint]inbound.StateDTO, error) {
	out := make(map[uint]inbound.StateDTO, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	states, err := l.taxonomy.FindStatesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	countryIDs := make([]uint, 0, len(states))
	for _, s := range states {
		countryIDs = append(countryIDs, s.CountryID)
	}
	countries, err := l.taxonomy.FindCountriesByIDs(ctx, unique(countryIDs))
	if err != nil {
		return nil, err
	}

	for id, s := range states {
		out[id] = State(s, countries[s.CountryID], nil)
	}
	return out, nil
}

// Comments serialises comments in order with authors and tallies. replies,
// keyed by parent id, are attached one level deep.
func (l *Loader) Comments(ctx context.Context, comments []*engagement.Comment, replies map[uint][]*engagement.Comment, viewerID uint) ([]inbound.CommentDTO, error) {
	out := make([]inbound.CommentDTO, 0, len(comments))
	if len(comments) == 0 {
		return out, nil
	}

	all := make([]*engagement.Comment, 0, len(comments))
	all = append(all, comments...)
	for _, c := range comments {
		all = append(all, replies[c.ID]...)
	}

	ids := make([]uint, 0, len(all))
	authorIDs := make([]uint, 0, len(all))
	for _, c := range all {
		ids = append(ids, c.ID)
		authorIDs = append(authorIDs, c.UserID)
	}

	authors, err := l.users.FindByIDs(ctx, unique(authorIDs))
	if err != nil {
		return nil, err
	}
	tallies, err := l.votes.Tallies(ctx, engagement.TargetComment, ids, viewerID)
	if err != nil {
		return nil, err
	}

	for _, c := range comments {
		dto := Comment(c, Author(authors[c.UserID]), tallies[c.ID])
		if replies != nil {
			dto.Replies = make([]inbound.CommentDTO, 0, len(replies[c.ID]))
			for _, reply := range replies[c.ID] {
				dto.Replies = append(dto.Replies, Comment(reply, Author(authors[reply.UserID]), tallies[reply.ID]))
			}
		}
		out = append(out, dto)
	}
	return out, nil
}

// Countries serialises countries with their recipe counts
func (l *Loader) Countries(ctx context.Context, countries []*taxonomy.Country) ([]inbound.CountryDTO, error) {
	ids := make([]uint, 0, len(countries))
	for _, c := range countries {
		ids = append(ids, c.ID)
	}
	counts, err := l.taxonomy.RecipeCountsByCountry(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]inbound.CountryDTO, 0, len(countries))
	for _, c := range countries {
		n := counts[c.ID]
		out = append(out, Country(c, &n))
	}
	return out, nil
}

func unique(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
