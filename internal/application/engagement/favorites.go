package engagement

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/recipeatlas/server/internal/application/assembler"
	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/domain/recipe"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"go.uber.org/zap"
)

// resolver loads the payloads of one favorite variant keyed by target id.
// Missing targets are simply absent from the map.
type resolver func(ctx context.Context, ids []uint) (map[uint]any, error)

// FavoriteService is the favorite registry
type FavoriteService struct {
	favorites outbound.FavoriteRepository
	users     outbound.UserRepository
	resolvers map[engagement.FavoriteType]resolver
	events    outbound.EventBus
	paging    assembler.Paging
	logger    *zap.Logger
}

// NewFavoriteService creates a favorite service
func NewFavoriteService(
	favorites outbound.FavoriteRepository,
	users outbound.UserRepository,
	recipes outbound.RecipeRepository,
	taxonomy outbound.TaxonomyRepository,
	loader *assembler.Loader,
	events outbound.EventBus,
	paging assembler.Paging,
	logger *zap.Logger,
) *FavoriteService {
	s := &FavoriteService{
		favorites: favorites,
		users:     users,
		events:    events,
		paging:    paging,
		logger:    logger.Named("favorite-service"),
	}
	s.resolvers = map[engagement.FavoriteType]resolver{
		engagement.FavoriteUser:    resolveUsers(users),
		engagement.FavoriteRecipe:  resolveRecipes(recipes, loader),
		engagement.FavoriteState:   resolveStates(loader),
		engagement.FavoriteCountry: resolveCountries(taxonomy),
	}
	return s
}

var _ inbound.FavoriteService = (*FavoriteService)(nil)

// AddFavorite stores a favorite after checking the target exists
func (s *FavoriteService) AddFavorite(ctx context.Context, userID uint, favoriteType string, targetID uint) (*inbound.FavoriteDTO, error) {
	t, err := engagement.ParseFavoriteType(favoriteType)
	if err != nil {
		return nil, toAppError(err, "add favorite")
	}
	subject, err := engagement.NewSubject(t, targetID)
	if err != nil {
		return nil, toAppError(err, "add favorite")
	}

	payloads, err := s.resolve(ctx, subject.Type(), []uint{subject.TargetID()})
	if err != nil {
		return nil, toAppError(err, "resolve favorite")
	}
	payload, ok := payloads[subject.TargetID()]
	if !ok {
		return nil, toAppError(engagement.ErrTargetNotFound, "add favorite")
	}

	exists, err := s.favorites.Exists(ctx, userID, subject)
	if err != nil {
		return nil, toAppError(err, "check favorite")
	}
	if exists {
		return nil, toAppError(engagement.ErrDuplicateFavorite, "add favorite")
	}

	favorite := engagement.NewFavorite(userID, subject)
	if err := s.favorites.Create(ctx, favorite); err != nil {
		if stderrors.Is(err, outbound.ErrDuplicate) {
			return nil, toAppError(engagement.ErrDuplicateFavorite, "add favorite")
		}
		return nil, toAppError(err, "add favorite")
	}

	s.events.Publish(ctx, engagement.FavoriteAddedEvent{
		FavoriteID: favorite.ID,
		UserID:     userID,
		Type:       subject.Type(),
		At:         favorite.CreatedAt,
	})

	s.logger.Info("Favorite added",
		zap.Uint("user_id", userID),
		zap.String("favorite_type", string(subject.Type())),
		zap.Uint("favorite_id", subject.TargetID()),
	)

	dto := favoriteDTO(favorite, payload)
	return &dto, nil
}

// RemoveFavorite deletes a favorite held by the requester
func (s *FavoriteService) RemoveFavorite(ctx context.Context, favoriteID, requesterID uint) error {
	favorite, err := s.favorites.FindByID(ctx, favoriteID)
	if err != nil {
		return toAppError(err, "find favorite")
	}
	if !favorite.IsOwnedBy(requesterID) {
		return toAppError(engagement.ErrNotFavoriteOwner, "remove favorite")
	}

	if err := s.favorites.Delete(ctx, favoriteID); err != nil {
		return toAppError(err, "remove favorite")
	}

	s.events.Publish(ctx, engagement.FavoriteRemovedEvent{
		FavoriteID: favoriteID,
		Type:       favorite.Subject.Type(),
		At:         time.Now().UTC(),
	})
	return nil
}

// ListFavorites lists the favorites of username, newest first, each with
// its resolved target or a null payload when the target is gone
func (s *FavoriteService) ListFavorites(ctx context.Context, username, favoriteType string, q inbound.PageQuery) (*inbound.List[inbound.FavoriteDTO], error) {
	var t engagement.FavoriteType
	if favoriteType != "" {
		parsed, err := engagement.ParseFavoriteType(favoriteType)
		if err != nil {
			return nil, toAppError(err, "list favorites")
		}
		t = parsed
	}

	owner, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, toAppError(err, "find user")
	}

	page := s.paging.Page(q)
	favorites, total, err := s.favorites.ListByUser(ctx, owner.ID(), t, page)
	if err != nil {
		return nil, toAppError(err, "list favorites")
	}

	byType := make(map[engagement.FavoriteType][]uint)
	for _, f := range favorites {
		byType[f.Subject.Type()] = append(byType[f.Subject.Type()], f.Subject.TargetID())
	}
	payloads := make(map[engagement.FavoriteType]map[uint]any, len(byType))
	for ft, ids := range byType {
		resolved, err := s.resolve(ctx, ft, ids)
		if err != nil {
			return nil, toAppError(err, "resolve favorites")
		}
		payloads[ft] = resolved
	}

	items := make([]inbound.FavoriteDTO, 0, len(favorites))
	for _, f := range favorites {
		items = append(items, favoriteDTO(f, payloads[f.Subject.Type()][f.Subject.TargetID()]))
	}
	return assembler.NewList(items, total, page), nil
}

func (s *FavoriteService) resolve(ctx context.Context, t engagement.FavoriteType, ids []uint) (map[uint]any, error) {
	resolve, ok := s.resolvers[t]
	if !ok {
		return nil, engagement.ErrInvalidFavoriteType
	}
	return resolve(ctx, ids)
}

func favoriteDTO(f *engagement.Favorite, payload any) inbound.FavoriteDTO {
	return inbound.FavoriteDTO{
		ID:           f.ID,
		FavoriteType: string(f.Subject.Type()),
		FavoriteID:   f.Subject.TargetID(),
		FavoriteData: payload,
		CreatedAt:    f.CreatedAt,
	}
}

func resolveUsers(users outbound.UserRepository) resolver {
	return func(ctx context.Context, ids []uint) (map[uint]any, error) {
		found, err := users.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make(map[uint]any, len(found))
		for id, u := range found {
			out[id] = assembler.PublicUser(u)
		}
		return out, nil
	}
}

func resolveRecipes(recipes outbound.RecipeRepository, loader *assembler.Loader) resolver {
	return func(ctx context.Context, ids []uint) (map[uint]any, error) {
		found, err := recipes.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		list := make([]*recipe.Recipe, 0, len(found))
		for _, r := range found {
			list = append(list, r)
		}
		dtos, err := loader.Recipes(ctx, list, 0, false)
		if err != nil {
			return nil, err
		}
		out := make(map[uint]any, len(dtos))
		for i := range dtos {
			out[dtos[i].ID] = dtos[i]
		}
		return out, nil
	}
}

func resolveStates(loader *assembler.Loader) resolver {
	return func(ctx context.Context, ids []uint) (map[uint]any, error) {
		found, err := loader.States(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make(map[uint]any, len(found))
		for id, st := range found {
			out[id] = st
		}
		return out, nil
	}
}

func resolveCountries(taxonomy outbound.TaxonomyRepository) resolver {
	return func(ctx context.Context, ids []uint) (map[uint]any, error) {
		found, err := taxonomy.FindCountriesByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make(map[uint]any, len(found))
		for id, c := range found {
			out[id] = assembler.Country(c, nil)
		}
		return out, nil
	}
}
