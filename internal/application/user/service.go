// Package user provides the application layer for user management
package user

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/recipeatlas/server/internal/application/assembler"
	"github.com/recipeatlas/server/internal/domain/user"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"github.com/recipeatlas/server/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when a login matches no account, so an
// unknown login costs the same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("recipeatlas-no-such-user"), bcrypt.MinCost)

// UserService implements user management use cases
type UserService struct {
	tx         outbound.TxManager
	users      outbound.UserRepository
	recipes    outbound.RecipeRepository
	recipeSvc  inbound.RecipeService
	events     outbound.EventBus
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService creates a new user service. bcryptCost zero means
// bcrypt.DefaultCost.
func NewUserService(
	tx outbound.TxManager,
	users outbound.UserRepository,
	recipes outbound.RecipeRepository,
	recipeSvc inbound.RecipeService,
	events outbound.EventBus,
	bcryptCost int,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		tx:         tx,
		users:      users,
		recipes:    recipes,
		recipeSvc:  recipeSvc,
		events:     events,
		bcryptCost: bcryptCost,
		logger:     logger.Named("user-service"),
	}
}

var _ inbound.UserService = (*UserService)(nil)

// Register creates a new user account
func (s *UserService) Register(ctx context.Context, cmd inbound.RegisterCommand) (*inbound.UserDTO, error) {
	s.logger.Info("Registering new user", zap.String("username", cmd.Username))

	entity, err := user.NewUser(user.Registration{
		Username: strings.TrimSpace(cmd.Username),
		Email:    cmd.Email,
		Password: cmd.Password,
		Bio:      cmd.Bio,
		Country:  cmd.Country,
	}, s.bcryptCost)
	if err != nil {
		return nil, toAppError(err, "register user")
	}

	taken, err := s.users.ExistsByUsername(ctx, entity.Username())
	if err != nil {
		return nil, errors.NewDatabaseError("check username", err)
	}
	if taken {
		return nil, errors.NewUsernameAlreadyExistsError(entity.Username())
	}

	taken, err = s.users.ExistsByEmail(ctx, entity.Email(), 0)
	if err != nil {
		return nil, errors.NewDatabaseError("check email", err)
	}
	if taken {
		return nil, errors.NewEmailAlreadyExistsError(entity.Email())
	}

	saved, err := s.users.Create(ctx, entity)
	if stderrors.Is(err, outbound.ErrDuplicate) {
		return nil, errors.NewConflictError("Username or email already exists")
	}
	if err != nil {
		return nil, errors.NewDatabaseError("create user", err)
	}

	s.events.Publish(ctx, user.RegisteredEvent{
		UserID:       saved.ID(),
		Username:     saved.Username(),
		RegisteredAt: saved.CreatedAt(),
	})

	s.logger.Info("User registered successfully", zap.Uint("user_id", saved.ID()))

	return assembler.PrivateUser(saved), nil
}

// Authenticate checks a username-or-email and password pair. Every failure
// yields the same error so callers cannot probe for accounts.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*inbound.UserDTO, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, errors.NewInvalidCredentialsError()
	}

	var (
		entity *user.User
		err    error
	)
	if strings.Contains(login, "@") {
		entity, err = s.users.FindByEmail(ctx, login)
	} else {
		entity, err = s.users.FindByUsername(ctx, login)
	}
	if err != nil && !stderrors.Is(err, user.ErrUserNotFound) {
		return nil, errors.NewDatabaseError("find user", err)
	}

	if entity == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		s.logger.Info("Login failed", zap.String("reason", "unknown login"))
		return nil, errors.NewInvalidCredentialsError()
	}
	if !entity.CheckPassword(password) {
		s.logger.Info("Login failed",
			zap.String("reason", "wrong password"),
			zap.Uint("user_id", entity.ID()),
		)
		return nil, errors.NewInvalidCredentialsError()
	}

	return assembler.PrivateUser(entity), nil
}

// GetProfile returns the public profile with the user's recipe count
func (s *UserService) GetProfile(ctx context.Context, username string) (*inbound.UserDTO, error) {
	entity, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, toAppError(err, "find user")
	}

	count, err := s.recipes.CountByAuthor(ctx, entity.ID())
	if err != nil {
		return nil, errors.NewDatabaseError("count recipes", err)
	}

	dto := assembler.PublicUser(entity)
	dto.RecipeCount = &count
	return dto, nil
}

// GetPrivateProfile returns the signed-in user's own profile, email included
func (s *UserService) GetPrivateProfile(ctx context.Context, userID uint) (*inbound.UserDTO, error) {
	entity, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, toAppError(err, "find user")
	}

	count, err := s.recipes.CountByAuthor(ctx, entity.ID())
	if err != nil {
		return nil, errors.NewDatabaseError("count recipes", err)
	}

	dto := assembler.PrivateUser(entity)
	dto.RecipeCount = &count
	return dto, nil
}

// UpdateProfile patches the profile of username; only its owner may
func (s *UserService) UpdateProfile(ctx context.Context, username string, requesterID uint, cmd inbound.UpdateProfileCommand) (*inbound.UserDTO, error) {
	var updated *user.User

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		entity, err := s.users.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		if entity.ID() != requesterID {
			return errors.NewInsufficientPermissionsError("edit this profile")
		}

		if cmd.Email != nil {
			if err := entity.ChangeEmail(*cmd.Email); err != nil {
				return err
			}
			taken, err := s.users.ExistsByEmail(ctx, entity.Email(), entity.ID())
			if err != nil {
				return err
			}
			if taken {
				return errors.NewEmailAlreadyExistsError(entity.Email())
			}
		}
		if cmd.Password != nil {
			if err := entity.ChangePassword(*cmd.Password, s.bcryptCost); err != nil {
				return err
			}
		}
		if cmd.Bio != nil {
			if err := entity.UpdateBio(*cmd.Bio); err != nil {
				return err
			}
		}
		if cmd.Country != nil {
			if err := entity.UpdateCountry(*cmd.Country); err != nil {
				return err
			}
		}

		if err := s.users.Update(ctx, entity); err != nil {
			return err
		}
		updated = entity
		return nil
	})
	if stderrors.Is(err, outbound.ErrDuplicate) {
		return nil, errors.NewConflictError("Email already exists")
	}
	if err != nil {
		return nil, toAppError(err, "update profile")
	}

	s.logger.Info("Profile updated",
		zap.Uint("user_id", updated.ID()),
		zap.Bool("password_changed", cmd.Password != nil),
	)

	return assembler.PrivateUser(updated), nil
}

// DeleteAccount removes the user and everything they own
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return toAppError(err, "delete user")
	}

	s.events.Publish(ctx, user.DeletedEvent{UserID: userID, DeletedAt: time.Now().UTC()})
	s.logger.Info("Account deleted", zap.Uint("user_id", userID))
	return nil
}

// ListUserRecipes lists the recipes authored by username, newest first
func (s *UserService) ListUserRecipes(ctx context.Context, username string, page inbound.PageQuery, viewerID uint) (*inbound.List[inbound.RecipeDTO], error) {
	entity, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, toAppError(err, "find user")
	}

	return s.recipeSvc.ListRecipes(ctx, inbound.ListRecipesQuery{
		AuthorID: entity.ID(),
		Page:     page,
		ViewerID: viewerID,
	})
}

var validationErrors = []error{
	user.ErrUsernameRequired,
	user.ErrInvalidUsername,
	user.ErrEmailRequired,
	user.ErrInvalidEmail,
	user.ErrPasswordRequired,
	user.ErrPasswordTooShort,
	user.ErrPasswordTooLong,
	user.ErrBioTooLong,
	user.ErrCountryTooLong,
}

func toAppError(err error, operation string) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	for _, v := range validationErrors {
		if stderrors.Is(err, v) {
			return errors.NewValidationError(err.Error())
		}
	}
	if stderrors.Is(err, user.ErrUserNotFound) {
		return errors.NewNotFoundError("user")
	}
	return errors.NewDatabaseError(operation, err)
}
