package inbound

import "context"

// UserService defines identity and profile use cases
type UserService interface {
	Register(ctx context.Context, cmd RegisterCommand) (*UserDTO, error)
	// Authenticate accepts a username or an email as login
	Authenticate(ctx context.Context, login, password string) (*UserDTO, error)
	GetProfile(ctx context.Context, username string) (*UserDTO, error)
	GetPrivateProfile(ctx context.Context, userID uint) (*UserDTO, error)
	UpdateProfile(ctx context.Context, username string, requesterID uint, cmd UpdateProfileCommand) (*UserDTO, error)
	DeleteAccount(ctx context.Context, userID uint) error
	ListUserRecipes(ctx context.Context, username string, page PageQuery, viewerID uint) (*List[RecipeDTO], error)
}

// RegisterCommand contains data for a new account
type RegisterCommand struct {
	Username string
	Email    string
	Password string
	Bio      string
	Country  string
}

// UpdateProfileCommand is a patch; nil fields are left untouched
type UpdateProfileCommand struct {
	Email    *string
	Password *string
	Bio      *string
	Country  *string
}
