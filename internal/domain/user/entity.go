// Package user defines the user domain entity
package user

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/recipeatlas/server/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrInvalidUsername  = errors.New("username must be 3-30 characters, alphanumeric and underscores only")
	ErrEmailRequired    = errors.New("email is required")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password must be 72 bytes or less")
	ErrBioTooLong       = errors.New("bio must be 1000 characters or less")
	ErrCountryTooLong   = errors.New("country must be 100 characters or less")
	ErrUserNotFound     = errors.New("user not found")
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// User represents a registered account
type User struct {
	id           uint
	username     string
	email        string
	passwordHash string
	bio          string
	country      string
	createdAt    time.Time
	updatedAt    time.Time
}

// Registration holds the input for a new account
type Registration struct {
	Username string
	Email    string
	Password string
	Bio      string
	Country  string
}

// NewUser validates a registration and hashes the password with the given
// bcrypt cost (bcrypt.DefaultCost when cost is zero).
func NewUser(reg Registration, cost int) (*User, error) {
	if err := ValidateUsername(reg.Username); err != nil {
		return nil, err
	}

	u := &User{username: reg.Username}
	if err := u.ChangeEmail(reg.Email); err != nil {
		return nil, err
	}
	if err := u.ChangePassword(reg.Password, cost); err != nil {
		return nil, err
	}
	if err := u.UpdateBio(reg.Bio); err != nil {
		return nil, err
	}
	if err := u.UpdateCountry(reg.Country); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u.createdAt = now
	u.updatedAt = now
	return u, nil
}

// ID returns the user's ID
func (u *User) ID() uint {
	return u.id
}

// Username returns the unique handle
func (u *User) Username() string {
	return u.username
}

// Email returns the user's email
func (u *User) Email() string {
	return u.email
}

// PasswordHash returns the bcrypt hash
func (u *User) PasswordHash() string {
	return u.passwordHash
}

// Bio returns the optional biography
func (u *User) Bio() string {
	return u.bio
}

// Country returns the free-text home country
func (u *User) Country() string {
	return u.country
}

// CreatedAt returns when the user was created
func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

// UpdatedAt returns when the user was last updated
func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// CheckPassword verifies if the provided password matches
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) == nil
}

// ChangePassword validates and re-hashes the password
func (u *User) ChangePassword(password string, cost int) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return errors.New("failed to hash password")
	}

	u.passwordHash = string(hashed)
	u.updatedAt = time.Now().UTC()
	return nil
}

// ChangeEmail validates and sets the email address (stored lower-cased)
func (u *User) ChangeEmail(email string) error {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}
	u.email = strings.ToLower(email)
	u.updatedAt = time.Now().UTC()
	return nil
}

// UpdateBio sets the biography
func (u *User) UpdateBio(bio string) error {
	bio = shared.CleanText(bio)
	if shared.TooLong(bio, 1000) {
		return ErrBioTooLong
	}
	u.bio = bio
	u.updatedAt = time.Now().UTC()
	return nil
}

// UpdateCountry sets the free-text country
func (u *User) UpdateCountry(country string) error {
	country = shared.CleanText(country)
	if shared.TooLong(country, 100) {
		return ErrCountryTooLong
	}
	u.country = country
	u.updatedAt = time.Now().UTC()
	return nil
}

// Validation functions

// ValidateUsername checks the handle format
func ValidateUsername(username string) error {
	if username == "" {
		return ErrUsernameRequired
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateEmail checks the address format
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > 255 || !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword checks the plaintext password bounds
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < 6 {
		return ErrPasswordTooShort
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}
	return nil
}

// Snapshot is the flat persisted form of a user
type Snapshot struct {
	ID           uint
	Username     string
	Email        string
	PasswordHash string
	Bio          string
	Country      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Snapshot exports the user's state for persistence
func (u *User) Snapshot() Snapshot {
	return Snapshot{
		ID:           u.id,
		Username:     u.username,
		Email:        u.email,
		PasswordHash: u.passwordHash,
		Bio:          u.bio,
		Country:      u.country,
		CreatedAt:    u.createdAt,
		UpdatedAt:    u.updatedAt,
	}
}

// FromSnapshot rebuilds a user loaded from storage
func FromSnapshot(s Snapshot) *User {
	return &User{
		id:           s.ID,
		username:     s.Username,
		email:        s.Email,
		passwordHash: s.PasswordHash,
		bio:          s.Bio,
		country:      s.Country,
		createdAt:    s.CreatedAt,
		updatedAt:    s.UpdatedAt,
	}
}
