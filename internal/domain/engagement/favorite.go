package engagement

import "time"

// FavoriteType tags what a favorite points at
type FavoriteType string

const (
	FavoriteUser    FavoriteType = "user"
	FavoriteRecipe  FavoriteType = "recipe"
	FavoriteState   FavoriteType = "state"
	FavoriteCountry FavoriteType = "country"
)

// FavoriteTypes lists every favoritable kind
var FavoriteTypes = []FavoriteType{FavoriteUser, FavoriteRecipe, FavoriteState, FavoriteCountry}

// ParseFavoriteType validates a raw favorite type
func ParseFavoriteType(s string) (FavoriteType, error) {
	for _, t := range FavoriteTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", ErrInvalidFavoriteType
}

// Subject is the thing a favorite refers to. It is a closed set:
// UserSubject, RecipeSubject, StateSubject and CountrySubject.
type Subject interface {
	Type() FavoriteType
	TargetID() uint
	isSubject()
}

type UserSubject struct{ ID uint }
type RecipeSubject struct{ ID uint }
type StateSubject struct{ ID uint }
type CountrySubject struct{ ID uint }

func (s UserSubject) Type() FavoriteType    { return FavoriteUser }
func (s RecipeSubject) Type() FavoriteType  { return FavoriteRecipe }
func (s StateSubject) Type() FavoriteType   { return FavoriteState }
func (s CountrySubject) Type() FavoriteType { return FavoriteCountry }

func (s UserSubject) TargetID() uint    { return s.ID }
func (s RecipeSubject) TargetID() uint  { return s.ID }
func (s StateSubject) TargetID() uint   { return s.ID }
func (s CountrySubject) TargetID() uint { return s.ID }

func (UserSubject) isSubject()    {}
func (RecipeSubject) isSubject()  {}
func (StateSubject) isSubject()   {}
func (CountrySubject) isSubject() {}

// NewSubject builds the subject variant for a type tag and id
func NewSubject(t FavoriteType, id uint) (Subject, error) {
	if id == 0 {
		return nil, ErrInvalidTargetID
	}
	switch t {
	case FavoriteUser:
		return UserSubject{ID: id}, nil
	case FavoriteRecipe:
		return RecipeSubject{ID: id}, nil
	case FavoriteState:
		return StateSubject{ID: id}, nil
	case FavoriteCountry:
		return CountrySubject{ID: id}, nil
	}
	return nil, ErrInvalidFavoriteType
}

// Favorite records that a user favorited a subject. The subject id is not a
// foreign key, so the target may since have been deleted.
type Favorite struct {
	ID        uint
	UserID    uint
	Subject   Subject
	CreatedAt time.Time
}

// NewFavorite builds an unsaved favorite
func NewFavorite(userID uint, subject Subject) *Favorite {
	return &Favorite{UserID: userID, Subject: subject, CreatedAt: time.Now().UTC()}
}

// IsOwnedBy reports whether userID holds the favorite
func (f *Favorite) IsOwnedBy(userID uint) bool {
	return userID != 0 && f.UserID == userID
}
