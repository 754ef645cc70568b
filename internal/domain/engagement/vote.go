package engagement

import "time"

// VoteType is the direction of a vote
type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

// ParseVoteType validates a raw vote type
func ParseVoteType(s string) (VoteType, error) {
	switch VoteType(s) {
	case Upvote, Downvote:
		return VoteType(s), nil
	}
	return "", ErrInvalidVoteType
}

// TargetKind is the kind of entity a vote is cast on
type TargetKind string

const (
	TargetRecipe  TargetKind = "recipe"
	TargetComment TargetKind = "comment"
)

// Target identifies a votable entity
type Target struct {
	Kind TargetKind
	ID   uint
}

// RecipeTarget returns the vote target for a recipe
func RecipeTarget(id uint) Target { return Target{Kind: TargetRecipe, ID: id} }

// CommentTarget returns the vote target for a comment
func CommentTarget(id uint) Target { return Target{Kind: TargetComment, ID: id} }

// Validate checks the target kind and id
func (t Target) Validate() error {
	if t.Kind != TargetRecipe && t.Kind != TargetComment {
		return ErrInvalidTargetKind
	}
	if t.ID == 0 {
		return ErrInvalidTargetID
	}
	return nil
}

// Vote is a user's single live vote on a target. There is at most one
// vote per (user, target); a new choice overwrites the type in place.
type Vote struct {
	ID        uint
	UserID    uint
	Target    Target
	Type      VoteType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tally is the vote summary of one target, computed from live rows
type Tally struct {
	Upvotes   int64
	Downvotes int64
	UserVote  *VoteType
}

// Score is upvotes minus downvotes
func (t Tally) Score() int64 {
	return t.Upvotes - t.Downvotes
}

// Add counts one vote into the tally
func (t *Tally) Add(v VoteType, n int64) {
	switch v {
	case Upvote:
		t.Upvotes += n
	case Downvote:
		t.Downvotes += n
	}
}
