package engagement

import "time"

// VoteCastEvent is raised when a vote is inserted or overwritten
type VoteCastEvent struct {
	UserID uint
	Target Target
	Type   VoteType
	At     time.Time
}

func (e VoteCastEvent) EventName() string     { return "vote.cast" }
func (e VoteCastEvent) OccurredAt() time.Time { return e.At }

// VoteClearedEvent is raised when a vote is removed
type VoteClearedEvent struct {
	UserID uint
	Target Target
	At     time.Time
}

func (e VoteClearedEvent) EventName() string     { return "vote.cleared" }
func (e VoteClearedEvent) OccurredAt() time.Time { return e.At }

// CommentAddedEvent is raised when a comment or reply is posted
type CommentAddedEvent struct {
	CommentID uint
	RecipeID  uint
	IsReply   bool
	At        time.Time
}

func (e CommentAddedEvent) EventName() string     { return "comment.added" }
func (e CommentAddedEvent) OccurredAt() time.Time { return e.At }

// CommentDeletedEvent is raised when a comment and its replies are removed
type CommentDeletedEvent struct {
	CommentID uint
	RecipeID  uint
	At        time.Time
}

func (e CommentDeletedEvent) EventName() string     { return "comment.deleted" }
func (e CommentDeletedEvent) OccurredAt() time.Time { return e.At }

// FavoriteAddedEvent is raised when a favorite is stored
type FavoriteAddedEvent struct {
	FavoriteID uint
	UserID     uint
	Type       FavoriteType
	At         time.Time
}

func (e FavoriteAddedEvent) EventName() string     { return "favorite.added" }
func (e FavoriteAddedEvent) OccurredAt() time.Time { return e.At }

// FavoriteRemovedEvent is raised when a favorite is deleted
type FavoriteRemovedEvent struct {
	FavoriteID uint
	Type       FavoriteType
	At         time.Time
}

func (e FavoriteRemovedEvent) EventName() string     { return "favorite.removed" }
func (e FavoriteRemovedEvent) OccurredAt() time.Time { return e.At }
