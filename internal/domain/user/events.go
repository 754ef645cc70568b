package user

import "time"

// RegisteredEvent is raised when an account is created
type RegisteredEvent struct {
	UserID       uint
	Username     string
	RegisteredAt time.Time
}

func (e RegisteredEvent) EventName() string { return "user.registered" }

func (e RegisteredEvent) OccurredAt() time.Time { return e.RegisteredAt }

// DeletedEvent is raised when an account and its content are removed
type DeletedEvent struct {
	UserID    uint
	DeletedAt time.Time
}

func (e DeletedEvent) EventName() string { return "user.deleted" }

func (e DeletedEvent) OccurredAt() time.Time { return e.DeletedAt }
