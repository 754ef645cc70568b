// Package recipe contains the recipe aggregate: a recipe, its ordered steps
// and the ordered ingredients of each step.
package recipe

import (
	"time"

	"github.com/recipeatlas/server/internal/domain/shared"
)

// Recipe is the aggregate root. A recipe is either in text mode
// (instructions set, no steps) or structured mode (steps set, instructions
// empty); the mutators below keep the two exclusive.
type Recipe struct {
	id           uint
	title        string
	slug         string
	description  string
	instructions string
	imageURL     string
	authorID     uint
	stateID      uint
	steps        []Step
	createdAt    time.Time
	updatedAt    time.Time
}

// Draft holds the input for a new recipe
type Draft struct {
	AuthorID     uint
	StateID      uint
	Title        string
	Description  string
	Instructions string
	ImageURL     string
	Steps        []StepDraft
}

// NewRecipe validates a draft and builds an unsaved recipe. When the draft
// has at least one non-blank step the recipe is structured and the
// instructions text is discarded.
func NewRecipe(d Draft) (*Recipe, error) {
	if d.AuthorID == 0 {
		return nil, ErrAuthorRequired
	}

	now := time.Now().UTC()
	r := &Recipe{
		authorID:  d.AuthorID,
		createdAt: now,
		updatedAt: now,
	}

	if err := r.MoveTo(d.StateID); err != nil {
		return nil, err
	}
	if err := r.Rename(d.Title); err != nil {
		return nil, err
	}
	if err := r.SetDescription(d.Description); err != nil {
		return nil, err
	}
	if err := r.SetImageURL(d.ImageURL); err != nil {
		return nil, err
	}

	steps, err := BuildSteps(d.Steps)
	if err != nil {
		return nil, err
	}
	if len(steps) > 0 {
		r.steps = steps
	} else if err := r.UseInstructions(d.Instructions); err != nil {
		return nil, err
	}

	r.updatedAt = r.createdAt
	return r, nil
}

// ID returns the recipe's identifier (zero until persisted)
func (r *Recipe) ID() uint { return r.id }

// Title returns the recipe's title
func (r *Recipe) Title() string { return r.title }

// Slug returns the recipe's URL slug
func (r *Recipe) Slug() string { return r.slug }

// Description returns the optional description
func (r *Recipe) Description() string { return r.description }

// Instructions returns the freeform instructions (text mode only)
func (r *Recipe) Instructions() string { return r.instructions }

// ImageURL returns the optional image URL
func (r *Recipe) ImageURL() string { return r.imageURL }

// AuthorID returns the author's user ID
func (r *Recipe) AuthorID() uint { return r.authorID }

// StateID returns the state the recipe is located in
func (r *Recipe) StateID() uint { return r.stateID }

// Steps returns the ordered steps (structured mode only)
func (r *Recipe) Steps() []Step { return r.steps }

// CreatedAt returns when the recipe was created
func (r *Recipe) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns when the recipe was last modified
func (r *Recipe) UpdatedAt() time.Time { return r.updatedAt }

// Mode reports the recipe's representation
func (r *Recipe) Mode() Mode {
	if len(r.steps) > 0 {
		return ModeStructured
	}
	return ModeText
}

// IsOwnedBy reports whether userID authored the recipe
func (r *Recipe) IsOwnedBy(userID uint) bool {
	return userID != 0 && r.authorID == userID
}

// Rename validates and sets the title. The slug is not touched; callers
// assign a fresh unique slug with AssignSlug.
func (r *Recipe) Rename(title string) error {
	title = shared.CleanText(title)
	if title == "" {
		return ErrTitleRequired
	}
	if shared.TooLong(title, 255) {
		return ErrTitleTooLong
	}
	r.title = title
	r.touch()
	return nil
}

// AssignSlug sets the slug chosen by the caller
func (r *Recipe) AssignSlug(slug string) {
	r.slug = slug
	r.touch()
}

// SetDescription sets the optional description
func (r *Recipe) SetDescription(description string) error {
	description = shared.CleanText(description)
	if shared.TooLong(description, 10000) {
		return ErrDescriptionTooLong
	}
	r.description = description
	r.touch()
	return nil
}

// SetImageURL sets the optional image URL
func (r *Recipe) SetImageURL(url string) error {
	url = shared.CleanText(url)
	if shared.TooLong(url, 500) {
		return ErrImageURLTooLong
	}
	r.imageURL = url
	r.touch()
	return nil
}

// MoveTo relocates the recipe to another state
func (r *Recipe) MoveTo(stateID uint) error {
	if stateID == 0 {
		return ErrStateRequired
	}
	r.stateID = stateID
	r.touch()
	return nil
}

// UseInstructions switches the recipe to text mode, dropping all steps
func (r *Recipe) UseInstructions(instructions string) error {
	instructions = shared.CleanText(instructions)
	if shared.TooLong(instructions, 50000) {
		return ErrInstructionsTooLong
	}
	r.instructions = instructions
	r.steps = nil
	r.touch()
	return nil
}

// ReplaceSteps replaces the whole step tree. A non-empty result switches
// the recipe to structured mode and clears the instructions.
func (r *Recipe) ReplaceSteps(drafts []StepDraft) error {
	steps, err := BuildSteps(drafts)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		r.steps = nil
	} else {
		r.steps = steps
		r.instructions = ""
	}
	r.touch()
	return nil
}

func (r *Recipe) touch() {
	r.updatedAt = time.Now().UTC()
}

// Snapshot is the flat persisted form of a recipe
type Snapshot struct {
	ID           uint
	Title        string
	Slug         string
	Description  string
	Instructions string
	ImageURL     string
	AuthorID     uint
	StateID      uint
	Steps        []Step
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Snapshot exports the recipe's state for persistence
func (r *Recipe) Snapshot() Snapshot {
	return Snapshot{
		ID:           r.id,
		Title:        r.title,
		Slug:         r.slug,
		Description:  r.description,
		Instructions: r.instructions,
		ImageURL:     r.imageURL,
		AuthorID:     r.authorID,
		StateID:      r.stateID,
		Steps:        r.steps,
		CreatedAt:    r.createdAt,
		UpdatedAt:    r.updatedAt,
	}
}

// FromSnapshot rebuilds a recipe loaded from storage without validation
func FromSnapshot(s Snapshot) *Recipe {
	return &Recipe{
		id:           s.ID,
		title:        s.Title,
		slug:         s.Slug,
		description:  s.Description,
		instructions: s.Instructions,
		imageURL:     s.ImageURL,
		authorID:     s.AuthorID,
		stateID:      s.StateID,
		steps:        s.Steps,
		createdAt:    s.CreatedAt,
		updatedAt:    s.UpdatedAt,
	}
}
