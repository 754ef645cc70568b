package recipe

import (
	"time"

	"github.com/recipeatlas/server/internal/domain/shared"
)

// Step is one ordered instruction of a structured recipe.
// Number is 1-based and unique within the recipe.
type Step struct {
	ID              uint
	Number          int
	Instruction     string
	ImageURL        string
	DurationMinutes *int
	Ingredients     []Ingredient
	CreatedAt       time.Time
}

// Ingredient belongs to a step. Order is 0-based display order within the
// step; it is not unique, ties fall back to insertion (ID) order.
type Ingredient struct {
	ID        uint
	Name      string
	Quantity  *float64
	Unit      string
	Notes     string
	Order     int
	CreatedAt time.Time
}

// StepDraft is caller input for a step before numbering
type StepDraft struct {
	Instruction     string
	ImageURL        string
	DurationMinutes *int
	Ingredients     []IngredientDraft
}

// IngredientDraft is caller input for an ingredient before ordering
type IngredientDraft struct {
	Name     string
	Quantity *float64
	Unit     string
	Notes    string
}

// BuildSteps turns drafts into numbered steps. Drafts with a blank
// instruction and ingredients with a blank name are dropped silently;
// survivors are numbered from 1 (steps) and 0 (ingredients).
func BuildSteps(drafts []StepDraft) ([]Step, error) {
	steps := make([]Step, 0, len(drafts))
	for _, d := range drafts {
		instruction := shared.CleanText(d.Instruction)
		if instruction == "" {
			continue
		}
		if shared.TooLong(instruction, 10000) {
			return nil, ErrStepInstructionTooLong
		}
		if d.DurationMinutes != nil && *d.DurationMinutes < 0 {
			return nil, ErrNegativeDuration
		}
		imageURL := shared.CleanText(d.ImageURL)
		if shared.TooLong(imageURL, 500) {
			return nil, ErrImageURLTooLong
		}

		ingredients, err := buildIngredients(d.Ingredients)
		if err != nil {
			return nil, err
		}

		steps = append(steps, Step{
			Number:          len(steps) + 1,
			Instruction:     instruction,
			ImageURL:        imageURL,
			DurationMinutes: d.DurationMinutes,
			Ingredients:     ingredients,
		})
	}
	return steps, nil
}

func buildIngredients(drafts []IngredientDraft) ([]Ingredient, error) {
	ingredients := make([]Ingredient, 0, len(drafts))
	for _, d := range drafts {
		name := shared.CleanText(d.Name)
		if name == "" {
			continue
		}
		if shared.TooLong(name, 255) {
			return nil, ErrIngredientNameTooLong
		}
		unit := shared.CleanText(d.Unit)
		if shared.TooLong(unit, 50) {
			return nil, ErrIngredientUnitTooLong
		}
		if d.Quantity != nil && *d.Quantity < 0 {
			return nil, ErrNegativeQuantity
		}
		ingredients = append(ingredients, Ingredient{
			Name:     name,
			Quantity: d.Quantity,
			Unit:     unit,
			Notes:    shared.CleanText(d.Notes),
			Order:    len(ingredients),
		})
	}
	return ingredients, nil
}

// Mode tells whether a recipe carries freeform instructions or steps
type Mode string

const (
	ModeText       Mode = "text"
	ModeStructured Mode = "structured"
)
