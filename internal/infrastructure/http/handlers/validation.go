package handlers

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/recipeatlas/server/pkg/errors"
)

// Validator checks request shapes before they reach the services. Content
// rules (username pattern, length limits) stay in the domain.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator that reports fields by their JSON name
func NewValidator() *Validator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = validate.RegisterValidation("favorite_type", validateFavoriteType)

	return &Validator{validate: validate}
}

// Struct validates s and converts failures into a ValidationError
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewValidationError(err.Error())
	}

	out := make([]errors.ValidationError, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		out = append(out, errors.ValidationError{
			Field:   fieldPath(e),
			Tag:     e.Tag(),
			Message: fieldMessage(e),
		})
	}
	return errors.NewValidationErrors(out)
}

// fieldPath drops the root struct name: "createRecipeRequest.steps[0].instruction"
// becomes "steps[0].instruction".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func fieldMessage(e validator.FieldError) string {
	field := fieldPath(e)
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(e.Param(), " ", ", "))
	case "favorite_type":
		return fmt.Sprintf("%s must be one of: user, recipe, state, country", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func validateFavoriteType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "user", "recipe", "state", "country":
		return true
	}
	return false
}
