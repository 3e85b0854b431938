package model

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Shivanand-hulikatti/house-calendar/internal/recurrence"
)

// ErrValidation is wrapped by every validation failure.
var ErrValidation = errors.New("validation failed")

// ValidationError lists the problems found on a value.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report problems under their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the event's required fields and invariants. It never
// consults storage; house ids are checked against the reference houses.
func (e *Event) Validate() error {
	var problems []string

	if err := validate.Struct(e); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describeFieldError(fe))
		}
	}

	if strings.TrimSpace(e.Title) == "" && !hasProblem(problems, "title") {
		problems = append(problems, "title is required")
	}
	if e.Start.IsZero() && !hasProblem(problems, "start") {
		problems = append(problems, "start is required")
	}
	if e.End != nil && e.End.Before(e.Start) {
		problems = append(problems, "end must not be before start")
	}
	if e.HouseID != nil {
		if _, ok := LookupHouse(*e.HouseID); !ok {
			problems = append(problems, "unknown house "+*e.HouseID)
		}
	}
	if e.IsCancelled && (e.CancelReason == nil || strings.TrimSpace(*e.CancelReason) == "") {
		problems = append(problems, "cancelled event needs a cancel reason")
	}
	if e.IsRecurring && e.RecurrencePattern != nil {
		if err := recurrence.Validate(*e.RecurrencePattern); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if e.RecurrenceEnd != nil && e.RecurrenceEnd.Before(e.Start) {
		problems = append(problems, "recurrence end must not be before start")
	}
	if _, ok := eventTypeNames[e.Type]; !ok {
		problems = append(problems, "unknown event type")
	}
	if _, ok := categoryNames[e.Category]; !ok {
		problems = append(problems, "unknown category")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	default:
		return field + " failed " + fe.Tag()
	}
}

func hasProblem(problems []string, field string) bool {
	for _, p := range problems {
		if strings.HasPrefix(p, field+" ") {
			return true
		}
	}
	return false
}
