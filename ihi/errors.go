package ihi

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Sentinel errors for each class of validation failure. A *ValidationError
// unwraps to exactly one of these, so callers can use errors.Is.
var (
	ErrMissingRequiredField        = errors.New("missing required field")
	ErrForbiddenFieldPresent       = errors.New("forbidden field present")
	ErrAtLeastOneOfRequiredMissing = errors.New("at least one of the fields is required")
	ErrInvalidIdentifierLength     = errors.New("invalid request identifier length")
	ErrInvalidDateTime             = errors.New("invalid date time")
	ErrDuplicateIdentifier         = errors.New("duplicate request identifier")
	ErrUnknownKind                 = errors.New("unknown search kind")
)

// Violation names the way in which a field failed validation
type Violation string

// List of violations
const (
	Required           Violation = "Required"
	NotAllowed         Violation = "NotAllowed"
	AtLeastOneRequired Violation = "AtLeastOneRequired"
	InvalidLength      Violation = "InvalidLength"
	InvalidDateTime    Violation = "InvalidDateTime"
	Duplicate          Violation = "Duplicate"
)

// ValidationError reports the first constraint violated by a set of search criteria.
type ValidationError struct {
	Kind      Kind
	Violation Violation
	Fields    []string // dotted path(s), e.g. search.australianStreetAddress.postcode
	Value     string   // offending value, for length, date-time and duplicate violations
}

// Field returns the (first) field path that failed validation
func (e *ValidationError) Field() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0]
}

func (e *ValidationError) Error() string {
	switch e.Violation {
	case Required:
		return fmt.Sprintf("ihi: %s search: %s is required", e.Kind, e.Field())
	case NotAllowed:
		return fmt.Sprintf("ihi: %s search: %s is not allowed", e.Kind, e.Field())
	case AtLeastOneRequired:
		return fmt.Sprintf("ihi: %s search: at least one of %s is required", e.Kind, strings.Join(e.Fields, ", "))
	case InvalidLength:
		return fmt.Sprintf("ihi: %s search: %s must be %d characters, got %d", e.Kind, e.Field(), RequestIdentifierLength, utf8.RuneCountInString(e.Value))
	case InvalidDateTime:
		return fmt.Sprintf("ihi: %s search: %s is not a valid date time: '%s'", e.Kind, e.Field(), e.Value)
	case Duplicate:
		return fmt.Sprintf("ihi: %s search: %s '%s' is already in the batch", e.Kind, e.Field(), e.Value)
	}
	return fmt.Sprintf("ihi: %s search: invalid %s", e.Kind, e.Field())
}

// Unwrap returns the sentinel error for this violation
func (e *ValidationError) Unwrap() error {
	switch e.Violation {
	case Required:
		return ErrMissingRequiredField
	case NotAllowed:
		return ErrForbiddenFieldPresent
	case AtLeastOneRequired:
		return ErrAtLeastOneOfRequiredMissing
	case InvalidLength:
		return ErrInvalidIdentifierLength
	case InvalidDateTime:
		return ErrInvalidDateTime
	case Duplicate:
		return ErrDuplicateIdentifier
	}
	return nil
}

type unknownKindError struct {
	name string
}

func (e *unknownKindError) Error() string {
	return fmt.Sprintf("ihi: unknown search kind '%s'", e.name)
}

func (e *unknownKindError) Unwrap() error { return ErrUnknownKind }
