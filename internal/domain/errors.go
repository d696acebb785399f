package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidFeatureSpec   = errors.New("invalid feature spec")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidCategoryValue = errors.New("invalid category value")
	ErrInvalidNumber        = errors.New("invalid number")
	ErrDimensionMismatch    = errors.New("dimension mismatch")
	ErrEmptyModel           = errors.New("empty model")
	ErrInvalidModel         = errors.New("invalid model definition")
)

// SpecError reports a malformed feature descriptor.
type SpecError struct {
	Index   int
	Feature string
	Reason  string
}

func (e *SpecError) Error() string {
	if e.Feature == "" {
		return fmt.Sprintf("%s: feature #%d: %s", ErrInvalidFeatureSpec, e.Index, e.Reason)
	}
	return fmt.Sprintf("%s: feature %q: %s", ErrInvalidFeatureSpec, e.Feature, e.Reason)
}

func (e *SpecError) Unwrap() error {
	return ErrInvalidFeatureSpec
}

// FieldError reports an unusable raw value for one feature.
type FieldError struct {
	Feature string
	Kind    FeatureKind
	Value   string
	Err     error
}

func (e *FieldError) Error() string {
	switch {
	case errors.Is(e.Err, ErrMissingRequiredField):
		return fmt.Sprintf("%s: %s", e.Err, e.Feature)
	default:
		return fmt.Sprintf("%s for %s: %q", e.Err, e.Feature, e.Value)
	}
}

// Unwrap exposes the error kind. A missing categorical value also counts
// as an invalid category value.
func (e *FieldError) Unwrap() []error {
	if errors.Is(e.Err, ErrMissingRequiredField) && e.Kind != KindNumeric {
		return []error{e.Err, ErrInvalidCategoryValue}
	}
	return []error{e.Err}
}

// DimensionError reports a centroid whose length differs from the input.
type DimensionError struct {
	ClusterID ClusterID
	Expected  int
	Actual    int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: centroid %s has %d dimensions, expected %d",
		ErrDimensionMismatch, e.ClusterID, e.Actual, e.Expected)
}

func (e *DimensionError) Unwrap() error {
	return ErrDimensionMismatch
}
