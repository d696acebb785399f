package encoder

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"clusterform/internal/domain"
)

// Encode maps raw values onto a vector laid out by plan.
//
// Features are visited in plan order and the first unusable value stops
// encoding; no partial vector is returned on error.
func Encode(raw domain.RawValues, plan *domain.EncodingPlan) ([]float64, error) {
	v := make([]float64, plan.VectorLength())
	for _, slot := range plan.Slots() {
		if err := encodeSlot(v, slot, raw); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Validate checks every feature and joins all field errors, so callers can
// report them together. It returns nil when Encode would succeed.
func Validate(raw domain.RawValues, plan *domain.EncodingPlan) error {
	scratch := make([]float64, plan.VectorLength())
	var errs []error
	for _, slot := range plan.Slots() {
		if err := encodeSlot(scratch, slot, raw); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func encodeSlot(v []float64, slot domain.SlotAssignment, raw domain.RawValues) error {
	value, present := raw[slot.Name]

	switch enc := slot.Encoding.(type) {
	case domain.Numeric:
		s := strings.TrimSpace(value)
		if !present || s == "" {
			return fieldErr(slot, value, domain.ErrMissingRequiredField)
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			return fieldErr(slot, value, domain.ErrInvalidNumber)
		}
		if enc.Std != 0 {
			x = (x - enc.Mean) / enc.Std
		}
		v[slot.Start] = x

	case domain.Ordinal:
		if !present || strings.TrimSpace(value) == "" {
			return fieldErr(slot, value, domain.ErrMissingRequiredField)
		}
		idx := indexOf(enc.Order, value)
		if idx < 0 {
			return fieldErr(slot, value, domain.ErrInvalidCategoryValue)
		}
		v[slot.Start] = float64(idx)

	case domain.Nominal:
		if !present || strings.TrimSpace(value) == "" {
			return fieldErr(slot, value, domain.ErrMissingRequiredField)
		}
		pos := indexOf(enc.Values, value)
		if pos < 0 {
			return fieldErr(slot, value, domain.ErrInvalidCategoryValue)
		}
		for i := range enc.Values {
			v[slot.Start+i] = 0
		}
		v[slot.Start+pos] = 1

	default:
		return &domain.SpecError{Feature: slot.Name, Reason: "unsupported encoding"}
	}
	return nil
}

func fieldErr(slot domain.SlotAssignment, value string, kind error) error {
	return &domain.FieldError{
		Feature: slot.Name,
		Kind:    slot.Encoding.Kind(),
		Value:   value,
		Err:     kind,
	}
}

func indexOf(list []string, value string) int {
	for i, s := range list {
		if s == value {
			return i
		}
	}
	return -1
}
