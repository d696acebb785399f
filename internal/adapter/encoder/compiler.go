package encoder

import (
	"fmt"
	"math"

	"clusterform/internal/domain"
)

// Compile turns an ordered feature list into an encoding plan.
// Numeric and ordinal features take one slot each; nominal features take
// one slot per declared value. The input is not retained.
func Compile(features []domain.FeatureDescriptor) (*domain.EncodingPlan, error) {
	names := make([]string, 0, len(features))
	encodings := make([]domain.Encoding, 0, len(features))
	seen := make(map[string]bool, len(features))

	for i, f := range features {
		if f.Name == "" {
			return nil, &domain.SpecError{Index: i, Reason: "missing name"}
		}
		if seen[f.Name] {
			return nil, &domain.SpecError{Index: i, Feature: f.Name, Reason: "duplicate name"}
		}
		seen[f.Name] = true

		enc, err := compileFeature(f)
		if err != nil {
			return nil, &domain.SpecError{Index: i, Feature: f.Name, Reason: err.Error()}
		}
		names = append(names, f.Name)
		encodings = append(encodings, enc)
	}

	return domain.NewEncodingPlan(names, encodings), nil
}

func compileFeature(f domain.FeatureDescriptor) (domain.Encoding, error) {
	kind, ok := domain.ParseFeatureKind(f.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", f.Kind)
	}

	switch kind {
	case domain.KindNumeric:
		mean, std := 0.0, 1.0
		if f.Mean != nil {
			mean = *f.Mean
		}
		if f.Std != nil {
			std = *f.Std
		}
		if math.IsNaN(mean) || math.IsInf(mean, 0) {
			return nil, fmt.Errorf("mean is not finite")
		}
		if math.IsNaN(std) || math.IsInf(std, 0) || std < 0 {
			return nil, fmt.Errorf("std must be a finite non-negative number")
		}
		return domain.Numeric{Mean: mean, Std: std}, nil

	case domain.KindOrdinal:
		order, err := categories(f.Order, "order")
		if err != nil {
			return nil, err
		}
		return domain.Ordinal{Order: order}, nil

	case domain.KindNominal:
		values, err := categories(f.Values, "values")
		if err != nil {
			return nil, err
		}
		return domain.Nominal{Values: values}, nil
	}

	return nil, fmt.Errorf("unknown kind %q", f.Kind)
}

func categories(in []string, field string) ([]string, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%s is empty", field)
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, len(in))
	for i, c := range in {
		if seen[c] {
			return nil, fmt.Errorf("%s has duplicate category %q", field, c)
		}
		seen[c] = true
		out[i] = c
	}
	return out, nil
}
