package encoder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"clusterform/internal/domain"
)

func mustCompile(t *testing.T, features []domain.FeatureDescriptor) *domain.EncodingPlan {
	t.Helper()
	plan, err := Compile(features)
	require.NoError(t, err)
	return plan
}

func TestEncode_Example(t *testing.T) {
	plan := mustCompile(t, []domain.FeatureDescriptor{
		{Name: "age", Kind: "numeric", Mean: f64(30), Std: f64(10)},
		{Name: "owns_home", Kind: "nominal", Values: []string{"yes", "no"}},
	})
	require.Equal(t, 3, plan.VectorLength())

	v, err := Encode(domain.RawValues{"age": "40", "owns_home": "yes"}, plan)
	require.NoError(t, err)
	require.Equal(t, []float64{1.0, 1.0, 0.0}, v)
}

func TestEncode_PlanUnaffectedBySlotMutation(t *testing.T) {
	plan := mustCompile(t, []domain.FeatureDescriptor{
		{Name: "edu", Kind: "ordinal", Order: []string{"basic", "phd"}},
		{Name: "home", Kind: "nominal", Values: []string{"yes", "no"}},
	})

	slots := plan.Slots()
	slots[0].Encoding.(domain.Ordinal).Order[0] = "changed"
	slots[1].Encoding.(domain.Nominal).Values[0] = "changed"
	slot, ok := plan.Slot("edu")
	require.True(t, ok)
	slot.Encoding.(domain.Ordinal).Order[1] = "changed"

	v, err := Encode(domain.RawValues{"edu": "basic", "home": "yes"}, plan)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1, 0}, v)

	v, err = Encode(domain.RawValues{"edu": "phd", "home": "no"}, plan)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 0, 1}, v)
}

func TestEncode_NumericAtMeanIsZero(t *testing.T) {
	plan := mustCompile(t, []domain.FeatureDescriptor{
		{Name: "income", Kind: "numeric", Mean: f64(52000.5), Std: f64(21000)},
	})

	v, err := Encode(domain.RawValues{"income": "52000.5"}, plan)
	require.NoError(t, err)
	require.Equal(t, 0.0, v[0])
}

func TestEncode_NumericZeroStdKeepsRawValue(t *testing.T) {
	plan := mustCompile(t, []domain.FeatureDescriptor{
		{Name: "kids", Kind: "numeric", Mean: f64(2), Std: f64(0)},
	})

	v, err := Encode(domain.RawValues{"kids": " 3 "}, plan)
	require.NoError(t, err)
	require.Equal(t, []float64{3}, v)
}

func TestEncode_OrdinalBounds(t *testing.T) {
	order := []string{"basic", "graduate", "master", "phd"}
	plan := mustCompile(t, []domain.FeatureDescriptor{{Name: "edu", Kind: "ordinal", Order: order}})

	first, err := Encode(domain.RawValues{"edu": "basic"}, plan)
	require.NoError(t, err)
	require.Equal(t, 0.0, first[0])

	last, err := Encode(domain.RawValues{"edu": "phd"}, plan)
	require.NoError(t, err)
	require.Equal(t, float64(len(order)-1), last[0])
}

func TestEncode_OneHotExclusive(t *testing.T) {
	values := []string{"single", "married", "divorced", "widowed"}
	plan := mustCompile(t, []domain.FeatureDescriptor{
		{Name: "pre", Kind: "numeric"},
		{Name: "status", Kind: "nominal", Values: values},
	})
	slot, _ := plan.Slot("status")

	for pos, value := range values {
		v, err := Encode(domain.RawValues{"pre": "0", "status": value}, plan)
		require.NoError(t, err)

		ones := 0
		for i := slot.Start; i < slot.End(); i++ {
			switch v[i] {
			case 1:
				ones++
				require.Equal(t, slot.Start+pos, i)
			case 0:
			default:
				t.Fatalf("unexpected value %v at %d", v[i], i)
			}
		}
		require.Equal(t, 1, ones)
	}
}

func TestEncode_Failures(t *testing.T) {
	plan := mustCompile(t, []domain.FeatureDescriptor{
		{Name: "age", Kind: "numeric", Mean: f64(30), Std: f64(10)},
		{Name: "edu", Kind: "ordinal", Order: []string{"basic", "phd"}},
		{Name: "home", Kind: "nominal", Values: []string{"yes", "no"}},
	})
	valid := func() domain.RawValues {
		return domain.RawValues{"age": "40", "edu": "phd", "home": "no"}
	}

	tests := []struct {
		name    string
		mutate  func(domain.RawValues)
		feature string
		want    error
	}{
		{"numeric absent", func(r domain.RawValues) { delete(r, "age") }, "age", domain.ErrMissingRequiredField},
		{"numeric blank", func(r domain.RawValues) { r["age"] = "  " }, "age", domain.ErrMissingRequiredField},
		{"numeric malformed", func(r domain.RawValues) { r["age"] = "forty" }, "age", domain.ErrInvalidNumber},
		{"numeric NaN", func(r domain.RawValues) { r["age"] = "NaN" }, "age", domain.ErrInvalidNumber},
		{"ordinal absent", func(r domain.RawValues) { delete(r, "edu") }, "edu", domain.ErrMissingRequiredField},
		{"ordinal unmatched", func(r domain.RawValues) { r["edu"] = "master" }, "edu", domain.ErrInvalidCategoryValue},
		{"ordinal case sensitive", func(r domain.RawValues) { r["edu"] = "PhD" }, "edu", domain.ErrInvalidCategoryValue},
		{"ordinal blank", func(r domain.RawValues) { r["edu"] = "  " }, "edu", domain.ErrMissingRequiredField},
		{"nominal empty", func(r domain.RawValues) { r["home"] = "" }, "home", domain.ErrMissingRequiredField},
		{"nominal blank", func(r domain.RawValues) { r["home"] = "\t " }, "home", domain.ErrMissingRequiredField},
		{"nominal unmatched", func(r domain.RawValues) { r["home"] = "maybe" }, "home", domain.ErrInvalidCategoryValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := valid()
			tt.mutate(raw)

			v, err := Encode(raw, plan)
			require.Nil(t, v)
			require.ErrorIs(t, err, tt.want)

			var fieldErr *domain.FieldError
			require.True(t, errors.As(err, &fieldErr))
			require.Equal(t, tt.feature, fieldErr.Feature)
		})
	}
}

func TestEncode_MissingCategoryIsAlsoInvalidCategory(t *testing.T) {
	plan := mustCompile(t, []domain.FeatureDescriptor{{Name: "edu", Kind: "ordinal", Order: []string{"a"}}})

	_, err := Encode(domain.RawValues{}, plan)
	require.ErrorIs(t, err, domain.ErrMissingRequiredField)
	require.ErrorIs(t, err, domain.ErrInvalidCategoryValue)
}

func TestEncode_FailsOnFirstFeatureInPlanOrder(t *testing.T) {
	plan := mustCompile(t, []domain.FeatureDescriptor{
		{Name: "first", Kind: "numeric"},
		{Name: "second", Kind: "nominal", Values: []string{"x"}},
	})

	_, err := Encode(domain.RawValues{"second": "nope"}, plan)
	var fieldErr *domain.FieldError
	require.True(t, errors.As(err, &fieldErr))
	require.Equal(t, "first", fieldErr.Feature)
}

func TestEncode_IgnoresUnknownFields(t *testing.T) {
	plan := mustCompile(t, []domain.FeatureDescriptor{{Name: "a", Kind: "numeric"}})

	v, err := Encode(domain.RawValues{"a": "2", "extra": "whatever"}, plan)
	require.NoError(t, err)
	require.Equal(t, []float64{2}, v)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	plan := mustCompile(t, []domain.FeatureDescriptor{
		{Name: "age", Kind: "numeric"},
		{Name: "edu", Kind: "ordinal", Order: []string{"a", "b"}},
		{Name: "home", Kind: "nominal", Values: []string{"yes", "no"}},
	})

	err := Validate(domain.RawValues{"edu": "c", "home": "yes"}, plan)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrMissingRequiredField)
	require.ErrorIs(t, err, domain.ErrInvalidCategoryValue)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	require.Len(t, joined.Unwrap(), 2)

	require.NoError(t, Validate(domain.RawValues{"age": "1", "edu": "a", "home": "no"}, plan))
}
