package usecase

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/samber/lo"

	"clusterform/internal/adapter/cache"
	"clusterform/internal/adapter/classifier"
	"clusterform/internal/adapter/encoder"
	"clusterform/internal/domain"
	"clusterform/internal/port"
)

// ClassifyUseCase runs the encode-and-classify pipeline against loaded
// models and keeps the last input around.
type ClassifyUseCase struct {
	plans  *cache.PlanCache
	store  port.ValueStore
	log    *slog.Logger
	record bool
}

// NewClassifyUseCase creates a classify use case. store may be nil, in
// which case nothing is persisted.
func NewClassifyUseCase(plans *cache.PlanCache, store port.ValueStore, log *slog.Logger) *ClassifyUseCase {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &ClassifyUseCase{
		plans:  plans,
		store:  store,
		log:    log,
		record: store != nil,
	}
}

// WithoutRecording returns a copy that never writes values or history.
func (u *ClassifyUseCase) WithoutRecording() *ClassifyUseCase {
	cp := *u
	cp.record = false
	return &cp
}

// Outcome is the full result of one classification.
type Outcome struct {
	Vector  []float64                   `json:"vector"`
	Result  domain.ClassificationResult `json:"result"`
	Profile *domain.ClusterProfile      `json:"profile,omitempty"`
}

// Plan returns the compiled plan for model, using the cache.
func (u *ClassifyUseCase) Plan(model *domain.Model) (*domain.EncodingPlan, error) {
	return u.plans.Get(model.FeatureSpace)
}

// Classify encodes raw against model and ranks the model's centroids.
func (u *ClassifyUseCase) Classify(model *domain.Model, raw domain.RawValues) (*Outcome, error) {
	outcome, err := u.run(model, raw)
	if err != nil {
		return nil, err
	}

	if u.record {
		u.remember(model, raw, outcome)
	}
	return outcome, nil
}

func (u *ClassifyUseCase) run(model *domain.Model, raw domain.RawValues) (*Outcome, error) {
	plan, err := u.Plan(model)
	if err != nil {
		return nil, err
	}

	vec, err := encoder.Encode(raw, plan)
	if err != nil {
		return nil, err
	}

	result, err := classifier.Classify(vec, model.Centroids)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Vector: vec, Result: result}
	if p, ok := model.Profile(result.Best.ClusterID); ok {
		outcome.Profile = &p
	}
	return outcome, nil
}

func (u *ClassifyUseCase) remember(model *domain.Model, raw domain.RawValues, outcome *Outcome) {
	used := lo.PickByKeys(raw, featureNames(model))

	if err := u.store.SaveValues(used); err != nil {
		u.log.Warn("failed to save last values", "error", err)
	}

	err := u.store.AppendHistory(domain.HistoryEntry{
		ModelVersion: model.Version,
		Values:       used,
		Best:         outcome.Result.Best,
		Ranking:      outcome.Result.Ranking,
	})
	if err != nil {
		u.log.Warn("failed to record history", "error", err)
	}
}

// Validate reports every problem with raw at once.
func (u *ClassifyUseCase) Validate(model *domain.Model, raw domain.RawValues) error {
	plan, err := u.Plan(model)
	if err != nil {
		return err
	}
	return encoder.Validate(raw, plan)
}

// Restore returns the saved values that apply to model's features.
func (u *ClassifyUseCase) Restore(model *domain.Model) (domain.RawValues, error) {
	if u.store == nil {
		return domain.RawValues{}, nil
	}
	saved, err := u.store.LoadValues()
	if err != nil {
		return nil, fmt.Errorf("failed to load saved values: %w", err)
	}
	restored := lo.PickByKeys(saved, featureNames(model))
	u.log.Debug("restored values", "count", len(restored))
	return restored, nil
}

// Summary describes model at a glance. The dimension is 0 when the
// feature space does not compile.
func (u *ClassifyUseCase) Summary(model *domain.Model) domain.ModelSummary {
	s := domain.ModelSummary{
		Version:   model.Version,
		Features:  len(model.FeatureSpace),
		Centroids: len(model.Centroids),
	}
	if plan, err := u.Plan(model); err == nil {
		s.Dimension = plan.VectorLength()
	}
	return s
}

// Check compiles model and verifies every centroid fits the plan.
func (u *ClassifyUseCase) Check(model *domain.Model) error {
	plan, err := u.Plan(model)
	if err != nil {
		return err
	}
	if len(model.Centroids) == 0 {
		return domain.ErrEmptyModel
	}
	return classifier.CheckDimensions(plan.VectorLength(), model.Centroids)
}

// DemoValues fills every feature with a plausible value: its default,
// else the midpoint of min and max for numbers, else the first category.
func DemoValues(model *domain.Model) domain.RawValues {
	values := make(domain.RawValues, len(model.FeatureSpace))
	for _, f := range model.FeatureSpace {
		if f.Default != "" {
			values[f.Name] = f.Default
			continue
		}
		if cats := f.Categories(); len(cats) > 0 {
			values[f.Name] = cats[0]
			continue
		}
		var low, high float64
		if f.Min != nil {
			low = *f.Min
		}
		if f.Max != nil {
			high = *f.Max
		}
		values[f.Name] = strconv.FormatFloat((low+high)/2, 'f', -1, 64)
	}
	return values
}

func featureNames(model *domain.Model) []string {
	return lo.Map(model.FeatureSpace, func(f domain.FeatureDescriptor, _ int) string {
		return f.Name
	})
}
