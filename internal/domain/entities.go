package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// FeatureKind identifies how a feature is encoded.
type FeatureKind string

const (
	KindNumeric FeatureKind = "numeric"
	KindOrdinal FeatureKind = "ordinal"
	KindNominal FeatureKind = "nominal"
)

// ParseFeatureKind accepts the long kind names and the short aliases
// (num, ord, nom) found in exported model files.
func ParseFeatureKind(s string) (FeatureKind, bool) {
	switch s {
	case "numeric", "num":
		return KindNumeric, true
	case "ordinal", "ord":
		return KindOrdinal, true
	case "nominal", "nom":
		return KindNominal, true
	}
	return "", false
}

// FeatureDescriptor is one input dimension of a trained model, as declared
// in the model definition.
type FeatureDescriptor struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	Kind  string `json:"kind" yaml:"kind"`

	// Numeric
	Mean *float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	Std  *float64 `json:"std,omitempty" yaml:"std,omitempty"`
	Min  *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max  *float64 `json:"max,omitempty" yaml:"max,omitempty"`

	// Ordinal
	Order []string `json:"order,omitempty" yaml:"order,omitempty"`

	// Nominal
	Values []string `json:"values,omitempty" yaml:"values,omitempty"`

	// Default is the suggested input value (number or category label).
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// DisplayName returns the label when present, otherwise the name.
func (f FeatureDescriptor) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Categories returns the declared category list for ordinal and nominal
// features, nil otherwise.
func (f FeatureDescriptor) Categories() []string {
	kind, _ := ParseFeatureKind(f.Kind)
	switch kind {
	case KindOrdinal:
		return f.Order
	case KindNominal:
		return f.Values
	}
	return nil
}

// ClusterID identifies a centroid. Integer ids are kept in their decimal
// string form.
type ClusterID string

func ClusterIDFromInt(i int) ClusterID {
	return ClusterID(strconv.Itoa(i))
}

func (id ClusterID) String() string {
	return string(id)
}

// Centroid is a labelled reference point in the encoded feature space.
type Centroid struct {
	ID     ClusterID `json:"cluster"`
	Vector []float64 `json:"vector"`
}

// ClusterProfile is the optional human description of a cluster.
type ClusterProfile struct {
	ID      ClusterID `json:"cluster"`
	Label   string    `json:"label,omitempty"`
	Title   string    `json:"title,omitempty"`
	Summary string    `json:"summary,omitempty"`
	Bullets []string  `json:"bullets,omitempty"`
	Note    string    `json:"note,omitempty"`
}

// Model is a fully loaded model definition.
type Model struct {
	Version      string
	FeatureSpace []FeatureDescriptor
	Centroids    []Centroid
	Profiles     []ClusterProfile
	Source       string
}

// Profile returns the profile for id, if the model declares one.
func (m *Model) Profile(id ClusterID) (ClusterProfile, bool) {
	for _, p := range m.Profiles {
		if p.ID == id {
			return p, true
		}
	}
	return ClusterProfile{}, false
}

// RawValues maps feature names to the raw input as typed by a user.
type RawValues map[string]string

// UnmarshalJSON accepts an object of strings, numbers, booleans or nulls.
// Numbers and booleans keep their literal text; null becomes "".
func (r *RawValues) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj == nil {
		*r = nil
		return nil
	}

	out := make(RawValues, len(obj))
	for name, msg := range obj {
		msg = bytes.TrimSpace(msg)
		switch {
		case len(msg) == 0 || string(msg) == "null":
			out[name] = ""
		case msg[0] == '"':
			var str string
			if err := json.Unmarshal(msg, &str); err != nil {
				return err
			}
			out[name] = str
		case msg[0] == '{' || msg[0] == '[':
			return fmt.Errorf("value of %s is not a scalar", name)
		default:
			out[name] = string(msg)
		}
	}
	*r = out
	return nil
}

// RankedCentroid is one entry of a classification ranking.
type RankedCentroid struct {
	ClusterID ClusterID `json:"cluster"`
	Distance  float64   `json:"distance"`
}

// ClassificationResult holds the ranking sorted by ascending distance.
type ClassificationResult struct {
	Ranking []RankedCentroid `json:"ranking"`
	Best    RankedCentroid   `json:"best"`
}

// HistoryEntry records one classification for later inspection.
type HistoryEntry struct {
	ID           string           `json:"id"`
	ModelVersion string           `json:"model_version"`
	Values       RawValues        `json:"values"`
	Best         RankedCentroid   `json:"best"`
	Ranking      []RankedCentroid `json:"ranking"`
	CreatedAt    time.Time        `json:"created_at"`
}

// ModelSummary is the at-a-glance description of a loaded model.
type ModelSummary struct {
	Version   string `json:"version"`
	Features  int    `json:"features"`
	Dimension int    `json:"dimension"`
	Centroids int    `json:"centroids"`
}
