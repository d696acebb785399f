package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"clusterform/internal/domain"
)

// scalar accepts a JSON/YAML string, number or bool and keeps its text.
// Model files written by hand mix `"cluster": 0` and `"cluster": "0"`.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = scalar(str)
		return nil
	case '{', '[':
		return fmt.Errorf("expected a scalar, got %s", data)
	}
	*s = scalar(data)
	return nil
}

func (s *scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", node.Line)
	}
	*s = scalar(node.Value)
	return nil
}

type modelFile struct {
	Version      scalar        `json:"version" yaml:"version"`
	FeatureSpace []featureFile `json:"feature_space" yaml:"feature_space" validate:"required,min=1,dive"`
	Centroids    []centroidRow `json:"centroids" yaml:"centroids" validate:"required,min=1,dive"`
	Clusters     []profileFile `json:"clusters,omitempty" yaml:"clusters,omitempty" validate:"dive"`
}

type featureFile struct {
	Name    string   `json:"name" yaml:"name" validate:"required"`
	Label   string   `json:"label" yaml:"label"`
	Kind    string   `json:"kind" yaml:"kind"`
	Type    string   `json:"type" yaml:"type"`
	Mean    *float64 `json:"mean" yaml:"mean"`
	Std     *float64 `json:"std" yaml:"std"`
	Min     *float64 `json:"min" yaml:"min"`
	Max     *float64 `json:"max" yaml:"max"`
	Order   []string `json:"order" yaml:"order"`
	Values  []string `json:"values" yaml:"values"`
	Default scalar   `json:"default" yaml:"default"`
}

type centroidRow struct {
	Cluster      scalar    `json:"cluster" yaml:"cluster"`
	ClusterID    scalar    `json:"cluster_id" yaml:"cluster_id"`
	ClusterCamel scalar    `json:"clusterId" yaml:"clusterId"`
	Vector       []float64 `json:"vector" yaml:"vector" validate:"required,min=1"`
}

func (c centroidRow) id() domain.ClusterID {
	for _, s := range []scalar{c.Cluster, c.ClusterID, c.ClusterCamel} {
		if s != "" {
			return domain.ClusterID(s)
		}
	}
	return ""
}

type profileFile struct {
	Cluster scalar   `json:"cluster" yaml:"cluster" validate:"required"`
	Label   string   `json:"label" yaml:"label"`
	Title   string   `json:"title" yaml:"title"`
	Summary string   `json:"summary" yaml:"summary"`
	Bullets []string `json:"bullets" yaml:"bullets"`
	Note    string   `json:"note" yaml:"note"`
}

func (m *modelFile) toDomain(source string) *domain.Model {
	out := &domain.Model{
		Version:      string(m.Version),
		FeatureSpace: make([]domain.FeatureDescriptor, len(m.FeatureSpace)),
		Centroids:    make([]domain.Centroid, len(m.Centroids)),
		Source:       source,
	}
	for i, f := range m.FeatureSpace {
		kind := f.Kind
		if kind == "" {
			kind = f.Type
		}
		out.FeatureSpace[i] = domain.FeatureDescriptor{
			Name:    f.Name,
			Label:   f.Label,
			Kind:    kind,
			Mean:    f.Mean,
			Std:     f.Std,
			Min:     f.Min,
			Max:     f.Max,
			Order:   f.Order,
			Values:  f.Values,
			Default: string(f.Default),
		}
	}
	for i, c := range m.Centroids {
		out.Centroids[i] = domain.Centroid{ID: c.id(), Vector: c.Vector}
	}
	for _, p := range m.Clusters {
		out.Profiles = append(out.Profiles, domain.ClusterProfile{
			ID:      domain.ClusterID(p.Cluster),
			Label:   p.Label,
			Title:   p.Title,
			Summary: p.Summary,
			Bullets: p.Bullets,
			Note:    p.Note,
		})
	}
	return out
}
