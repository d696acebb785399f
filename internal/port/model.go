package port

import (
	"context"

	"clusterform/internal/domain"
)

// ModelSource loads a model definition from a path or URL.
type ModelSource interface {
	Load(ctx context.Context, ref string) (*domain.Model, error)
}
