package classifier

import (
	"math"
	"sort"

	"clusterform/internal/domain"
)

// Classify ranks centroids by Euclidean distance to vector.
//
// Every centroid is checked against the vector length before any distance
// is computed. Centroids at equal distance keep their input order.
func Classify(vector []float64, centroids []domain.Centroid) (domain.ClassificationResult, error) {
	if len(centroids) == 0 {
		return domain.ClassificationResult{}, domain.ErrEmptyModel
	}

	if err := CheckDimensions(len(vector), centroids); err != nil {
		return domain.ClassificationResult{}, err
	}

	ranking := make([]domain.RankedCentroid, len(centroids))
	for i, c := range centroids {
		ranking[i] = domain.RankedCentroid{
			ClusterID: c.ID,
			Distance:  Distance(vector, c.Vector),
		}
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Distance < ranking[j].Distance
	})

	return domain.ClassificationResult{
		Ranking: ranking,
		Best:    ranking[0],
	}, nil
}

// Distance is the unweighted Euclidean distance. a and b must have equal length.
func Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CheckDimensions reports the first centroid whose length differs from dim.
func CheckDimensions(dim int, centroids []domain.Centroid) error {
	for _, c := range centroids {
		if len(c.Vector) != dim {
			return &domain.DimensionError{ClusterID: c.ID, Expected: dim, Actual: len(c.Vector)}
		}
	}
	return nil
}
