package evaluation

import (
	"fmt"
	"math"
	"strings"

	"github.com/buildtally/bidlevel/internal/errors"
)

// Criterion is one named technical criterion with its weight share.
type Criterion struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// ValidateCriteria rejects criteria sets whose weights do not form a proper
// distribution.
func ValidateCriteria(criteria []Criterion) error {
	seen := make(map[string]bool, len(criteria))
	sum := 0.0
	for i, c := range criteria {
		if strings.TrimSpace(c.Name) == "" {
			return errors.NewConfigurationError(
				fmt.Sprintf("criterion at index %d has an empty name", i))
		}
		if seen[c.Name] {
			return errors.NewConfigurationError(
				fmt.Sprintf("duplicate criterion name %q", c.Name))
		}
		seen[c.Name] = true

		if c.Weight < 0 || c.Weight > 1 {
			return errors.NewConfigurationError(
				fmt.Sprintf("criterion %q weight %v outside [0,1]", c.Name, c.Weight))
		}
		sum += c.Weight
	}

	if len(criteria) > 0 && math.Abs(sum-1.0) > weightTolerance {
		return errors.NewConfigurationError(
			fmt.Sprintf("criteria weights must sum to 1.0, got %v", sum))
	}

	return nil
}

// TechnicalScore computes the weighted sum of a bidder's criterion ratings.
// Every criterion must carry a rating in [0,100]; an absent rating is a
// missing-data failure, never a silent zero.
func TechnicalScore(ratings map[string]float64, criteria []Criterion) (float64, error) {
	if err := ValidateCriteria(criteria); err != nil {
		return 0, err
	}

	score := 0.0
	for _, c := range criteria {
		rating, ok := ratings[c.Name]
		if !ok {
			return 0, errors.NewMissingDataError(
				fmt.Sprintf("no rating supplied for criterion %q", c.Name))
		}
		if rating < 0 || rating > 100 {
			return 0, errors.NewConfigurationError(
				fmt.Sprintf("rating %v for criterion %q outside [0,100]", rating, c.Name))
		}
		score += rating * c.Weight
	}

	return score, nil
}
