package similarity

import (
	"fmt"
	"math"
)

// Weights are the coefficients of the combined score.
type Weights struct {
	Sequence   float64 `yaml:"sequence"`
	Cosine     float64 `yaml:"cosine"`
	Jaccard    float64 `yaml:"jaccard"`
	TitleBonus float64 `yaml:"title_bonus"`
}

// DefaultWeights returns the production weights 0.30/0.30/0.25/0.15.
func DefaultWeights() Weights {
	return Weights{Sequence: 0.30, Cosine: 0.30, Jaccard: 0.25, TitleBonus: 0.15}
}

// IsZero reports whether no weight is set.
func (w Weights) IsZero() bool { return w == Weights{} }

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Sequence + w.Cosine + w.Jaccard + w.TitleBonus
}

// Validate rejects negative weights and weights that do not sum to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"sequence": w.Sequence, "cosine": w.Cosine, "jaccard": w.Jaccard, "title_bonus": w.TitleBonus,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("weight %s must be non-negative, got %v", name, v)
		}
	}
	if math.Abs(w.Sum()-1.0) > 1e-9 {
		return fmt.Errorf("weights must sum to 1.0, got %.4f", w.Sum())
	}
	return nil
}
