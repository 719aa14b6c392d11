package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights control the relative contribution of each scoring signal. Signals
// are normalized to [0,1] before weighting, so adding a signal never
// requires renormalizing the others.
type Weights struct {
	CategorySpecificity float64 `yaml:"categorySpecificity"`
	GeoProximity        float64 `yaml:"geoProximity"`
	TierBoost           float64 `yaml:"tierBoost"`
	Responsiveness      float64 `yaml:"responsiveness"`
}

// DefaultWeights returns the production defaults.
func DefaultWeights() Weights {
	return Weights{
		CategorySpecificity: 0.35,
		GeoProximity:        0.35,
		TierBoost:           0.10,
		Responsiveness:      0.20,
	}
}

// Validate checks the structural constraints on a weight set. The tier
// boost stays strictly below the weighted gap between exact and parent
// category matches, so a paid tier can break ties but never outrank a more
// specific competitor.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"categorySpecificity": w.CategorySpecificity,
		"geoProximity":        w.GeoProximity,
		"tierBoost":           w.TierBoost,
		"responsiveness":      w.Responsiveness,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must not be negative, got %v", name, v)
		}
	}
	sum := w.CategorySpecificity + w.GeoProximity + w.TierBoost + w.Responsiveness
	if sum <= 0 {
		return fmt.Errorf("weights must sum to a positive value, got %v", sum)
	}

	specificityGap := w.CategorySpecificity * (specificityExact - specificityParent)
	if w.TierBoost >= specificityGap {
		return fmt.Errorf("tierBoost %v must stay below the weighted specificity gap %v",
			w.TierBoost, specificityGap)
	}
	return nil
}

// LoadWeights reads a weights file in YAML form. An empty path returns the
// defaults.
func LoadWeights(path string) (Weights, error) {
	if path == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("read weights file: %w", err)
	}

	w := DefaultWeights()
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("parse weights file: %w", err)
	}
	if err := w.Validate(); err != nil {
		return Weights{}, fmt.Errorf("invalid weights in %s: %w", path, err)
	}
	return w, nil
}
