// Package ranking scores candidate works for the application-side
// recommendation engine
package ranking

import (
	"fmt"
	"math"
	"strings"
)

// Strategy is the ranking mode selected per request
type Strategy string

const (
	// Personalized leans on the user's own affinities and co-likes
	Personalized Strategy = "personalized"
	// Adaptive blends affinity with popularity for users with little history
	Adaptive Strategy = "adaptive"
	// Popular ignores the user entirely
	Popular Strategy = "popular"
)

// Strategies lists every known strategy
var Strategies = []Strategy{Personalized, Adaptive, Popular}

// ParseStrategy accepts a case-insensitive strategy name
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if st.Valid() {
		return st, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

// Valid reports whether s is a known strategy
func (s Strategy) Valid() bool {
	switch s {
	case Personalized, Adaptive, Popular:
		return true
	}
	return false
}

// Personal reports whether s needs a user
func (s Strategy) Personal() bool { return s == Personalized || s == Adaptive }

// Weights blend the four score components. Each lies in [0,1]; they are not
// required to sum to 1.
type Weights struct {
	Personalized  float64 `json:"personalized"`
	Collaborative float64 `json:"collaborative"`
	Popular       float64 `json:"popular"`
	Diversity     float64 `json:"diversity"`
}

// DefaultWeights returns the built-in weights for s
func DefaultWeights(s Strategy) Weights {
	switch s {
	case Personalized:
		return Weights{Personalized: 0.5, Collaborative: 0.3, Popular: 0.15, Diversity: 0.05}
	case Adaptive:
		return Weights{Personalized: 0.3, Collaborative: 0.2, Popular: 0.4, Diversity: 0.1}
	default:
		return Weights{Popular: 1}
	}
}

// Validate checks every weight is a number in [0,1]
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"personalized":  w.Personalized,
		"collaborative": w.Collaborative,
		"popular":       w.Popular,
		"diversity":     w.Diversity,
	} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%s weight %v outside [0,1]", name, v)
		}
	}
	return nil
}

// Blend is the weighted linear combination of c
func (w Weights) Blend(c Components) float64 {
	return w.Personalized*c.Personalized +
		w.Collaborative*c.Collaborative +
		w.Popular*c.Popular +
		w.Diversity*c.Diversity
}
