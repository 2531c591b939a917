package ranking

import (
	"math"
	"slices"
	"strings"
)

// Epsilon is the score resolution. Scores are rounded to it before ordering,
// so works closer than Epsilon tie and fall back to ID order.
const Epsilon = 1e-9

// Candidate is one rankable work with its engagement counters
type Candidate struct {
	ID              string
	AuthorID        string
	Category        string
	Tags            []string
	Views           int64
	Likes           int64
	Comments        int64
	Bookmarks       int64
	Shares          int64
	AuthorFollowers int64
}

// Components are the per-work score parts, each in [0,1]
type Components struct {
	Personalized  float64 `json:"personalized"`
	Collaborative float64 `json:"collaborative"`
	Popular       float64 `json:"popular"`
	Diversity     float64 `json:"diversity"`
}

// Scored is a candidate with its score
type Scored struct {
	Candidate
	Components Components
	Score      float64
}

// engagement weights for the popularity component
const (
	wViews     = 0.1
	wLikes     = 3
	wComments  = 2
	wBookmarks = 4
	wShares    = 5
	wFollowers = 0.5
)

func engagement(c Candidate) float64 {
	return wViews*float64(c.Views) +
		wLikes*float64(c.Likes) +
		wComments*float64(c.Comments) +
		wBookmarks*float64(c.Bookmarks) +
		wShares*float64(c.Shares) +
		wFollowers*float64(c.AuthorFollowers)
}

// Rank scores cands for p with w and orders them by descending score, ties
// broken by ascending ID. Works the user authored or already liked or
// bookmarked are dropped.
func Rank(cands []Candidate, p Profile, w Weights) []Scored {
	key := Key

	maxEng, maxCo := 0.0, 0
	for _, c := range cands {
		maxEng = math.Max(maxEng, engagement(c))
		maxCo = max(maxCo, p.CoLikes[c.ID])
	}

	out := make([]Scored, 0, len(cands))
	seen := make(map[string]struct{}, len(cands))
	for _, c := range cands {
		if _, dup := seen[c.ID]; dup || p.excludes(c) {
			continue
		}
		seen[c.ID] = struct{}{}

		comp := Components{
			Personalized:  p.affinity(c, key),
			Collaborative: ratio(float64(p.CoLikes[c.ID]), float64(maxCo)),
			Popular:       ratio(math.Log1p(engagement(c)), math.Log1p(maxEng)),
			Diversity:     clamp01(1 - p.categoryShare(key(c.Category))),
		}
		out = append(out, Scored{Candidate: c, Components: comp, Score: w.Blend(comp)})
	}
	Sort(out)
	return out
}

// Sort orders by rounded score descending, then ID ascending
func Sort(s []Scored) {
	slices.SortStableFunc(s, func(a, b Scored) int {
		ra, rb := quantize(a.Score), quantize(b.Score)
		switch {
		case ra > rb:
			return -1
		case ra < rb:
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func quantize(f float64) float64 { return math.Round(f / Epsilon) }

func ratio(v, top float64) float64 {
	if top <= 0 {
		return 0
	}
	return clamp01(v / top)
}

func clamp01(f float64) float64 {
	switch {
	case f < 0 || math.IsNaN(f):
		return 0
	case f > 1:
		return 1
	}
	return f
}
