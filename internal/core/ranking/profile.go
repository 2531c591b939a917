package ranking

// InteractionKind is what a user did with a work
type InteractionKind int

const (
	// Viewed is a read
	Viewed InteractionKind = iota + 1
	// Bookmarked is a save
	Bookmarked
	// Liked is a like
	Liked
)

func (k InteractionKind) weight() float64 {
	switch k {
	case Liked:
		return 3
	case Bookmarked:
		return 2
	case Viewed:
		return 1
	}
	return 0
}

// Interaction is one behavioral signal
type Interaction struct {
	WorkID   string
	Category string
	Tags     []string
	Kind     InteractionKind
}

// Profile is the user side of scoring. The zero Profile is an anonymous
// user: no affinity and no exclusions.
type Profile struct {
	UserID          string
	Categories      map[string]float64 // folded category -> affinity in [0,1]
	Tags            map[string]float64 // folded tag -> affinity in [0,1]
	CategoryShare   map[string]float64 // folded category -> fraction of weighted history
	FollowedAuthors map[string]struct{}
	CoLikes         map[string]int // work -> users who liked it and something the user liked
	Engaged         map[string]struct{}
}

// NewProfile folds history, follows and co-likes into a Profile
func NewProfile(userID string, history []Interaction, followed []string, coLikes map[string]int) Profile {
	key := Key

	p := Profile{
		UserID:          userID,
		Categories:      map[string]float64{},
		Tags:            map[string]float64{},
		CategoryShare:   map[string]float64{},
		FollowedAuthors: make(map[string]struct{}, len(followed)),
		CoLikes:         coLikes,
		Engaged:         map[string]struct{}{},
	}
	total := 0.0
	for _, in := range history {
		w := in.Kind.weight()
		if w == 0 {
			continue
		}
		if in.Kind == Liked || in.Kind == Bookmarked {
			p.Engaged[in.WorkID] = struct{}{}
		}
		if c := key(in.Category); c != "" {
			p.Categories[c] += w
			total += w
		}
		for _, t := range in.Tags {
			if t = key(t); t != "" {
				p.Tags[t] += w
			}
		}
	}
	for c, v := range p.Categories {
		p.CategoryShare[c] = v / total
	}
	normalize(p.Categories)
	normalize(p.Tags)
	for _, a := range followed {
		p.FollowedAuthors[a] = struct{}{}
	}
	return p
}

// Signals is the number of behavioral signals behind p
func (p Profile) Signals() int { return len(p.Engaged) + len(p.FollowedAuthors) }

func normalize(m map[string]float64) {
	top := 0.0
	for _, v := range m {
		top = max(top, v)
	}
	if top == 0 {
		return
	}
	for k, v := range m {
		m[k] = v / top
	}
}

func (p Profile) excludes(c Candidate) bool {
	if p.UserID != "" && c.AuthorID == p.UserID {
		return true
	}
	_, ok := p.Engaged[c.ID]
	return ok
}

// affinity mixes category, best tag and followed-author signals
func (p Profile) affinity(c Candidate, key func(string) string) float64 {
	cat := p.Categories[key(c.Category)]
	tag := 0.0
	for _, t := range c.Tags {
		tag = max(tag, p.Tags[key(t)])
	}
	author := 0.0
	if _, ok := p.FollowedAuthors[c.AuthorID]; ok {
		author = 1
	}
	return clamp01(0.5*cat + 0.3*tag + 0.2*author)
}

func (p Profile) categoryShare(folded string) float64 { return p.CategoryShare[folded] }
