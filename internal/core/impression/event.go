// Package impression defines impression events and the server-side filter
// that decides which ones are worth persisting
package impression

import "time"

// Type is where the impressed card came from
type Type string

// Impression types
const (
	TypeRecommendation Type = "recommendation"
	TypeSearch         Type = "search"
	TypeCategory       Type = "category"
	TypeTrending       Type = "trending"
	TypePopular        Type = "popular"
	TypeNew            Type = "new"
	TypeSeries         Type = "series"
	TypeUserWorks      Type = "user_works"
)

// Valid reports whether t is a known impression type
func (t Type) Valid() bool {
	switch t {
	case TypeRecommendation, TypeSearch, TypeCategory, TypeTrending,
		TypePopular, TypeNew, TypeSeries, TypeUserWorks:
		return true
	}
	return false
}

// PageContext is the page the card was shown on
type PageContext string

// Page contexts
const (
	PageHome        PageContext = "home"
	PageSearch      PageContext = "search"
	PageUserProfile PageContext = "user_profile"
	PageWorkDetail  PageContext = "work_detail"
	PageCategory    PageContext = "category"
	PageSeries      PageContext = "series"
	PageTrending    PageContext = "trending"
)

// Valid reports whether p is a known page context
func (p PageContext) Valid() bool {
	switch p {
	case PageHome, PageSearch, PageUserProfile, PageWorkDetail,
		PageCategory, PageSeries, PageTrending:
		return true
	}
	return false
}

// Event is one observation that a work card was displayed. DisplayDuration
// is in milliseconds on the wire.
type Event struct {
	WorkID            string      `json:"workId"`
	SessionID         string      `json:"sessionId"`
	Type              Type        `json:"impressionType"`
	PageContext       PageContext `json:"pageContext"`
	Position          *int        `json:"position,omitempty"`
	IntersectionRatio float64     `json:"intersectionRatio"`
	DisplayDuration   int64       `json:"displayDuration"`
	ViewportWidth     int         `json:"viewportWidth"`
	ViewportHeight    int         `json:"viewportHeight"`
	UserAgent         string      `json:"userAgent,omitempty"`
}

// Key is the per-session dedup key
type Key struct {
	SessionID string
	WorkID    string
	Type      Type
	Page      PageContext
}

// Key returns e's dedup key
func (e Event) Key() Key {
	return Key{SessionID: e.SessionID, WorkID: e.WorkID, Type: e.Type, Page: e.PageContext}
}

// Duration is DisplayDuration as a time.Duration
func (e Event) Duration() time.Duration { return time.Duration(e.DisplayDuration) * time.Millisecond }

// Summary is the answer to a recorded batch
type Summary struct {
	Success  bool `json:"success"`
	Recorded int  `json:"recorded"`
	Filtered int  `json:"filtered"`
}
