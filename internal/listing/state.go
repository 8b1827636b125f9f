// Package listing holds the pagination and category-filter state of a
// listing page. Reduce is a pure transition function; Machine wraps it with
// the load-more delay, URL synchronisation and an unmount guard.
package listing

import "net/url"

type Mode int

const (
	// ModeWindow grows a visible window by one page per "view more".
	ModeWindow Mode = iota
	// ModePaged shows numbered pages.
	ModePaged
)

func (m Mode) String() string {
	if m == ModePaged {
		return "paged"
	}
	return "window"
}

// Origin tells a transition who triggered it. Only user transitions write
// the URL; navigation transitions come from the URL already.
type Origin int

const (
	FromUser Origin = iota
	FromNavigation
)

// State is the listing tuple. Category "" selects every article. Visible is
// used in window mode, Page (1-based) in paged mode.
type State struct {
	Mode     Mode
	PageSize int
	Visible  int
	Page     int
	Category string
	Loading  bool
}

// NewState returns the initial state for mode. A non-positive page size
// falls back to the mode's default.
func NewState(mode Mode, pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize(mode)
	}
	return State{Mode: mode, PageSize: pageSize, Visible: pageSize, Page: 1}
}

// Upper bounds for the window and page number, whatever the URL asks for.
const (
	MaxVisible = 10000
	MaxPage    = 10000
)

// DefaultPageSize is 6 cards for the top page window and 10 per numbered page.
func DefaultPageSize(mode Mode) int {
	if mode == ModePaged {
		return 10
	}
	return 6
}

func (s State) reset() State {
	s.Visible = s.PageSize
	s.Page = 1
	s.Loading = false
	return s
}

type Event interface {
	isEvent()
}

// SelectCategory filters by category name; ID "" clears the filter.
type SelectCategory struct {
	ID     string
	Origin Origin
}

type LoadMoreStarted struct{}

type LoadMoreFinished struct{}

type GoToPage struct {
	Page   int
	Origin Origin
}

func (SelectCategory) isEvent()   {}
func (LoadMoreStarted) isEvent()  {}
func (LoadMoreFinished) isEvent() {}
func (GoToPage) isEvent()         {}

type Effect interface {
	isEffect()
}

// WriteURL asks the host to replace the page URL's query with Query.
type WriteURL struct {
	Query url.Values
}

func (WriteURL) isEffect() {}

// Reduce applies ev to s. It never fails; events that do not apply to the
// current state leave it unchanged.
func Reduce(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case SelectCategory:
		if e.Origin == FromNavigation && e.ID == s.Category {
			return s, nil
		}
		next := s.reset()
		next.Category = e.ID
		return next, writeIfUser(next, e.Origin)

	case LoadMoreStarted:
		if s.Mode != ModeWindow || s.Loading {
			return s, nil
		}
		s.Loading = true
		return s, nil

	case LoadMoreFinished:
		if !s.Loading {
			return s, nil
		}
		s.Loading = false
		s.Visible = min(s.Visible+s.PageSize, MaxVisible)
		return s, nil

	case GoToPage:
		if s.Mode != ModePaged {
			return s, nil
		}
		page := min(max(e.Page, 1), MaxPage)
		if e.Origin == FromNavigation && page == s.Page {
			return s, nil
		}
		s.Page = page
		return s, writeIfUser(s, e.Origin)
	}
	return s, nil
}

func writeIfUser(s State, origin Origin) []Effect {
	if origin != FromUser {
		return nil
	}
	return []Effect{WriteURL{Query: Query(s)}}
}
