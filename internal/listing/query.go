package listing

import (
	"net/url"
	"strconv"
)

const (
	ParamCategory = "category"
	ParamPage     = "page"
	ParamShow     = "show"
)

// Query encodes the parts of s that belong in the URL. Defaults are left out
// so the unfiltered first page has a bare URL.
func Query(s State) url.Values {
	q := url.Values{}
	if s.Category != "" {
		q.Set(ParamCategory, s.Category)
	}
	switch s.Mode {
	case ModePaged:
		if s.Page > 1 {
			q.Set(ParamPage, strconv.Itoa(s.Page))
		}
	default:
		if s.Visible > s.PageSize {
			q.Set(ParamShow, strconv.Itoa(s.Visible))
		}
	}
	return q
}

// FromQuery rebuilds a state from URL values. Malformed or too small
// numbers fall back to the initial window or page; large ones are capped at
// MaxVisible and MaxPage.
func FromQuery(values url.Values, mode Mode, pageSize int) State {
	s := NewState(mode, pageSize)
	s.Category = values.Get(ParamCategory)

	switch mode {
	case ModePaged:
		if n, err := strconv.Atoi(values.Get(ParamPage)); err == nil && n > 1 {
			s.Page = min(n, MaxPage)
		}
	default:
		if n, err := strconv.Atoi(values.Get(ParamShow)); err == nil && n > s.PageSize {
			s.Visible = min(n, MaxVisible)
		}
	}
	return s
}

// Encode renders values as a query string with a leading "?", or "" when
// there is nothing to encode.
func Encode(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}
