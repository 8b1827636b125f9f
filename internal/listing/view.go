package listing

import (
	"slices"

	"blogfront/internal/model"
)

// View is what a listing renders for a state.
type View struct {
	Items      []model.ListItem
	Total      int
	HasMore    bool
	Page       int
	TotalPages int
}

// Filter keeps the articles carrying category, in order. An empty category
// keeps everything.
func Filter(articles []model.ListItem, category string) []model.ListItem {
	if category == "" {
		return articles
	}
	out := make([]model.ListItem, 0, len(articles))
	for _, a := range articles {
		if a.HasCategory(category) {
			out = append(out, a)
		}
	}
	return out
}

// Apply filters articles by the selected category, then cuts the window or
// page out of the filtered set.
func Apply(s State, articles []model.ListItem) View {
	filtered := Filter(articles, s.Category)
	total := len(filtered)

	pageSize := s.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize(s.Mode)
	}
	totalPages := max((total+pageSize-1)/pageSize, 1)

	v := View{Total: total, TotalPages: totalPages}

	switch s.Mode {
	case ModePaged:
		v.Page = min(max(s.Page, 1), totalPages)
		start := (v.Page - 1) * pageSize
		end := min(start+pageSize, total)
		v.Items = slices.Clone(filtered[start:end])
		v.HasMore = v.Page < totalPages
	default:
		visible := max(s.Visible, 0)
		v.Page = 1
		v.Items = slices.Clone(filtered[:min(visible, total)])
		v.HasMore = visible < total
	}

	if v.Items == nil {
		v.Items = []model.ListItem{}
	}
	return v
}
