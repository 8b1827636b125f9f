// Package transform maps raw CMS records onto the list and detail shapes
// rendered by the site. Nothing here performs I/O.
package transform

import (
	"blogfront/internal/htmlproc"
	"blogfront/internal/model"
)

const (
	ExcerptLength     = 150
	DescriptionLength = 160
)

// ToListItem builds the listing card for raw.
func ToListItem(raw model.RawArticle) model.ListItem {
	item := model.ListItem{
		ID:            raw.ID,
		Slug:          raw.ID,
		Title:         raw.Title,
		Excerpt:       htmlproc.Excerpt(raw.Content, ExcerptLength),
		CategoryNames: raw.CategoryNames(),
		PublishedAt:   raw.EffectivePublishedAt(),
	}
	if raw.Eyecatch != nil {
		item.EyecatchURL = raw.Eyecatch.URL
	}
	return item
}

// ToListItems maps every record in order.
func ToListItems(raws []model.RawArticle) []model.ListItem {
	items := make([]model.ListItem, 0, len(raws))
	for _, raw := range raws {
		items = append(items, ToListItem(raw))
	}
	return items
}

// Transformer runs the detail pipeline. The zero value skips sanitization.
type Transformer struct {
	Sanitizer *htmlproc.Sanitizer
}

// ToDetail injects heading anchors into the body, derives the table of
// contents from the result and attaches nav as given.
func (t Transformer) ToDetail(raw model.RawArticle, nav model.Navigation) model.Detail {
	content := htmlproc.InjectHeadingAnchors(t.Sanitizer.Sanitize(raw.Content))

	return model.Detail{
		ID:              raw.ID,
		Slug:            raw.ID,
		Title:           raw.Title,
		Content:         content,
		Eyecatch:        raw.Eyecatch,
		CategoryNames:   raw.CategoryNames(),
		PublishedAt:     raw.EffectivePublishedAt(),
		TableOfContents: htmlproc.ExtractTableOfContents(content),
		Navigation:      nav,
	}
}

// ToDetail is Transformer{}.ToDetail.
func ToDetail(raw model.RawArticle, nav model.Navigation) model.Detail {
	return Transformer{}.ToDetail(raw, nav)
}

// Description is the meta description for an article body.
func Description(content string) string {
	return htmlproc.PlainPrefix(content, DescriptionLength)
}

// NavigationAt returns the neighbours of items[index]. An index outside the
// slice yields an empty navigation.
func NavigationAt(items []model.ListItem, index int) model.Navigation {
	var nav model.Navigation
	if index < 0 || index >= len(items) {
		return nav
	}
	if index > 0 {
		prev := items[index-1]
		nav.Previous = &model.AdjacentArticle{Slug: prev.Slug, Title: prev.Title}
	}
	if index < len(items)-1 {
		next := items[index+1]
		nav.Next = &model.AdjacentArticle{Slug: next.Slug, Title: next.Title}
	}
	return nav
}
