package model

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("article not found")
)

// Image is a cover image (eyecatch) attached to a CMS record.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryList accepts either a single category object or an array of them.
// A null or missing value decodes to an empty list.
type CategoryList []Category

func (l *CategoryList) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var many []Category
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*l = many
		return nil
	}
	var one Category
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = CategoryList{one}
	return nil
}

// RawArticle is a blog record as delivered by the CMS.
type RawArticle struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Eyecatch    *Image       `json:"eyecatch,omitempty"`
	Categories  CategoryList `json:"categories,omitempty"`
	PublishedAt *time.Time   `json:"publishedAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	RevisedAt   *time.Time   `json:"revisedAt,omitempty"`
}

// UnmarshalJSON folds the single "category" field and the "categories" list
// into Categories, dropping repeated ids.
func (a *RawArticle) UnmarshalJSON(data []byte) error {
	type alias RawArticle
	var aux struct {
		alias
		Category CategoryList `json:"category"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = RawArticle(aux.alias)

	merged := make(CategoryList, 0, len(aux.alias.Categories)+len(aux.Category))
	seen := make(map[string]bool)
	for _, c := range append(aux.alias.Categories, aux.Category...) {
		key := c.ID
		if key == "" {
			key = "name:" + c.Name
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, c)
	}
	a.Categories = merged
	return nil
}

// CategoryNames returns the category names in source order, never nil.
func (a RawArticle) CategoryNames() []string {
	names := make([]string, 0, len(a.Categories))
	for _, c := range a.Categories {
		names = append(names, c.Name)
	}
	return names
}

// EffectivePublishedAt falls back to the creation time for records that were
// never published.
func (a RawArticle) EffectivePublishedAt() time.Time {
	if a.PublishedAt != nil && !a.PublishedAt.IsZero() {
		return *a.PublishedAt
	}
	return a.CreatedAt
}

// ListItem is the card shape used by the listing pages.
type ListItem struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Excerpt       string    `json:"excerpt"`
	EyecatchURL   string    `json:"eyecatchUrl,omitempty"`
	CategoryNames []string  `json:"categoryNames"`
	PublishedAt   time.Time `json:"publishedAt"`
}

// HasCategory reports whether the article carries the named category.
func (i ListItem) HasCategory(name string) bool {
	for _, n := range i.CategoryNames {
		if n == name {
			return true
		}
	}
	return false
}

type TocHeading struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

type TableOfContents struct {
	Headings []TocHeading `json:"headings"`
}

type AdjacentArticle struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type Navigation struct {
	Previous *AdjacentArticle `json:"previous"`
	Next     *AdjacentArticle `json:"next"`
}

// Detail is the fully processed article rendered on the detail page.
type Detail struct {
	ID              string          `json:"id"`
	Slug            string          `json:"slug"`
	Title           string          `json:"title"`
	Content         string          `json:"content"`
	Eyecatch        *Image          `json:"eyecatch,omitempty"`
	CategoryNames   []string        `json:"categoryNames"`
	PublishedAt     time.Time       `json:"publishedAt"`
	TableOfContents TableOfContents `json:"tableOfContents"`
	Navigation      Navigation      `json:"navigation"`
}

// CategoryFilter is one entry of the category filter bar. ID equals the
// category name.
type CategoryFilter struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ListQuery selects a page of the CMS list endpoint.
type ListQuery struct {
	Limit  int
	Offset int
	Orders string
}

type ListResponse struct {
	Contents   []RawArticle `json:"contents"`
	TotalCount int          `json:"totalCount"`
	Offset     int          `json:"offset"`
	Limit      int          `json:"limit"`
}
