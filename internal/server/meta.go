package server

import (
	"strings"
	"time"

	"blogfront/internal/model"
	"blogfront/internal/transform"
)

// Meta fills the <head> of a page, OpenGraph tags included.
type Meta struct {
	SiteTitle     string
	Title         string
	Description   string
	URL           string
	Type          string
	Image         string
	PublishedTime string
}

func (s *Server) absURL(path string) string {
	return strings.TrimRight(s.cfg.SiteURL, "/") + path
}

func (s *Server) listingMeta(path, title string) Meta {
	return Meta{
		SiteTitle: s.cfg.SiteTitle,
		Title:     title,
		URL:       s.absURL(path),
		Type:      "website",
	}
}

// articleMeta describes a detail page: the description is the start of the
// body as plain text and the cover image becomes og:image.
func (s *Server) articleMeta(path string, d *model.Detail) Meta {
	m := Meta{
		SiteTitle:     s.cfg.SiteTitle,
		Title:         d.Title,
		Description:   transform.Description(d.Content),
		URL:           s.absURL(path),
		Type:          "article",
		PublishedTime: d.PublishedAt.UTC().Format(time.RFC3339),
	}
	if d.Eyecatch != nil {
		m.Image = d.Eyecatch.URL
	}
	return m
}
