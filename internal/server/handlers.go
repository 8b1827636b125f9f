package server

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"blogfront/internal/listing"
	"blogfront/internal/model"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type categoryLink struct {
	Name   string
	Count  int
	Href   string
	Active bool
}

type pageLink struct {
	Number  int
	Href    string
	Current bool
}

type listingPage struct {
	Meta       Meta
	Heading    string
	Items      []model.ListItem
	Total      int
	Category   string
	AllHref    string
	Categories []categoryLink
	MoreHref   string
	Pages      []pageLink
	PrevHref   string
	NextHref   string
}

type articlePage struct {
	Meta    Meta
	Article *model.Detail
	Content template.HTML
}

type errorPage struct {
	Meta      Meta
	Message   string
	RetryHref string
}

// href reduces ev against s and turns the resulting URL into a link. User
// events carry their own WriteURL effect; when none is emitted the next
// state's query is used.
func href(path string, s listing.State, events ...listing.Event) string {
	q := url.Values(nil)
	for _, ev := range events {
		var effects []listing.Effect
		s, effects = listing.Reduce(s, ev)
		for _, eff := range effects {
			if w, ok := eff.(listing.WriteURL); ok {
				q = w.Query
			}
		}
	}
	if q == nil {
		q = listing.Query(s)
	}
	return path + listing.Encode(q)
}

func (s *Server) buildListing(r *http.Request, path string, mode listing.Mode, pageSize int, heading string) (*listingPage, error) {
	data, err := s.content.FetchListing(r.Context())
	if err != nil {
		return nil, err
	}

	m := listing.NewMachine(data.Articles, listing.Options{
		Mode:     mode,
		PageSize: pageSize,
		Initial:  r.URL.Query(),
	})
	defer m.Close()
	state, view := m.Snapshot(), m.View()

	page := &listingPage{
		Meta:     s.listingMeta(path, heading),
		Heading:  heading,
		Items:    view.Items,
		Total:    view.Total,
		Category: state.Category,
		AllHref:  href(path, state, listing.SelectCategory{Origin: listing.FromUser}),
	}

	for _, c := range data.Categories {
		page.Categories = append(page.Categories, categoryLink{
			Name:   c.Name,
			Count:  c.Count,
			Href:   href(path, state, listing.SelectCategory{ID: c.ID, Origin: listing.FromUser}),
			Active: c.ID == state.Category,
		})
	}

	switch mode {
	case listing.ModePaged:
		for n := 1; n <= view.TotalPages; n++ {
			page.Pages = append(page.Pages, pageLink{
				Number:  n,
				Href:    href(path, state, listing.GoToPage{Page: n, Origin: listing.FromUser}),
				Current: n == view.Page,
			})
		}
		if view.Page > 1 {
			page.PrevHref = href(path, state, listing.GoToPage{Page: view.Page - 1, Origin: listing.FromUser})
		}
		if view.HasMore {
			page.NextHref = href(path, state, listing.GoToPage{Page: view.Page + 1, Origin: listing.FromUser})
		}
	default:
		if view.HasMore {
			page.MoreHref = "/more" + listing.Encode(listing.Query(state))
		}
	}

	return page, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.buildListing(r, "/", listing.ModeWindow, s.cfg.TopPageSize, s.cfg.SiteTitle)
	if err != nil {
		s.renderFetchError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "index", page)
}

// handleMore is the top page's "view more". The listing is mounted from the
// current URL, held in its loading state for the configured delay and the
// client is sent to the grown window. A client that leaves during the delay
// gets nothing; the deferred Close unmounts the listing either way.
func (s *Server) handleMore(w http.ResponseWriter, r *http.Request) {
	data, err := s.content.FetchListing(r.Context())
	if err != nil {
		s.renderFetchError(w, r, err)
		return
	}

	m := listing.NewMachine(data.Articles, listing.Options{
		Mode:     listing.ModeWindow,
		PageSize: s.cfg.TopPageSize,
		Initial:  r.URL.Query(),
		Delay:    s.cfg.LoadMoreDelay,
	})
	defer m.Close()

	if m.View().HasMore {
		if err := m.LoadMore(r.Context()); err != nil {
			s.logger.Debug("Load more abandoned",
				zap.String("request_id", RequestID(r.Context())),
				zap.Error(err),
			)
			return
		}
	}
	http.Redirect(w, r, "/"+listing.Encode(listing.Query(m.Snapshot())), http.StatusSeeOther)
}

func (s *Server) handleBlog(w http.ResponseWriter, r *http.Request) {
	page, err := s.buildListing(r, "/blog", listing.ModePaged, s.cfg.BlogPageSize, "Blog")
	if err != nil {
		s.renderFetchError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "blog", page)
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	detail, err := s.content.FetchOne(r.Context(), slug)
	if err != nil {
		s.renderFetchError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "article", articlePage{
		Meta:    s.articleMeta(r.URL.Path, detail),
		Article: detail,
		// body comes from the CMS; sanitized upstream when content.sanitize is on
		Content: template.HTML(detail.Content),
	})
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	meta := s.listingMeta(r.URL.Path, "Contact")
	meta.Description = "Get in touch with " + s.cfg.SiteTitle
	s.render(w, r, http.StatusOK, "contact", errorPage{Meta: meta})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "notfound", errorPage{
		Meta: s.listingMeta(r.URL.Path, "Page not found"),
	})
}

// renderFetchError maps a content error onto the 404 page or the generic
// "unable to load" view. No partial page is rendered.
func (s *Server) renderFetchError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, model.ErrNotFound) {
		s.handleNotFound(w, r)
		return
	}

	s.logger.Error("Failed to load content",
		zap.String("request_id", RequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	s.render(w, r, http.StatusBadGateway, "error", errorPage{
		Meta:      s.listingMeta(r.URL.Path, "Unable to load articles"),
		Message:   "Unable to load articles",
		RetryHref: r.URL.RequestURI(),
	})
}

// render executes into a buffer first so a template failure never leaves a
// half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	tmpl, ok := s.templates[name]
	if !ok {
		s.logger.Error("Template missing", zap.String("template", name))
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("Template error",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("template", name),
			zap.Error(err),
		)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
