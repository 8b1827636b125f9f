package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"blogfront/internal/listing"
	"blogfront/internal/model"
	"blogfront/internal/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	signatureHeader = "X-MICROCMS-Signature"
	maxWebhookBody  = 1 << 20
)

type articlesResponse struct {
	Articles   []model.ListItem       `json:"articles"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	TotalPages int                    `json:"totalPages"`
	HasMore    bool                   `json:"hasMore"`
	Categories []model.CategoryFilter `json:"categories"`
}

// webhookPayload is the subset of the CMS webhook body the cache cares about.
type webhookPayload struct {
	API  string `json:"api"`
	ID   string `json:"id"`
	Type string `json:"type"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, model.ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	s.logger.Error("API request failed",
		zap.String("request_id", RequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	s.writeJSON(w, http.StatusBadGateway, map[string]string{"error": "unable to load articles"})
}

// handleAPIArticles serves the paged listing as JSON. It accepts the same
// category and page parameters as /blog; page size defaults to the blog's
// and can be set with per_page.
func (s *Server) handleAPIArticles(w http.ResponseWriter, r *http.Request) {
	data, err := s.content.FetchListing(r.Context())
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	pageSize := s.cfg.BlogPageSize
	if n, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && n > 0 && n <= 100 {
		pageSize = n
	}

	state := listing.FromQuery(r.URL.Query(), listing.ModePaged, pageSize)
	view := listing.Apply(state, data.Articles)

	s.writeJSON(w, http.StatusOK, articlesResponse{
		Articles:   view.Items,
		Total:      view.Total,
		Page:       view.Page,
		TotalPages: view.TotalPages,
		HasMore:    view.HasMore,
		Categories: data.Categories,
	})
}

func (s *Server) handleAPIArticle(w http.ResponseWriter, r *http.Request) {
	detail, err := s.content.FetchOne(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleAPICategories(w http.ResponseWriter, r *http.Request) {
	filters, err := s.content.FetchCategoryCounts(r.Context())
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, filters)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWebhook verifies the CMS signature when a secret is configured and
// queues a cache invalidation.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	if s.cfg.WebhookSecret != "" && !validSignature(s.cfg.WebhookSecret, body, r.Header.Get(signatureHeader)) {
		s.logger.Warn("Rejected webhook", zap.String("request_id", RequestID(r.Context())))
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	if s.queue == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var payload webhookPayload
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
	}

	reason := "webhook"
	if payload.Type != "" {
		reason += ":" + payload.Type
	}
	job := store.NewJob(reason, payload.ID)
	if err := s.queue.Enqueue(r.Context(), job); err != nil {
		s.logger.Error("Failed to queue invalidation", zap.Error(err))
		http.Error(w, "Failed to queue", http.StatusInternalServerError)
		return
	}

	s.logger.Info("Invalidation queued",
		zap.String("job_id", job.ID.String()),
		zap.String("api", payload.API),
		zap.String("content_id", payload.ID),
	)
	s.writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID.String()})
}

// validSignature checks a hex HMAC-SHA256 of body.
func validSignature(secret string, body []byte, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
