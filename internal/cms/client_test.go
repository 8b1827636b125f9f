package cms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"blogfront/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/api/v1", APIKey: "test-key"}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{ServiceDomain: "demo"}, zap.NewNop())
	assert.ErrorContains(t, err, "api key")

	_, err = New(Config{APIKey: "k"}, zap.NewNop())
	assert.ErrorContains(t, err, "service domain")

	c, err := New(Config{ServiceDomain: "demo", APIKey: "k"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "https://demo.microcms.io/api/v1", c.baseURL)
	assert.Equal(t, "blogs", c.endpoint)
}

func TestClient_List(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/blogs", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-MICROCMS-API-KEY"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "200", r.URL.Query().Get("offset"))
		assert.Equal(t, "-publishedAt", r.URL.Query().Get("orders"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"contents": [
				{"id": "a", "title": "A", "content": "<p>a</p>", "category": {"id": "c1", "name": "go"}, "createdAt": "2024-01-01T00:00:00Z", "publishedAt": "2024-01-02T00:00:00Z"}
			],
			"totalCount": 201, "offset": 200, "limit": 100
		}`))
	})

	resp, err := c.List(context.Background(), model.ListQuery{Limit: 100, Offset: 200, Orders: "-publishedAt"})
	require.NoError(t, err)
	assert.Equal(t, 201, resp.TotalCount)
	require.Len(t, resp.Contents, 1)
	assert.Equal(t, "a", resp.Contents[0].ID)
	assert.Equal(t, []string{"go"}, resp.Contents[0].CategoryNames())
	require.NotNil(t, resp.Contents[0].PublishedAt)
}

func TestClient_Get(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/blogs/hello":
			w.Write([]byte(`{"id": "hello", "title": "Hello", "content": "<h2>Hi</h2>", "createdAt": "2024-01-01T00:00:00Z"}`))
		default:
			http.Error(w, `{"message":"Content is not found."}`, http.StatusNotFound)
		}
	})

	a, err := c.Get(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", a.Title)
	assert.Nil(t, a.PublishedAt)

	_, err = c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = c.Get(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestClient_TransportErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.List(context.Background(), model.ListQuery{Limit: 10})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "boom", se.Body)

	_, err = c.Get(context.Background(), "x")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
}

func TestClient_DecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := c.List(context.Background(), model.ListQuery{})
	assert.ErrorContains(t, err, "decode response")
}

func TestClient_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"contents": [], "totalCount": 0}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.List(ctx, model.ListQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}
