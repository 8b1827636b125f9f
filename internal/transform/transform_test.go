package transform

import (
	"strings"
	"testing"
	"time"

	"blogfront/internal/htmlproc"
	"blogfront/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(day int) time.Time {
	return time.Date(2024, 3, day, 9, 0, 0, 0, time.UTC)
}

func TestToListItem(t *testing.T) {
	published := ts(10)
	raw := model.RawArticle{
		ID:          "hello-go",
		Title:       "Hello Go",
		Content:     "<p>" + strings.Repeat("z", 200) + "</p>",
		Eyecatch:    &model.Image{URL: "https://images.example/cover.png", Width: 1200, Height: 630},
		Categories:  model.CategoryList{{ID: "c1", Name: "go"}, {ID: "c2", Name: "design"}},
		PublishedAt: &published,
		CreatedAt:   ts(1),
	}

	item := ToListItem(raw)

	assert.Equal(t, "hello-go", item.ID)
	assert.Equal(t, "hello-go", item.Slug)
	assert.Equal(t, "Hello Go", item.Title)
	assert.Equal(t, strings.Repeat("z", 150)+"...", item.Excerpt)
	assert.Equal(t, "https://images.example/cover.png", item.EyecatchURL)
	assert.Equal(t, []string{"go", "design"}, item.CategoryNames)
	assert.Equal(t, published, item.PublishedAt)
}

func TestToListItem_OptionalFields(t *testing.T) {
	item := ToListItem(model.RawArticle{
		ID:        "draft",
		Content:   "<p>short body</p>",
		CreatedAt: ts(2),
	})

	assert.Equal(t, "short body", item.Excerpt)
	assert.Empty(t, item.EyecatchURL)
	assert.NotNil(t, item.CategoryNames)
	assert.Empty(t, item.CategoryNames)
	assert.Equal(t, ts(2), item.PublishedAt)
}

func TestToListItem_ExcerptBound(t *testing.T) {
	for _, n := range []int{0, 1, 149, 150, 151, 400} {
		body := strings.Repeat("k", n)
		item := ToListItem(model.RawArticle{Content: "<div><p>" + body + "</p></div>"})

		assert.LessOrEqual(t, len([]rune(item.Excerpt)), ExcerptLength+len(htmlproc.Ellipsis))
		assert.Equal(t, n > ExcerptLength, strings.HasSuffix(item.Excerpt, htmlproc.Ellipsis), "n=%d", n)
	}
}

func TestToDetail(t *testing.T) {
	nav := model.Navigation{
		Previous: &model.AdjacentArticle{Slug: "newer", Title: "Newer"},
	}
	raw := model.RawArticle{
		ID:         "post",
		Title:      "Post",
		Content:    `<h2>Setup</h2><p>x</p><h3>Install</h3><h2>Setup</h2>`,
		Eyecatch:   &model.Image{URL: "https://images.example/p.png", Width: 10, Height: 20},
		Categories: model.CategoryList{{ID: "c", Name: "ops"}},
		CreatedAt:  ts(3),
	}

	d := ToDetail(raw, nav)

	assert.Equal(t, `<h2 id="setup-1">Setup</h2><p>x</p><h3 id="install-1">Install</h3><h2 id="setup-2">Setup</h2>`, d.Content)
	assert.Equal(t, []model.TocHeading{
		{ID: "setup-1", Text: "Setup", Level: 2},
		{ID: "install-1", Text: "Install", Level: 3},
		{ID: "setup-2", Text: "Setup", Level: 2},
	}, d.TableOfContents.Headings)
	assert.Equal(t, nav, d.Navigation)
	assert.Equal(t, raw.Eyecatch, d.Eyecatch)
	assert.Equal(t, []string{"ops"}, d.CategoryNames)
	assert.Equal(t, ts(3), d.PublishedAt)
	assert.Equal(t, "post", d.Slug)
}

func TestTransformer_Sanitizes(t *testing.T) {
	tr := Transformer{Sanitizer: htmlproc.NewSanitizer()}
	d := tr.ToDetail(model.RawArticle{Content: `<h2>Hi</h2><script>alert(1)</script>`}, model.Navigation{})

	assert.NotContains(t, d.Content, "script")
	require.Len(t, d.TableOfContents.Headings, 1)
	assert.Equal(t, "hi-1", d.TableOfContents.Headings[0].ID)
}

func TestDescription(t *testing.T) {
	body := "<p>" + strings.Repeat("d", 500) + "</p>"
	assert.Equal(t, strings.Repeat("d", DescriptionLength), Description(body))
	assert.Equal(t, "plain", Description("<p> plain </p>"))
}

func TestNavigationAt(t *testing.T) {
	items := []model.ListItem{
		{Slug: "a", Title: "A"},
		{Slug: "b", Title: "B"},
		{Slug: "c", Title: "C"},
	}

	first := NavigationAt(items, 0)
	assert.Nil(t, first.Previous)
	assert.Equal(t, &model.AdjacentArticle{Slug: "b", Title: "B"}, first.Next)

	middle := NavigationAt(items, 1)
	assert.Equal(t, "a", middle.Previous.Slug)
	assert.Equal(t, "c", middle.Next.Slug)

	last := NavigationAt(items, 2)
	assert.Equal(t, "b", last.Previous.Slug)
	assert.Nil(t, last.Next)

	assert.Equal(t, model.Navigation{}, NavigationAt(items, -1))
	assert.Equal(t, model.Navigation{}, NavigationAt(items, 3))
	assert.Equal(t, model.Navigation{}, NavigationAt(nil, 0))
}
