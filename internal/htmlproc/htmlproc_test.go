package htmlproc

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"blogfront/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World!":          "hello-world",
		"  Go_lang -- Tips  ":   "go-lang-tips",
		"Café au lait":          "caf-au-lait",
		"---x---":               "x",
		"a\u00a0b":              "a-b",
		"Release v1.2 (beta)":   "release-v12-beta",
		"日本語":                   "",
		"":                      "",
		"Already-a-slug":        "already-a-slug",
		"tabs\tand\nnewlines":   "tabs-and-newlines",
		"snake_case_and__more_": "snake-case-and-more",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	inputs := []string{
		"Hello World!", "  --Mixed__Case  Title--  ", "Ünïcödé ✓ text", "100% sure?",
		"a - b - c", "　全角スペース　", "", "-", "_", "x_y-z w",
	}
	for _, in := range inputs {
		once := Slugify(in)
		assert.Equal(t, once, Slugify(once), "input %q", in)
		assert.Regexp(t, `^([a-z0-9]+(-[a-z0-9]+)*)?$`, once)
	}
}

func TestInjectHeadingAnchors_DuplicateHeadings(t *testing.T) {
	out := InjectHeadingAnchors(`<h2>Hello World!</h2><h2>Hello World!</h2>`)
	assert.Equal(t, `<h2 id="hello-world-1">Hello World!</h2><h2 id="hello-world-2">Hello World!</h2>`, out)

	toc := ExtractTableOfContents(out)
	assert.Equal(t, []model.TocHeading{
		{ID: "hello-world-1", Text: "Hello World!", Level: 2},
		{ID: "hello-world-2", Text: "Hello World!", Level: 2},
	}, toc.Headings)
}

func TestInjectHeadingAnchors_FirstOccurrenceIsNumbered(t *testing.T) {
	out := InjectHeadingAnchors(`<h1>Introduction</h1><p>body</p>`)
	assert.Equal(t, `<h1 id="introduction-1">Introduction</h1><p>body</p>`, out)
}

func TestInjectHeadingAnchors_ReplacesExistingIDs(t *testing.T) {
	out := InjectHeadingAnchors(`<h1 id="custom">Title</h1>`)
	assert.Equal(t, `<h1 id="title-1">Title</h1>`, out)
}

func TestInjectHeadingAnchors_LeavesOtherElementsAlone(t *testing.T) {
	src := `<p>Intro</p><h4>Deep</h4><ul><li>one</li></ul>`
	assert.Equal(t, src, InjectHeadingAnchors(src))
}

func TestInjectHeadingAnchors_NestedText(t *testing.T) {
	out := InjectHeadingAnchors(`<h2>Intro <em>to</em> Go</h2>`)
	assert.Equal(t, `<h2 id="intro-to-go-1">Intro <em>to</em> Go</h2>`, out)
}

func TestInjectHeadingAnchors_DegenerateText(t *testing.T) {
	out := InjectHeadingAnchors(`<h3>!!!</h3><h3>???</h3><h3></h3>`)
	toc := ExtractTableOfContents(out)
	require.Len(t, toc.Headings, 3)

	ids := []string{toc.Headings[0].ID, toc.Headings[1].ID, toc.Headings[2].ID}
	assert.Equal(t, []string{"-1", "-2", "-3"}, ids)
	for _, id := range ids {
		assert.True(t, IsDegenerateAnchor(id))
	}
	assert.False(t, IsDegenerateAnchor("hello-1"))
}

func TestInjectHeadingAnchors_UniqueIDs(t *testing.T) {
	texts := []string{"a", "a 1", "a", "a-1", "B", "b", "Setup", "setup!", "", "?", "a"}
	var b strings.Builder
	for i, text := range texts {
		fmt.Fprintf(&b, "<h%d>%s</h%d><p>para %d</p>", i%3+1, text, i%3+1, i)
	}

	toc := ExtractTableOfContents(InjectHeadingAnchors(b.String()))
	require.Len(t, toc.Headings, len(texts))

	pattern := regexp.MustCompile(`^(.*)-([0-9]+)$`)
	seen := make(map[string]bool)
	for i, h := range toc.Headings {
		assert.False(t, seen[h.ID], "duplicate id %q", h.ID)
		seen[h.ID] = true

		m := pattern.FindStringSubmatch(h.ID)
		require.NotNil(t, m, "id %q", h.ID)
		assert.Equal(t, Slugify(texts[i]), m[1])
		assert.NotEqual(t, "0", m[2])
		assert.Equal(t, i%3+1, h.Level)
	}
}

func TestInjectHeadingAnchors_Malformed(t *testing.T) {
	out := InjectHeadingAnchors(`<h2>Unclosed <p>text`)
	toc := ExtractTableOfContents(out)
	require.Len(t, toc.Headings, 1)
	assert.Equal(t, 2, toc.Headings[0].Level)
	assert.Equal(t, "unclosed-text-1", toc.Headings[0].ID)
}

func TestInjectHeadingAnchors_Empty(t *testing.T) {
	assert.Equal(t, "", InjectHeadingAnchors(""))
	toc := ExtractTableOfContents("")
	assert.NotNil(t, toc.Headings)
	assert.Empty(t, toc.Headings)
}

func TestExtractTableOfContents_DocumentOrderAndLevels(t *testing.T) {
	src := InjectHeadingAnchors(`<h1>Top</h1><div><h3>Nested</h3></div><h2>Middle</h2><h4>Ignored</h4>`)
	toc := ExtractTableOfContents(src)
	assert.Equal(t, []model.TocHeading{
		{ID: "top-1", Text: "Top", Level: 1},
		{ID: "nested-1", Text: "Nested", Level: 3},
		{ID: "middle-1", Text: "Middle", Level: 2},
	}, toc.Headings)
}

func TestExtractTableOfContents_MissingIDFallback(t *testing.T) {
	toc := ExtractTableOfContents(`<h2>No Id</h2><h2>No Id</h2>`)
	require.Len(t, toc.Headings, 2)
	// the fallback does not deduplicate
	assert.Equal(t, "no-id", toc.Headings[0].ID)
	assert.Equal(t, "no-id", toc.Headings[1].ID)
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("a", 200)
	got := Excerpt("<p>"+long+"</p>", 150)
	assert.Equal(t, strings.Repeat("a", 150)+Ellipsis, got)
	assert.LessOrEqual(t, len([]rune(got)), 153)

	exact := strings.Repeat("b", 150)
	assert.Equal(t, exact, Excerpt("<p>"+exact+"</p>", 150))

	assert.Equal(t, "Tom &amp; Jerry", Excerpt("  <p>Tom &amp; <b>Jerry</b></p>  ", 150))

	wide := strings.Repeat("字", 151)
	assert.Equal(t, strings.Repeat("字", 150)+Ellipsis, Excerpt(wide, 150))
}

func TestPlainPrefix(t *testing.T) {
	src := "<h2>Title</h2><p>" + strings.Repeat("x", 300) + "</p>"
	got := PlainPrefix(src, 160)
	assert.Equal(t, 160, len([]rune(got)))
	assert.True(t, strings.HasPrefix(got, "Title"))
	assert.NotContains(t, got, Ellipsis)
}

func TestSanitizer(t *testing.T) {
	s := NewSanitizer()
	assert.Equal(t, "<p>ok</p>", s.Sanitize(`<p>ok</p><script>alert(1)</script>`))

	var none *Sanitizer
	assert.Equal(t, "<script>x</script>", none.Sanitize("<script>x</script>"))
}
