package htmlproc

import (
	"strconv"
	"strings"

	"blogfront/internal/model"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const headingSelector = "h1, h2, h3"

// parseFragment parses src as the children of a <body> and hangs the result
// under a detached <div> so the fragment can be rendered back without the
// html/head/body wrapper a full document parse would add.
func parseFragment(src string) *goquery.Document {
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

	// ParseFragment only fails on reader errors, which a strings.Reader never returns.
	nodes, _ := html.ParseFragment(strings.NewReader(src), body)
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(root)
}

// AnchorID joins a base slug and its 1-based occurrence number.
func AnchorID(base string, occurrence int) string {
	return base + "-" + strconv.Itoa(occurrence)
}

// IsDegenerateAnchor reports ids produced from headings whose text had no
// slug characters at all ("-1", "-2", ...). They are valid and unique, just
// not readable.
func IsDegenerateAnchor(id string) bool {
	return strings.HasPrefix(id, "-")
}

// InjectHeadingAnchors sets an id on every h1/h2/h3 in document order. Every
// heading gets "{slug}-{n}" where n counts occurrences of that slug so far,
// starting at 1, so ids are unique within the document. Existing ids are
// replaced. Malformed markup is handled best-effort by the HTML5 parser.
func InjectHeadingAnchors(src string) string {
	doc := parseFragment(src)
	seen := make(map[string]int)

	doc.Find(headingSelector).Each(func(_ int, h *goquery.Selection) {
		base := Slugify(h.Text())
		seen[base]++
		h.SetAttr("id", AnchorID(base, seen[base]))
	})

	out, err := doc.Html()
	if err != nil {
		return src
	}
	return out
}

// ExtractTableOfContents lists the h1/h2/h3 headings of src in document
// order. Headings without an id fall back to Slugify of their text; those
// fallback ids are not deduplicated.
func ExtractTableOfContents(src string) model.TableOfContents {
	doc := parseFragment(src)
	headings := make([]model.TocHeading, 0)

	doc.Find(headingSelector).Each(func(_ int, h *goquery.Selection) {
		text := strings.TrimSpace(h.Text())
		id, ok := h.Attr("id")
		if !ok || id == "" {
			id = Slugify(text)
		}
		headings = append(headings, model.TocHeading{
			ID:    id,
			Text:  text,
			Level: headingLevel(goquery.NodeName(h)),
		})
	})

	return model.TableOfContents{Headings: headings}
}

func headingLevel(tag string) int {
	if len(tag) != 2 || tag[0] != 'h' {
		return 0
	}
	return int(tag[1] - '0')
}
