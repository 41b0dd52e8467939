package htmlutil

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t testing.TB, body string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestGetAnchors(t *testing.T) {
	doc := parse(t, `<div>
		<a class="dev-link" href="https://example.com">
			Visit   website
		</a>
		<a class="dev-link" href="mailto:dev@example.com">Email <b>dev@example.com</b></a>
		<a class="dev-link"><span>nested only</span></a>
	</div>`)

	anchors := GetAnchors(context.Background(), doc.Find("a.dev-link"))
	require.Equal(t, []Anchor{
		{Name: "Visit website", Href: "https://example.com"},
		{Name: "Email", Href: "mailto:dev@example.com"},
		{Name: "", Href: ""},
	}, anchors)
}

func TestOwnTexts(t *testing.T) {
	doc := parse(t, `<div class="content">May 1, 2016<span>ignored</span></div><div class="content"></div>`)
	require.Equal(t, []string{"May 1, 2016"}, OwnTexts(doc.Find("div.content")))
}

func TestGetText(t *testing.T) {
	doc := parse(t, `<div id="x">Angry <b>Birds</b> 2</div>`)
	require.Equal(t, "Angry Birds 2", GetText(doc.Find("#x").Nodes[0]))
}
