// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pdiddy/shelfgrab/internal/fetch"
	"github.com/pdiddy/shelfgrab/internal/httputil"
	"github.com/pdiddy/shelfgrab/pkg/types"
)

// DefaultLibGenURL is the primary provider's default base URL.
const DefaultLibGenURL = "https://libgen.is"

// Column positions in the LibGen "simple" results table.
const (
	lgColAuthors = 1
	lgColTitle   = 2
	lgColFormat  = 8
	lgColMirror  = 9
	lgMinCols    = 10
)

// LibGen searches the Library Genesis simple-view results table. Its
// candidate links point at a mirror landing page, so ResolveDownloadLink
// must be called before Download.
type LibGen struct {
	base
}

// NewLibGen returns a LibGen provider rooted at baseURL.
func NewLibGen(baseURL string, client *httputil.Client, d *fetch.Downloader) *LibGen {
	if baseURL == "" {
		baseURL = DefaultLibGenURL
	}
	return &LibGen{base{
		name:       "libgen.is",
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     client,
		downloader: d,
	}}
}

// Search queries search.php. FieldIdentifier searches the identifier column
// (ISBNs); FieldFreeText searches the default column.
func (p *LibGen) Search(ctx context.Context, query string, field Field) ([]types.Candidate, error) {
	column := "def"
	if field == FieldIdentifier {
		column = "identifier"
	}
	v := url.Values{}
	v.Set("req", query)
	v.Set("lg_topic", "libgen")
	v.Set("open", "0")
	v.Set("view", "simple")
	v.Set("res", "100")
	v.Set("phrase", "1")
	v.Set("column", column)

	body, err := p.client.GetPage(ctx, p.baseURL+"/search.php?"+v.Encode())
	if err != nil {
		return nil, p.unavailable("search", err)
	}
	doc, err := parseHTML(body)
	if err != nil {
		return nil, p.unavailable("parse", err)
	}
	return p.parseResults(doc), nil
}

func (p *LibGen) parseResults(doc *html.Node) []types.Candidate {
	var out []types.Candidate
	for _, tr := range findAll(doc, isElem(atom.Tr)) {
		if attr(tr, "valign") != "top" {
			continue
		}
		cells := children(tr, atom.Td)
		if len(cells) < lgMinCols {
			continue
		}

		var authors []string
		for _, a := range findAll(cells[lgColAuthors], isElem(atom.A)) {
			if name := text(a, nil); name != "" {
				authors = append(authors, name)
			}
		}

		titleLink := findFirst(cells[lgColTitle], func(n *html.Node) bool {
			if n.DataAtom != atom.A {
				return false
			}
			_, err := strconv.Atoi(attr(n, "id"))
			return err == nil
		})
		if titleLink == nil {
			continue
		}
		title := text(titleLink, func(n *html.Node) bool {
			return n.DataAtom == atom.Br || n.DataAtom == atom.Font
		})

		mirror := findFirst(cells[lgColMirror], isElem(atom.A))
		if title == "" || len(authors) == 0 || mirror == nil {
			continue
		}

		out = append(out, types.Candidate{
			Authors:  authors,
			Title:    title,
			Format:   types.ParseFormat(text(cells[lgColFormat], nil)),
			Link:     resolveRef(p.baseURL+"/", attr(mirror, "href")),
			Provider: p.name,
		})
	}
	return out
}

// ResolveDownloadLink follows the mirror landing page to the "GET" link
// inside #download.
func (p *LibGen) ResolveDownloadLink(ctx context.Context, c types.Candidate) (string, error) {
	body, err := p.client.GetPage(ctx, c.Link)
	if err != nil {
		return "", p.unavailable("landing page", err)
	}
	doc, err := parseHTML(body)
	if err != nil {
		return "", p.unavailable("parse landing page", err)
	}

	box := findFirst(doc, func(n *html.Node) bool { return attr(n, "id") == "download" })
	if box == nil {
		return "", nil
	}
	var link *html.Node
	if h2 := findFirst(box, isElem(atom.H2)); h2 != nil {
		link = findFirst(h2, isElem(atom.A))
	}
	if link == nil {
		link = findFirst(box, isElem(atom.A))
	}
	if link == nil || attr(link, "href") == "" {
		return "", nil
	}
	return resolveRef(c.Link, attr(link, "href")), nil
}

var _ Provider = (*LibGen)(nil)
