// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pdiddy/shelfgrab/internal/fetch"
	"github.com/pdiddy/shelfgrab/internal/httputil"
	"github.com/pdiddy/shelfgrab/pkg/types"
)

// DefaultFlibustaURL is the secondary provider's default base URL.
const DefaultFlibustaURL = "http://flibusta.is"

// Flibusta searches the Flibusta book list. It serves a single format,
// epub, and its links are direct.
type Flibusta struct {
	base
}

// NewFlibusta returns a Flibusta provider rooted at baseURL.
func NewFlibusta(baseURL string, client *httputil.Client, d *fetch.Downloader) *Flibusta {
	if baseURL == "" {
		baseURL = DefaultFlibustaURL
	}
	return &Flibusta{base{
		name:       "flibusta",
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     client,
		downloader: d,
	}}
}

// Search queries /booksearch. The site has no identifier search, so field
// is ignored.
func (p *Flibusta) Search(ctx context.Context, query string, _ Field) ([]types.Candidate, error) {
	v := url.Values{}
	v.Set("ask", query)
	v.Set("chb", "on")

	body, err := p.client.GetPage(ctx, p.baseURL+"/booksearch?"+v.Encode())
	if err != nil {
		return nil, p.unavailable("search", err)
	}
	doc, err := parseHTML(body)
	if err != nil {
		return nil, p.unavailable("parse", err)
	}
	return p.parseResults(doc), nil
}

// parseResults reads entries of the form
// <li><a href="/b/ID">Title</a> - <a href="/a/ID">Author</a></li>.
func (p *Flibusta) parseResults(doc *html.Node) []types.Candidate {
	var out []types.Candidate
	for _, li := range findAll(doc, isElem(atom.Li)) {
		links := children(li, atom.A)
		if len(links) < 2 {
			continue
		}
		book, author := links[0], links[1]
		href := attr(book, "href")
		if !strings.HasPrefix(href, "/b/") || !strings.HasPrefix(attr(author, "href"), "/a/") {
			continue
		}
		title := text(book, nil)
		name := text(author, nil)
		if title == "" {
			continue
		}
		out = append(out, types.Candidate{
			Authors:  []string{name},
			Title:    title,
			Format:   types.FormatEPUB,
			Link:     p.baseURL + strings.TrimRight(href, "/") + "/epub",
			Provider: p.name,
		})
	}
	return out
}

// ResolveDownloadLink returns the candidate link unchanged.
func (p *Flibusta) ResolveDownloadLink(_ context.Context, c types.Candidate) (string, error) {
	return c.Link, nil
}

var _ Provider = (*Flibusta)(nil)
