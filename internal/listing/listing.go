// Package listing scrapes the gazette home page for recent issues.
package listing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// Placeholder stands in for a missing date or title.
const Placeholder = "-"

// Item is one published issue.
type Item struct {
	Date     string `json:"date"`
	Title    string `json:"title"`
	Download string `json:"download"`
	View     string `json:"view"`
}

// ParseListing returns the featured issue followed by the regular issue rows.
// Items whose title does not contain titleFilter are dropped; an empty
// filter keeps everything. Links are resolved against base when it is set.
func ParseListing(r io.Reader, base *url.URL, titleFilter string) ([]Item, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	var nodes []*html.Node
	if fresh := findItems(doc, "fresh-row"); len(fresh) > 0 {
		nodes = append(nodes, fresh[0])
	}
	nodes = append(nodes, findItems(doc, "journal-row")...)

	items := make([]Item, 0, len(nodes))
	for _, n := range nodes {
		it := Item{
			Date:     Placeholder,
			Title:    Placeholder,
			Download: resolve(base, linkContaining(n, "letoltes")),
			View:     resolve(base, linkContaining(n, "megtekintes")),
		}
		if m := find(n, func(c *html.Node) bool {
			return isElement(c, "meta") && attr(c, "itemprop") == "datePublished"
		}); m != nil {
			if v, ok := attrOK(m, "content"); ok {
				it.Date = strings.TrimSpace(v)
			}
		}
		if b := find(n, func(c *html.Node) bool {
			return isElement(c, "b") && attr(c, "itemprop") == "name"
		}); b != nil {
			it.Title = strings.TrimSpace(textContent(b))
		}
		if titleFilter != "" && !strings.Contains(it.Title, titleFilter) {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// Fetcher is the subset of fetch.Client used by Client.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Client loads the issue listing from the gazette home page.
type Client struct {
	fetcher     Fetcher
	pageURL     string
	titleFilter string
}

func NewClient(f Fetcher, pageURL, titleFilter string) *Client {
	return &Client{fetcher: f, pageURL: pageURL, titleFilter: titleFilter}
}

// Latest fetches and parses the listing page.
func (c *Client) Latest(ctx context.Context) ([]Item, error) {
	base, err := url.Parse(c.pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}
	body, err := c.fetcher.Get(ctx, c.pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	return ParseListing(bytes.NewReader(body), base, c.titleFilter)
}

// findItems matches ".<class> > div[itemscope]" in document order.
func findItems(root *html.Node, class string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if isElement(n, "div") && n.Parent != nil && hasClass(n.Parent, class) {
			if _, ok := attrOK(n, "itemscope"); ok {
				out = append(out, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// find returns the first descendant of n matching pred.
func find(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if pred(c) {
			return c
		}
		if m := find(c, pred); m != nil {
			return m
		}
	}
	return nil
}

func linkContaining(n *html.Node, fragment string) string {
	a := find(n, func(c *html.Node) bool {
		return isElement(c, "a") && strings.Contains(attr(c, "href"), fragment)
	})
	if a == nil {
		return ""
	}
	return attr(a, "href")
}

func resolve(base *url.URL, href string) string {
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

func attr(n *html.Node, key string) string {
	v, _ := attrOK(n, key)
	return v
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
