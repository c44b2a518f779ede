package crawler

import (
	"bytes"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Parser extracts links from HTML content relative to a base URL.
//
// Design decision: We use golang.org/x/net/html rather than regex
// because:
//  1. It correctly handles the malformed HTML common on news sites
//  2. Relative URL resolution needs a real parse, not pattern matching
//  3. Standard library extension, well-maintained
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving
	// relative links.
	baseURL *url.URL
}

// ParseResult contains everything extracted from one HTML page.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Links contains the absolute, fragment-stripped URLs discovered
	// in <a href> and <link href> elements, deduplicated within this
	// page, in document order. Cross-page deduplication is the
	// frontier's job.
	Links []string
}

// NewParser creates a parser for a page at the given base URL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse walks the HTML document and extracts the title and links.
// Individual malformed hrefs are dropped; they never fail the page.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{Links: make([]string, 0)}
	seen := make(map[string]struct{})

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a", "link":
				if href := getAttr(n, "href"); href != "" {
					if resolved := p.resolveURL(href); resolved != "" {
						if _, ok := seen[resolved]; !ok {
							seen[resolved] = struct{}{}
							result.Links = append(result.Links, resolved)
						}
					}
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return result, nil
}

// ParseBytes decodes the body according to the Content-Type header
// (falling back to charset sniffing) and parses it. Pages in legacy
// encodings are transcoded to UTF-8 before the HTML walk.
func (p *Parser) ParseBytes(body []byte, contentType string) (*ParseResult, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		// Undecodable content: parse the raw bytes and let the HTML
		// tokenizer do what it can.
		return p.Parse(bytes.NewReader(body))
	}
	return p.Parse(r)
}

// resolveURL resolves an href against the base URL and canonicalizes
// it. It returns "" for hrefs that are not crawlable targets.
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		href == "#" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(u)

	canonical, err := CanonicalURL(resolved.String())
	if err != nil {
		return ""
	}
	return canonical
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
