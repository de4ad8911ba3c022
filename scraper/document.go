package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// QueryKind selects the query language of a Strategy.
type QueryKind int

const (
	QueryCSS QueryKind = iota
	QueryXPath
)

// Strategy is one way of locating a field on a page.
type Strategy struct {
	Kind  QueryKind
	Query string
}

// CSS returns a CSS selector strategy.
func CSS(selector string) Strategy { return Strategy{Kind: QueryCSS, Query: selector} }

// XPath returns an XPath strategy.
func XPath(expr string) Strategy { return Strategy{Kind: QueryXPath, Query: expr} }

func (s Strategy) String() string {
	if s.Kind == QueryXPath {
		return "xpath:" + s.Query
	}
	return "css:" + s.Query
}

// Document is a parsed snapshot of a page, or of one element subtree of it.
type Document struct {
	root *html.Node
}

// ParseDocument parses rendered page HTML.
func ParseDocument(rawHTML string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: root}, nil
}

// First returns the first element matched by s below the document root.
// It returns (nil, nil) when nothing matches and an error when the query
// itself is invalid.
func (d *Document) First(s Strategy) (*goquery.Selection, error) {
	var node *html.Node
	switch s.Kind {
	case QueryXPath:
		n, err := htmlquery.Query(d.root, s.Query)
		if err != nil {
			return nil, fmt.Errorf("xpath %q: %w", s.Query, err)
		}
		node = n
	default:
		sel, err := cascadia.Compile(s.Query)
		if err != nil {
			return nil, fmt.Errorf("css %q: %w", s.Query, err)
		}
		node = cascadia.Query(d.root, sel)
	}
	if node == nil {
		return nil, nil
	}
	return goquery.NewDocumentFromNode(node).Selection, nil
}

// Scope returns one sub-document per element matched by s, in document order.
func (d *Document) Scope(s Strategy) ([]*Document, error) {
	var nodes []*html.Node
	switch s.Kind {
	case QueryXPath:
		ns, err := htmlquery.QueryAll(d.root, s.Query)
		if err != nil {
			return nil, fmt.Errorf("xpath %q: %w", s.Query, err)
		}
		nodes = ns
	default:
		sel, err := cascadia.Compile(s.Query)
		if err != nil {
			return nil, fmt.Errorf("css %q: %w", s.Query, err)
		}
		nodes = cascadia.QueryAll(d.root, sel)
	}

	docs := make([]*Document, 0, len(nodes))
	for _, n := range nodes {
		docs = append(docs, &Document{root: n})
	}
	return docs, nil
}
