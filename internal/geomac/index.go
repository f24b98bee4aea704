package geomac

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

var (
	brokenLink    = regexp.MustCompile(`File not found: Link broken`)
	parentLink    = regexp.MustCompile(`To Parent Directory`)
	activePerimRe = regexp.MustCompile(`ActivePerim`)
)

// Link is one anchor of a directory index page.
type Link struct {
	Text string
	URL  string
}

// ParseIndex extracts the anchors of a directory listing, resolving each
// href against base. A "link broken" body is reported as an error.
func ParseIndex(r io.Reader, base string) ([]Link, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, eris.Wrapf(err, "geomac: parse base url %s", base)
	}

	doc, err := html.Parse(r)
	if err != nil {
		return nil, eris.Wrap(err, "geomac: parse index html")
	}

	var (
		links  []Link
		broken bool
		walk   func(*html.Node)
	)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode && brokenLink.MatchString(n.Data) {
			broken = true
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attr(n, "href"); href != "" {
				if ref, err := url.Parse(href); err == nil {
					links = append(links, Link{
						Text: strings.TrimSpace(textOf(n)),
						URL:  baseURL.ResolveReference(ref).String(),
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if broken {
		return nil, eris.Errorf("geomac: index not found: %s", base)
	}
	return links, nil
}

// FireLinks keeps the per-fire directory links of a region index, dropping
// the parent-directory link and the active-perimeter archives.
func FireLinks(links []Link) []Link {
	var out []Link
	for _, l := range links {
		if l.Text == "" || parentLink.MatchString(l.Text) || activePerimRe.MatchString(l.Text) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
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
