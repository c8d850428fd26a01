package page

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Summary is what a scanned page shows a reader.
type Summary struct {
	Title string
	Links []string // anchor hrefs, unescaped, in document order
}

// Inspect parses doc and extracts its title and anchor hrefs.
func Inspect(doc string) (Summary, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return Summary{}, fmt.Errorf("parse html: %w", err)
	}

	var s Summary
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					s.Title = n.FirstChild.Data
				}
			case "a":
				for _, attr := range n.Attr {
					if attr.Key == "href" {
						s.Links = append(s.Links, attr.Val)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return s, nil
}

// Links returns the href of every anchor in doc.
func Links(doc string) ([]string, error) {
	s, err := Inspect(doc)
	if err != nil {
		return nil, err
	}
	return s.Links, nil
}
