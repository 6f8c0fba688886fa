package preview

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// metadata holds the first value seen for each tag of interest
type metadata struct {
	ogTitle            string
	ogDescription      string
	ogImage            string
	ogURL              string
	twitterTitle       string
	twitterDescription string
	twitterImage       string
	title              string
	description        string
}

// parseMetadata tokenizes a document until the end of <head> (or the start
// of <body>) and collects open graph, twitter card and plain meta tags.
func parseMetadata(r io.Reader) (*metadata, error) {
	z := html.NewTokenizer(r)
	m := &metadata{}
	inTitle := false

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return m, nil
			}
			return nil, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Meta:
				m.addMeta(tok.Attr)
			case atom.Title:
				inTitle = tt == html.StartTagToken
			case atom.Body:
				return m, nil
			}

		case html.EndTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Title:
				inTitle = false
			case atom.Head:
				return m, nil
			}

		case html.TextToken:
			if inTitle && m.title == "" {
				m.title = strings.TrimSpace(string(z.Text()))
			}
		}
	}
}

func (m *metadata) addMeta(attrs []html.Attribute) {
	var key, content string
	for _, attr := range attrs {
		switch strings.ToLower(attr.Key) {
		case "property", "name":
			if key == "" {
				key = strings.ToLower(strings.TrimSpace(attr.Val))
			}
		case "content":
			content = strings.TrimSpace(attr.Val)
		}
	}
	if key == "" || content == "" {
		return
	}

	switch key {
	case "og:title":
		setOnce(&m.ogTitle, content)
	case "og:description":
		setOnce(&m.ogDescription, content)
	case "og:image", "og:image:url", "og:image:secure_url":
		setOnce(&m.ogImage, content)
	case "og:url":
		setOnce(&m.ogURL, content)
	case "twitter:title":
		setOnce(&m.twitterTitle, content)
	case "twitter:description":
		setOnce(&m.twitterDescription, content)
	case "twitter:image", "twitter:image:src":
		setOnce(&m.twitterImage, content)
	case "description":
		setOnce(&m.description, content)
	}
}

func (m *metadata) empty() bool {
	return m.bestTitle() == "" && m.bestDescription() == "" && m.bestImage() == ""
}

func (m *metadata) bestTitle() string {
	return firstNonEmpty(m.ogTitle, m.twitterTitle, m.title)
}

func (m *metadata) bestDescription() string {
	return firstNonEmpty(m.ogDescription, m.twitterDescription, m.description)
}

func (m *metadata) bestImage() string {
	return firstNonEmpty(m.ogImage, m.twitterImage)
}

func setOnce(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
