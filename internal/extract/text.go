package extract

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// CleanText strips markup, collapses whitespace, and NFC-normalizes s.
func CleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// NodeText returns the cleaned text of the selection.
func NodeText(sel *goquery.Selection) string {
	return CleanText(sel.Text())
}

// FirstText returns the cleaned text of the first selector that matches
// a non-empty node.
func FirstText(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if text := NodeText(doc.Find(selector).First()); text != "" {
			return text
		}
	}
	return ""
}

// MetaContent returns the content attribute of the first matching meta tag.
func MetaContent(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if v, ok := doc.Find(selector).First().Attr("content"); ok {
			if v = CleanText(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// TrimSiteSuffix removes a trailing site name such as "· Example Archive".
func TrimSiteSuffix(title, suffix string) string {
	title = strings.TrimSpace(title)
	if suffix == "" {
		return title
	}
	title = strings.ReplaceAll(title, suffix, "")
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(title), "·|-–"))
}

// Resolve turns href into an absolute URL relative to base.
// It returns "" for fragments, javascript: and mailto: links.
func Resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

// Extension returns the lowercase file extension of rawURL's path,
// without the dot, or "" if there is none.
func Extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := path.Ext(u.Path)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Filename returns the last path segment of rawURL.
func Filename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name, _ := url.PathUnescape(path.Base(u.Path))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
