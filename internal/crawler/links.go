package crawler

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// LinkProcessor turns a raw HTML document into absolute outbound links.
type LinkProcessor struct {
	valid URLValidator
}

// NewLinkProcessor returns a LinkProcessor that keeps links accepted by valid.
// A nil validator falls back to IsValidURL.
func NewLinkProcessor(valid URLValidator) *LinkProcessor {
	if valid == nil {
		valid = IsValidURL
	}
	return &LinkProcessor{valid: valid}
}

// ExtractLinks returns every anchor href in html resolved against baseURL, in
// document order, filtered by the validator. Hrefs that cannot be resolved are
// skipped. An empty document yields no links.
func (p *LinkProcessor) ExtractLinks(baseURL string, html []byte) ([]string, error) {
	if len(bytes.TrimSpace(html)) == 0 {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html for %s: %w", baseURL, err)
	}
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		absolute, err := ForceAbsoluteURL(baseURL, href)
		if err != nil {
			return
		}
		if p.valid(absolute) {
			links = append(links, absolute)
		}
	})
	return links, nil
}
