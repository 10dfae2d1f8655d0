package extracthtml

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cardscrape/internal/dom"
)

// ParseDocument parses an HTML page for the Extract* functions.
func ParseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// element converts the first node of sel. It returns nil for an empty selection.
func element(sel *goquery.Selection) *dom.Element {
	if sel.Length() == 0 {
		return nil
	}
	el, _ := dom.FromHTML(sel.Get(0)).(*dom.Element)
	return el
}

// strippedText returns the stripped text of the first node of sel.
func strippedText(sel *goquery.Selection) string {
	el := element(sel)
	if el == nil {
		return ""
	}
	return dom.StrippedText(el)
}
