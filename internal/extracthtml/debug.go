package extracthtml

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// DebugPrintSelector prints every match of selector, either as outer HTML or
// as stripped text, each followed by a blank line. It returns the number of
// matches so callers can report selectors that stopped matching.
//
// This backs the inspect command's "-selector" mode, used when the site
// layout changes and the extractor selectors need updating.
func DebugPrintSelector(w io.Writer, doc *goquery.Document, selector string, textOnly bool) (int, error) {
	matches := doc.Find(selector)

	var werr error
	matches.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var out string
		if textOnly {
			out = strippedText(s)
		} else {
			html, err := goquery.OuterHtml(s)
			if err != nil {
				html, _ = s.Html()
			}
			out = html
		}
		if _, werr = fmt.Fprintf(w, "%s\n\n", out); werr != nil {
			return false
		}
		return true
	})
	if werr != nil {
		return 0, fmt.Errorf("write match: %w", werr)
	}
	return matches.Length(), nil
}
