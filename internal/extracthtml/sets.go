package extracthtml

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SeriesSelector locates the set selector on the card list page.
const SeriesSelector = "select#series"

var reTagLike = regexp.MustCompile(`<.*?>`)

// ExtractSets returns one Set per <option> of the set selector that carries a
// non-empty value, in document order. Duplicate ids are kept.
//
// It returns *StructureNotFoundError when the selector is missing.
func ExtractSets(doc *goquery.Document) ([]Set, error) {
	selector := doc.Find(SeriesSelector).First()
	if selector.Length() == 0 {
		return nil, &StructureNotFoundError{Selector: SeriesSelector}
	}

	sets := []Set{}
	selector.Find("option").Each(func(_ int, opt *goquery.Selection) {
		if s, ok := parseSetOption(opt); ok {
			sets = append(sets, s)
		}
	})
	return sets, nil
}

// parseSetOption turns one <option> into a Set. Placeholder options without a
// value report ok=false.
func parseSetOption(opt *goquery.Selection) (Set, bool) {
	value, _ := opt.Attr("value")
	value = strings.TrimSpace(value)
	if value == "" {
		return Set{}, false
	}

	// Entities such as &lt;br&gt; decode into tag-shaped text.
	text := strings.TrimSpace(opt.Text())
	text = reTagLike.ReplaceAllString(text, "")

	raw, err := goquery.OuterHtml(opt)
	if err != nil {
		raw, _ = opt.Html()
	}

	return Set{
		Value:   value,
		RawText: text,
		Parts:   SplitLabel(text),
		RawHTML: raw,
	}, true
}

// SplitLabel splits a set label on "-" unless the hyphen sits inside a
// bracketed code, trims every part and drops empty ones.
//
//	"EXTRA BOOSTER -Anime 25th Collection- [EB-02]"
//	=> ["EXTRA BOOSTER", "Anime 25th Collection", "[EB-02]"]
//
// A hyphen is kept when scanning forward reaches a "]" before any "[".
func SplitLabel(text string) []string {
	parts := []string{}
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}

	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '-' || insideBrackets(text[i+1:]) {
			continue
		}
		add(text[start:i])
		start = i + 1
	}
	add(text[start:])
	return parts
}

// insideBrackets reports whether rest reaches a closing bracket before an
// opening one.
func insideBrackets(rest string) bool {
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '[':
			return false
		case ']':
			return true
		}
	}
	return false
}
