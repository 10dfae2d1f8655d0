package extracthtml

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// BlockSectionSelector matches the content sections of the block-icon rules page.
const BlockSectionSelector = "div.detailCol.isPdS.mtS"

// ExtractBlockRules reads the first two content sections of the rules page:
// the first into BlockX, the second into Block4. Later sections are ignored.
//
// Missing sections leave their group empty; check BlockRules.Sections to
// notice a layout change.
func ExtractBlockRules(doc *goquery.Document) BlockRules {
	rules := BlockRules{
		BlockX: []BlockRuleEntry{},
		Block4: []BlockRuleEntry{},
	}

	sections := doc.Find(BlockSectionSelector)
	rules.Sections = sections.Length()

	sections.Slice(0, min(2, sections.Length())).Each(func(i int, section *goquery.Selection) {
		target := &rules.BlockX
		if i == 1 {
			target = &rules.Block4
		}
		section.Find("ul").First().Find("li").Each(func(_ int, li *goquery.Selection) {
			text := strings.TrimSpace(strippedText(li))
			if text == "" {
				return
			}
			code, name := splitCode(text)
			*target = append(*target, BlockRuleEntry{Code: code, Name: name})
		})
	})

	return rules
}

// splitCode splits "1 Straw Hat Crew" into ("1", "Straw Hat Crew") at the
// first whitespace run. Text without whitespace yields an empty name.
func splitCode(text string) (code, name string) {
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimLeftFunc(text[i:], unicode.IsSpace)
}
