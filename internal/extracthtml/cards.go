package extracthtml

import (
	"github.com/PuerkitoBio/goquery"
)

// Card list layout selectors.
const (
	ResultColSelector = "div.resultCol"
	cardUnitSelector  = "dl"
	infoColSelector   = "div.infoCol"
	cardNameSelector  = "div.cardName"
	backColSelector   = "div.backCol"
)

// ExtractCards returns one Card per card-unit (<dl>) under the result
// container, in document order.
//
// A page without the result container yields an empty slice, not an error:
// one set with no rendered cards must not stop the other sets.
func ExtractCards(doc *goquery.Document) []Card {
	cards := []Card{}
	doc.Find(ResultColSelector).First().Find(cardUnitSelector).Each(func(_ int, dl *goquery.Selection) {
		cards = append(cards, parseCardUnit(dl))
	})
	return cards
}

// parseCardUnit reads the front (<dt>) and back (<dd>) halves of one card.
// Missing sub-elements degrade to nil name, empty spans, absent fields or the
// UNKNOWN id.
func parseCardUnit(dl *goquery.Selection) Card {
	card := Card{
		ID:        UnknownCardID,
		InfoSpans: []string{},
		BackData:  BackData{},
	}

	if dt := dl.Find("dt").First(); dt.Length() > 0 {
		dt.Find(infoColSelector).First().Find("span").Each(func(_ int, span *goquery.Selection) {
			card.InfoSpans = append(card.InfoSpans, strippedText(span))
		})
		if nameDiv := dt.Find(cardNameSelector).First(); nameDiv.Length() > 0 {
			name := strippedText(nameDiv)
			card.Name = &name
		}
	}

	backCol := dl.Find("dd").First().Find(backColSelector).First()
	if backCol.Length() > 0 {
		for _, field := range BackFields {
			container := element(backCol.Find("div." + field).First())
			if container == nil {
				continue
			}
			card.BackData[field] = extractField(field, container)
		}
	}

	if id, ok := dl.Attr("id"); ok {
		card.ID = id
	}
	return card
}
