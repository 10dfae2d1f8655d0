package extracthtml

import (
	"fmt"
	"strings"

	"cardscrape/internal/dom"
)

// Back-side field names. Each one is also the class of its container div.
const (
	FieldCost      = "cost"
	FieldAttribute = "attribute"
	FieldPower     = "power"
	FieldCounter   = "counter"
	FieldColor     = "color"
	FieldBlock     = "block"
	FieldFeature   = "feature"
	FieldText      = "text"
	FieldGetInfo   = "getInfo"
)

// BackFields lists the back-side fields in extraction and output order.
var BackFields = []string{
	FieldCost,
	FieldAttribute,
	FieldPower,
	FieldCounter,
	FieldColor,
	FieldBlock,
	FieldFeature,
	FieldText,
	FieldGetInfo,
}

func isBackField(name string) bool {
	for _, f := range BackFields {
		if f == name {
			return true
		}
	}
	return false
}

// noiseTags are the child elements that carry a field's label or icon rather
// than its value.
var noiseTags = []string{"h3", "img", "a"}

// Strategy is a named way of turning a field container into a value.
type Strategy int

const (
	// JoinAllText joins every non-empty stripped text fragment under the
	// container with single spaces. Rules text spans several lines and icons.
	JoinAllText Strategy = iota

	// LastMeaningfulChild ignores h3/img/a children, takes the stripped text of
	// each remaining child and returns the last non-empty one. The site renders
	// a label first and the value last.
	LastMeaningfulChild

	// StripKnownNoiseAndTakeRemainder removes every h3/img/a descendant and
	// returns whatever stripped text is left, possibly "".
	StripKnownNoiseAndTakeRemainder
)

func (s Strategy) String() string {
	switch s {
	case JoinAllText:
		return "JoinAllText"
	case LastMeaningfulChild:
		return "LastMeaningfulChild"
	case StripKnownNoiseAndTakeRemainder:
		return "StripKnownNoiseAndTakeRemainder"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Apply runs the strategy against container. ok is false when the strategy
// found nothing and the next strategy in the chain should be tried.
func (s Strategy) Apply(container *dom.Element) (value string, ok bool) {
	switch s {
	case JoinAllText:
		return strings.Join(dom.StrippedStrings(container), " "), true

	case LastMeaningfulChild:
		last := ""
		for _, c := range container.Children {
			var text string
			switch n := c.(type) {
			case dom.Text:
				text = strings.TrimSpace(string(n))
			case *dom.Element:
				if n.Is(noiseTags...) {
					continue
				}
				text = dom.StrippedText(n)
			}
			if text != "" {
				last = text
			}
		}
		return last, last != ""

	case StripKnownNoiseAndTakeRemainder:
		return dom.StrippedText(dom.Without(container, noiseTags...)), true

	default:
		return "", false
	}
}

// scalarChain is shared by every single-value field.
var scalarChain = []Strategy{LastMeaningfulChild, StripKnownNoiseAndTakeRemainder}

// fieldStrategies maps each back-side field to its strategy chain.
var fieldStrategies = map[string][]Strategy{
	FieldCost:      scalarChain,
	FieldAttribute: scalarChain,
	FieldPower:     scalarChain,
	FieldCounter:   scalarChain,
	FieldColor:     scalarChain,
	FieldBlock:     scalarChain,
	FieldFeature:   scalarChain,
	FieldText:      {JoinAllText},
	FieldGetInfo:   scalarChain,
}

// StrategiesFor returns the strategy chain for field. Unknown fields use the
// scalar chain.
func StrategiesFor(field string) []Strategy {
	if chain, ok := fieldStrategies[field]; ok {
		return chain
	}
	return scalarChain
}

// extractField applies field's chain to container; the first strategy that
// reports ok wins.
func extractField(field string, container *dom.Element) string {
	for _, s := range StrategiesFor(field) {
		if v, ok := s.Apply(container); ok {
			return v
		}
	}
	return ""
}
