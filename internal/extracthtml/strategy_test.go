package extracthtml

import (
	"testing"

	"cardscrape/internal/dom"
)

func el(tag string, children ...dom.Node) *dom.Element {
	return &dom.Element{Tag: tag, Children: children}
}

// TestStrategies exercises each named strategy on hand-built containers, so
// the policies are checked without any markup parsing.
func TestStrategies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		strategy  Strategy
		container *dom.Element
		want      string
		wantOK    bool
	}{
		{
			name:      "last child wins after icon",
			strategy:  LastMeaningfulChild,
			container: el("div", el("img"), dom.Text("2000")),
			want:      "2000",
			wantOK:    true,
		},
		{
			name:      "label then value",
			strategy:  LastMeaningfulChild,
			container: el("div", el("h3", dom.Text("Power")), dom.Text("\n 5000 \n")),
			want:      "5000",
			wantOK:    true,
		},
		{
			name:      "trailing whitespace does not override",
			strategy:  LastMeaningfulChild,
			container: el("div", el("span", dom.Text("Red")), dom.Text("  ")),
			want:      "Red",
			wantOK:    true,
		},
		{
			name:      "value only inside links",
			strategy:  LastMeaningfulChild,
			container: el("div", el("h3", dom.Text("Block")), el("a", dom.Text("3"))),
			want:      "",
			wantOK:    false,
		},
		{
			name:      "strip noise keeps nested remainder",
			strategy:  StripKnownNoiseAndTakeRemainder,
			container: el("div", el("h3", dom.Text("Cost")), el("span", el("img"), dom.Text("4"))),
			want:      "4",
			wantOK:    true,
		},
		{
			name:      "strip noise may be empty",
			strategy:  StripKnownNoiseAndTakeRemainder,
			container: el("div", el("a", dom.Text("x"))),
			want:      "",
			wantOK:    true,
		},
		{
			name:     "join all text",
			strategy: JoinAllText,
			container: el("div",
				el("p", dom.Text("Draw 1 card.")),
				el("p", dom.Text(" [Trigger] ")),
				dom.Text("\n"),
				el("p", dom.Text("Place this card as an unused card.")),
			),
			want:   "Draw 1 card. [Trigger] Place this card as an unused card.",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := tt.strategy.Apply(tt.container)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("%s.Apply = (%q, %v), want (%q, %v)", tt.strategy, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// TestStrategiesFor pins the per-field table: only "text" joins fragments.
func TestStrategiesFor(t *testing.T) {
	t.Parallel()

	for _, f := range BackFields {
		chain := StrategiesFor(f)
		if f == FieldText {
			if len(chain) != 1 || chain[0] != JoinAllText {
				t.Fatalf("%s: unexpected chain %v", f, chain)
			}
			continue
		}
		if len(chain) != 2 || chain[0] != LastMeaningfulChild || chain[1] != StripKnownNoiseAndTakeRemainder {
			t.Fatalf("%s: unexpected chain %v", f, chain)
		}
	}
}

func TestStrategyString(t *testing.T) {
	t.Parallel()

	if got := StripKnownNoiseAndTakeRemainder.String(); got != "StripKnownNoiseAndTakeRemainder" {
		t.Fatalf("String: %q", got)
	}
	if got := Strategy(42).String(); got != "Strategy(42)" {
		t.Fatalf("String: %q", got)
	}
}
