package extracthtml

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := ParseDocument(html)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	return doc
}

// TestExtractSets verifies placeholder options are skipped, order and
// duplicates are preserved, and labels are split outside brackets.
func TestExtractSets(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `
		<select id="series">
			<option value="">Select a series</option>
			<option value="569111">BOOSTER PACK -ROMANCE DAWN- [OP-01]</option>
			<option value=" 569202 ">EXTRA BOOSTER -Anime 25th Collection- [EB-02]</option>
			<option>no value</option>
			<option value="569111">BOOSTER PACK -ROMANCE DAWN- [OP-01]</option>
		</select>`)

	sets, err := ExtractSets(doc)
	if err != nil {
		t.Fatalf("ExtractSets: %v", err)
	}

	gotIDs := make([]string, 0, len(sets))
	for _, s := range sets {
		gotIDs = append(gotIDs, s.Value)
	}
	if diff := cmp.Diff([]string{"569111", "569202", "569111"}, gotIDs); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}

	eb := sets[1]
	if eb.RawText != "EXTRA BOOSTER -Anime 25th Collection- [EB-02]" {
		t.Fatalf("raw_text: %q", eb.RawText)
	}
	if diff := cmp.Diff([]string{"EXTRA BOOSTER", "Anime 25th Collection", "[EB-02]"}, eb.Parts); diff != "" {
		t.Fatalf("parts (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(eb.RawHTML, "<option") || !strings.Contains(eb.RawHTML, "[EB-02]") {
		t.Fatalf("raw_html: %q", eb.RawHTML)
	}
}

// TestExtractSets_StripsTagShapedText verifies escaped markup inside an option
// label is removed from raw_text.
func TestExtractSets_StripsTagShapedText(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<select id="series"><option value="1">PREMIUM BOOSTER&lt;br&gt; -ONE PIECE CARD THE BEST- [PRB-01]</option></select>`)

	sets, err := ExtractSets(doc)
	if err != nil {
		t.Fatalf("ExtractSets: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("expected 1 set, got %d", len(sets))
	}
	if sets[0].RawText != "PREMIUM BOOSTER -ONE PIECE CARD THE BEST- [PRB-01]" {
		t.Fatalf("raw_text: %q", sets[0].RawText)
	}
}

// TestExtractSets_MissingSelector verifies a missing selector is a typed, fatal error.
func TestExtractSets_MissingSelector(t *testing.T) {
	t.Parallel()

	_, err := ExtractSets(mustParse(t, `<select id="other"><option value="1">x</option></select>`))

	var snf *StructureNotFoundError
	if !errors.As(err, &snf) {
		t.Fatalf("expected *StructureNotFoundError, got %v", err)
	}
	if snf.Selector != SeriesSelector {
		t.Fatalf("selector: %q", snf.Selector)
	}
}

func TestSplitLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "extra booster",
			in:   "EXTRA BOOSTER -Anime 25th Collection- [EB-02]",
			want: []string{"EXTRA BOOSTER", "Anime 25th Collection", "[EB-02]"},
		},
		{
			name: "already clean",
			in:   "Anime 25th Collection",
			want: []string{"Anime 25th Collection"},
		},
		{
			name: "only a code",
			in:   "[ST-10]",
			want: []string{"[ST-10]"},
		},
		{
			name: "hyphen after closed bracket",
			in:   "[OP-01] - extra",
			want: []string{"[OP-01]", "extra"},
		},
		{
			name: "empty segments dropped",
			in:   "--A--B--",
			want: []string{"A", "B"},
		},
		{
			name: "empty",
			in:   "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := SplitLabel(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("SplitLabel(%q) (-want +got):\n%s", tt.in, diff)
			}

			// Splitting the joined parts again changes nothing.
			again := SplitLabel(strings.Join(got, " - "))
			if diff := cmp.Diff(got, again); diff != "" {
				t.Fatalf("not idempotent (-first +second):\n%s", diff)
			}
		})
	}
}
