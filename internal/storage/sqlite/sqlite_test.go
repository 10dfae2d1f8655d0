package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cardscrape/internal/extracthtml"
	"cardscrape/internal/storage"
)

func openTestSink(t *testing.T) (storage.Sink, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cards.db")
	s, err := New(context.Background(), storage.Config{Kind: "sqlite", DSN: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func queryStrings(t *testing.T, path, q string) [][]string {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	rows, err := db.Query(q)
	if err != nil {
		t.Fatalf("query %q: %v", q, err)
	}
	defer rows.Close()

	cols, _ := rows.Columns()
	var out [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			t.Fatalf("scan: %v", err)
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "<NULL>"
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	return out
}

// TestWriteCards_ReplacesPreviousRun verifies a second write supersedes the
// first instead of appending to it.
func TestWriteCards_ReplacesPreviousRun(t *testing.T) {
	t.Parallel()

	s, path := openTestSink(t)
	ctx := context.Background()

	nami := "Nami"
	first := []extracthtml.Card{
		{Name: &nami, ID: "OP01-016", InfoSpans: []string{"OP01-016", "R"}, BackData: extracthtml.BackData{"counter": "2000"}},
		{ID: extracthtml.UnknownCardID},
	}
	if err := s.WriteCards(ctx, first); err != nil {
		t.Fatalf("WriteCards first: %v", err)
	}

	second := []extracthtml.Card{{Name: &nami, ID: "OP01-016", InfoSpans: []string{}, BackData: extracthtml.BackData{"text": "<Blocker>"}}}
	if err := s.WriteCards(ctx, second); err != nil {
		t.Fatalf("WriteCards second: %v", err)
	}

	got := queryStrings(t, path, `SELECT position, card_id, card_name, info_spans, back_data FROM cards ORDER BY position`)
	want := [][]string{{"0", "OP01-016", "Nami", "[]", `{"text":"<Blocker>"}`}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cards (-want +got):\n%s", diff)
	}
}

func TestWriteCards_NullName(t *testing.T) {
	t.Parallel()

	s, path := openTestSink(t)
	if err := s.WriteCards(context.Background(), []extracthtml.Card{{ID: extracthtml.UnknownCardID}}); err != nil {
		t.Fatalf("WriteCards: %v", err)
	}
	got := queryStrings(t, path, `SELECT card_id, card_name FROM cards`)
	if diff := cmp.Diff([][]string{{"UNKNOWN", "<NULL>"}}, got); diff != "" {
		t.Fatalf("cards (-want +got):\n%s", diff)
	}
}

// TestWriteSets_Batches verifies inserts larger than one parameter batch.
func TestWriteSets_Batches(t *testing.T) {
	t.Parallel()

	s, path := openTestSink(t)

	sets := make([]extracthtml.Set, 450)
	for i := range sets {
		sets[i] = extracthtml.Set{Value: "56910" + string(rune('0'+i%10)), RawText: "x", Parts: []string{"x"}, RawHTML: "x"}
	}
	if err := s.WriteSets(context.Background(), sets); err != nil {
		t.Fatalf("WriteSets: %v", err)
	}
	got := queryStrings(t, path, `SELECT COUNT(*), MAX(position) FROM card_sets`)
	if diff := cmp.Diff([][]string{{"450", "449"}}, got); diff != "" {
		t.Fatalf("count (-want +got):\n%s", diff)
	}
}

func TestWriteBlockRules(t *testing.T) {
	t.Parallel()

	s, path := openTestSink(t)
	rules := extracthtml.BlockRules{
		BlockX: []extracthtml.BlockRuleEntry{{Code: "ST-01", Name: "Straw Hat Crew"}},
		Block4: []extracthtml.BlockRuleEntry{{Code: "OP-13", Name: "Carrying On His Will"}},
	}
	if err := s.WriteBlockRules(context.Background(), rules); err != nil {
		t.Fatalf("WriteBlockRules: %v", err)
	}
	got := queryStrings(t, path, `SELECT group_name, position, code, name FROM block_rules ORDER BY group_name DESC, position`)
	want := [][]string{
		{"block_x", "0", "ST-01", "Straw Hat Crew"},
		{"block_4", "0", "OP-13", "Carrying On His Will"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("block_rules (-want +got):\n%s", diff)
	}
}

func TestNew_ReopenKeepsTables(t *testing.T) {
	t.Parallel()

	s, path := openTestSink(t)
	if err := s.WriteBlockRules(context.Background(), extracthtml.BlockRules{BlockX: []extracthtml.BlockRuleEntry{{Code: "ST-01", Name: "a"}}}); err != nil {
		t.Fatalf("WriteBlockRules: %v", err)
	}
	_ = s.Close()

	again, err := New(context.Background(), storage.Config{Kind: "sqlite", DSN: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()

	got := queryStrings(t, path, `SELECT COUNT(*) FROM block_rules`)
	if diff := cmp.Diff([][]string{{"1"}}, got); diff != "" {
		t.Fatalf("count (-want +got):\n%s", diff)
	}
}
