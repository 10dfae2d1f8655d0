package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"cardscrape/internal/extracthtml"
)

// ColumnKind is the portable type of a column.
type ColumnKind int

const (
	IntColumn ColumnKind = iota
	TextColumn
	NullableTextColumn
)

// Column is one column of a Table.
type Column struct {
	Name string
	Kind ColumnKind
}

// Table describes one SQL table holding a record kind. List and map fields
// are stored as JSON text.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

var (
	SetsTable = Table{
		Name: "card_sets",
		Columns: []Column{
			{"position", IntColumn},
			{"value", TextColumn},
			{"raw_text", TextColumn},
			{"parts", TextColumn},
			{"raw_html", TextColumn},
		},
	}

	CardsTable = Table{
		Name: "cards",
		Columns: []Column{
			{"position", IntColumn},
			{"card_id", TextColumn},
			{"card_name", NullableTextColumn},
			{"info_spans", TextColumn},
			{"back_data", TextColumn},
		},
	}

	BlockRulesTable = Table{
		Name: "block_rules",
		Columns: []Column{
			{"group_name", TextColumn},
			{"position", IntColumn},
			{"code", TextColumn},
			{"name", TextColumn},
		},
	}

	// Tables lists every table a SQL backend must create.
	Tables = []Table{SetsTable, CardsTable, BlockRulesTable}
)

// Block rule group names, as used in the JSON output.
const (
	GroupBlockX = "block_x"
	GroupBlock4 = "block_4"
)

// SetRows shapes sets into SetsTable rows.
func SetRows(sets []extracthtml.Set) ([][]any, error) {
	rows := make([][]any, 0, len(sets))
	for i, s := range sets {
		parts, err := JSONText(s.Parts)
		if err != nil {
			return nil, fmt.Errorf("set %s parts: %w", s.Value, err)
		}
		rows = append(rows, []any{i, s.Value, s.RawText, parts, s.RawHTML})
	}
	return rows, nil
}

// CardRows shapes cards into CardsTable rows. A missing name becomes NULL.
func CardRows(cards []extracthtml.Card) ([][]any, error) {
	rows := make([][]any, 0, len(cards))
	for i, c := range cards {
		spans, err := JSONText(c.InfoSpans)
		if err != nil {
			return nil, fmt.Errorf("card %s info_spans: %w", c.ID, err)
		}
		back, err := JSONText(c.BackData)
		if err != nil {
			return nil, fmt.Errorf("card %s back_data: %w", c.ID, err)
		}
		var name any
		if c.Name != nil {
			name = *c.Name
		}
		rows = append(rows, []any{i, c.ID, name, spans, back})
	}
	return rows, nil
}

// BlockRuleRows shapes both groups into BlockRulesTable rows, block_x first.
func BlockRuleRows(rules extracthtml.BlockRules) [][]any {
	rows := make([][]any, 0, len(rules.BlockX)+len(rules.Block4))
	for i, e := range rules.BlockX {
		rows = append(rows, []any{GroupBlockX, i, e.Code, e.Name})
	}
	for i, e := range rules.Block4 {
		rows = append(rows, []any{GroupBlock4, i, e.Code, e.Name})
	}
	return rows
}

// JSONText encodes v compactly without HTML escaping. nil slices encode as [].
func JSONText(v any) (string, error) {
	if s, ok := v.([]string); ok && s == nil {
		v = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
