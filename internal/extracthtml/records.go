package extracthtml

import (
	"bytes"
	"encoding/json"
	"sort"
)

// UnknownCardID is the card id written when a card-unit has no id attribute.
const UnknownCardID = "UNKNOWN"

// Set is one product release as listed in the set selector.
type Set struct {
	Value   string   `json:"value"`    // catalog id, e.g. "569111"
	RawText string   `json:"raw_text"` // label as displayed
	Parts   []string `json:"parts"`    // label split on "-" outside [...]
	RawHTML string   `json:"raw_html"` // outer markup of the <option>
}

// Card is one card of a set's card list.
type Card struct {
	Name      *string  `json:"card_name"`
	ID        string   `json:"card_id"`
	InfoSpans []string `json:"info_spans"`
	BackData  BackData `json:"back_data"`
}

// BlockRuleEntry is one (code, name) row of the block-icon rules page.
type BlockRuleEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// BlockRules holds both groups of the block-icon rules page.
type BlockRules struct {
	BlockX []BlockRuleEntry `json:"block_x"`
	Block4 []BlockRuleEntry `json:"block_4"`

	// Sections is how many content sections were found on the page.
	Sections int `json:"-"`
}

// BackData maps back-side field names to their extracted value.
//
// A key is present only when the field's container exists in the markup.
// It marshals known fields in BackFields order, then any other keys sorted.
type BackData map[string]string

// MarshalJSON implements json.Marshaler.
func (b BackData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	n := 0
	write := func(k, v string) error {
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		if err := writeJSONString(&buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		return writeJSONString(&buf, v)
	}

	for _, f := range BackFields {
		if v, ok := b[f]; ok {
			if err := write(f, v); err != nil {
				return nil, err
			}
		}
	}

	var extra []string
	for k := range b {
		if !isBackField(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		if err := write(k, b[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSONString encodes s without HTML escaping so rules text such as
// "<Rush>" survives as written.
func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
