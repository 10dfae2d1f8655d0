package extracthtml

import (
	"bytes"
	"encoding/json"
	"testing"
)

// TestCardJSON pins the persisted shape: null name, canonical field order and
// unescaped rules text.
func TestCardJSON(t *testing.T) {
	t.Parallel()

	card := Card{
		ID:        UnknownCardID,
		InfoSpans: []string{},
		BackData: BackData{
			FieldText:  "<Rush> Draw 1 card.",
			FieldCost:  "3",
			"zzz":      "extra",
			FieldPower: "5000",
		},
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(card); err != nil {
		t.Fatalf("encode: %v", err)
	}
	b := bytes.TrimSpace(buf.Bytes())

	want := `{"card_name":null,"card_id":"UNKNOWN","info_spans":[],"back_data":{"cost":"3","power":"5000","text":"<Rush> Draw 1 card.","zzz":"extra"}}`
	if string(b) != want {
		t.Fatalf("json mismatch\nwant %s\ngot  %s", want, b)
	}
}

func TestBackDataJSON_Empty(t *testing.T) {
	t.Parallel()

	for _, d := range []BackData{nil, {}} {
		b, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(b) != "{}" {
			t.Fatalf("expected {}, got %s", b)
		}
	}
}
