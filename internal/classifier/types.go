package classifier

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Request body sent to every endpoint; image is base64 encoded
type Request struct {
	Text    string `json:"text,omitempty"`
	Image   string `json:"image,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// Candidate one transaction guess. Every field is kept as the raw string the service sent;
// extractors own the normalization.
type Candidate struct {
	Category string
	Kind     string
	Label    string
	Amount   string
	Date     string
	Note     string
	Weight   string
	Quantity string
	Goal     string
}

// Response either a transactions list, a single flat transaction, or an explanatory note
type Response struct {
	Transactions []Candidate
	Note         string
	Error        string
}

var aliases = struct {
	category, kind, label, amount, date, note, weight, quantity, goal []string
}{
	category: []string{"kategori", "category"},
	kind:     []string{"jenis_lm", "jenis", "kind"},
	label:    []string{"tipe_transaksi", "transaksi", "type", "label"},
	amount:   []string{"nominal", "amount"},
	date:     []string{"tanggal", "date"},
	note:     []string{"keterangan", "note"},
	weight:   []string{"berat", "weight"},
	quantity: []string{"qty", "quantity"},
	goal:     []string{"tabel_savings", "savingsGoal", "savings_goal"},
}

func (c *Candidate) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*c = candidateFrom(m, aliases.note)
	return nil
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = Response{
		Note:  pick(m, "note", "catatan", "message"),
		Error: pick(m, "error", "detail"),
	}
	if raw, ok := m["transactions"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &r.Transactions); err != nil {
			return err
		}
		return nil
	}
	// flat single-transaction form; top-level "note" is the explanatory note, not the item note
	flat := candidateFrom(m, []string{"keterangan"})
	if !flat.empty() {
		r.Transactions = []Candidate{flat}
	}
	return nil
}

func candidateFrom(m map[string]json.RawMessage, noteKeys []string) Candidate {
	return Candidate{
		Category: pick(m, aliases.category...),
		Kind:     pick(m, aliases.kind...),
		Label:    pick(m, aliases.label...),
		Amount:   pick(m, aliases.amount...),
		Date:     pick(m, aliases.date...),
		Note:     pick(m, noteKeys...),
		Weight:   pick(m, aliases.weight...),
		Quantity: pick(m, aliases.quantity...),
		Goal:     pick(m, aliases.goal...),
	}
}

func (c Candidate) empty() bool {
	return c.Category == "" && c.Kind == "" && c.Amount == "" && c.Weight == "" && c.Goal == ""
}

// pick returns the first present key as a string; numbers keep their literal text
func pick(m map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		raw, ok := m[k]
		if !ok || isNull(raw) {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '"' {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				return strings.TrimSpace(s)
			}
			continue
		}
		if len(raw) > 0 && (raw[0] == '{' || raw[0] == '[') {
			continue
		}
		return string(raw)
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
