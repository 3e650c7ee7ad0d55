package extractor

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

//go:embed gold_prices.json
var defaultGoldPrices []byte

// GoldPrice historical per-gram purchase price for a year
type GoldPrice struct {
	Year         int   `json:"tahun"`
	PricePerGram int64 `json:"harga"`
}

// GoldPriceTable year -> per-gram price reference table
type GoldPriceTable struct {
	byYear map[int]decimal.Decimal
}

func NewGoldPriceTable(entries []GoldPrice) *GoldPriceTable {
	t := &GoldPriceTable{byYear: make(map[int]decimal.Decimal, len(entries))}
	for _, e := range entries {
		if e.PricePerGram > 0 {
			t.byYear[e.Year] = decimal.NewFromInt(e.PricePerGram)
		}
	}
	return t
}

// LoadGoldPrices reads a JSON price table from path, or the built-in table when path is empty
func LoadGoldPrices(path string) (*GoldPriceTable, error) {
	raw := defaultGoldPrices
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read gold price table: %w", err)
		}
		raw = b
	}
	var entries []GoldPrice
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode gold price table: %w", err)
	}
	return NewGoldPriceTable(entries), nil
}

// PricePerGram returns the reference price for year
func (t *GoldPriceTable) PricePerGram(year int) (decimal.Decimal, bool) {
	p, ok := t.byYear[year]
	return p, ok
}

// Len number of years in the table
func (t *GoldPriceTable) Len() int {
	return len(t.byYear)
}
