package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction normalized record ready for a ledger
type Transaction struct {
	Date     time.Time `json:"date"`
	Category string    `json:"category"`
	Amount   int64     `json:"amount"`
	Quantity int       `json:"quantity"`
	Note     string    `json:"note,omitempty"`

	// general expense
	Label string `json:"label,omitempty"`

	// precious metal
	Weight decimal.Decimal `json:"weight"`
	Goal   string          `json:"goal,omitempty"`
}

// Location sheet plus A1 column range inside a ledger, e.g. {"MEI", "C:W"}
type Location struct {
	LedgerID string `json:"ledgerId"`
	Sheet    string `json:"sheet"`
	Range    string `json:"range"`
}

func (l Location) String() string {
	return l.Sheet + "!" + l.Range
}

// LedgerEntry a transaction and the location it was appended to
type LedgerEntry struct {
	Location    Location    `json:"location"`
	Transaction Transaction `json:"transaction"`
}
