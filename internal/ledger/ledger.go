// Package ledger appends normalized transactions to spreadsheet-like ledgers.
package ledger

import (
	"context"
	"errors"

	"catat-worker/internal/models"
)

var (
	// ErrAccessDenied the backend refused access to the ledger
	ErrAccessDenied = errors.New("ledger access denied")
	// ErrLedgerNotFound no ledger with that id
	ErrLedgerNotFound = errors.New("ledger not found")
	// ErrSheetNotFound the ledger has no sheet with that name
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrInvalidRange the column range could not be parsed
	ErrInvalidRange = errors.New("invalid column range")
)

// Ledger spreadsheet-like backend addressed by sheet name + column range.
// Rows are left-aligned to the first column of the range.
type Ledger interface {
	Append(ctx context.Context, loc models.Location, rows [][]string) error
	ReadRange(ctx context.Context, loc models.Location) ([][]string, error)
	OverwriteRange(ctx context.Context, loc models.Location, rows [][]string) error
}

// Provisioner is implemented by backends that can create a ledger and its sheets
type Provisioner interface {
	Provision(ctx context.Context, ledgerID string, layout Layout) error
}

// Layout sheets and header rows a provisioned ledger starts with
type Layout struct {
	Sheets  []string
	Headers []Header
}

// Header a header row written at the top of a column range on every sheet
type Header struct {
	Range string
	Cells []string
}
