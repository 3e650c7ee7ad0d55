package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"catat-worker/internal/format"
	"catat-worker/internal/models"
	"catat-worker/internal/money"
)

const (
	// TrackerSheet precious-metal savings tracker
	TrackerSheet = "Tracker"
	// ExpenseRange fixed column range of the monthly expense sheets
	ExpenseRange = "C:W"
	// CurrencyMarker written in the currency column of expense rows
	CurrencyMarker = "Rp."
)

// savingsGoals goal -> column range on the Tracker sheet, in display order
var savingsGoals = []struct {
	goal string
	rng  string
}{
	{"Dana Darurat", "N:R"},
	{"Pendidikan Anak", "V:Z"},
	{"Investasi", "AD:AH"},
	{"Dana Pensiun", "AL:AP"},
	{"Haji & Umroh", "AT:AX"},
	{"Rumah", "BB:BF"},
	{"Wedding", "BJ:BN"},
	{"Mobil", "BR:BV"},
	{"Liburan", "BZ:CD"},
	{"Gadget", "CH:CL"},
}

// SavingsGoals the canonical goal labels
func SavingsGoals() []string {
	out := make([]string, len(savingsGoals))
	for i, g := range savingsGoals {
		out[i] = g.goal
	}
	return out
}

// CanonicalGoal title-cases s and returns it when it is one of the savings goals
func CanonicalGoal(s string) (string, bool) {
	t := format.Title(s)
	for _, g := range savingsGoals {
		if g.goal == t {
			return g.goal, true
		}
	}
	return t, false
}

// GoalRange exact-match lookup of the Tracker column range for a canonical goal
func GoalRange(goal string) (string, bool) {
	for _, g := range savingsGoals {
		if g.goal == goal {
			return g.rng, true
		}
	}
	return "", false
}

// ExpenseLocation month sheet for the write time
func ExpenseLocation(ledgerID string, now time.Time) models.Location {
	return models.Location{LedgerID: ledgerID, Sheet: format.MonthSheet(now), Range: ExpenseRange}
}

// MetalLocation Tracker range of the transaction's goal
func MetalLocation(ledgerID, goal string) (models.Location, bool) {
	rng, ok := GoalRange(goal)
	if !ok {
		return models.Location{}, false
	}
	return models.Location{LedgerID: ledgerID, Sheet: TrackerSheet, Range: rng}, true
}

// ExpenseRow date, label, -, -, category, -, -, currency, amount, note
func ExpenseRow(tx models.Transaction) []string {
	return []string{
		format.Date(tx.Date),
		tx.Label,
		"", "",
		tx.Category,
		"", "",
		CurrencyMarker,
		strconv.FormatInt(tx.Amount, 10),
		tx.Note,
	}
}

// MetalRow date, kind, weight, formatted amount, quantity
func MetalRow(tx models.Transaction) []string {
	return []string{
		format.Date(tx.Date),
		tx.Category,
		money.FormatNumber(tx.Weight),
		money.FormatRupiah(tx.Amount),
		strconv.Itoa(tx.Quantity),
	}
}

// Row renders tx in the layout of f
func Row(f models.Feature, tx models.Transaction) []string {
	if f == models.FeaturePreciousMetal {
		return MetalRow(tx)
	}
	return ExpenseRow(tx)
}

// RowKey identity used by undo: (date, category, amount, note) for expenses,
// the full rendered row for precious metal
func RowKey(f models.Feature, row []string) string {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	if f == models.FeaturePreciousMetal {
		return strings.Join([]string{cell(0), cell(1), cell(2), cell(3), cell(4)}, "\x1f")
	}
	return strings.Join([]string{cell(0), cell(4), cell(8), cell(9)}, "\x1f")
}

// LayoutFor sheets and headers a new ledger for f is provisioned with
func LayoutFor(f models.Feature) Layout {
	if f == models.FeaturePreciousMetal {
		headers := make([]Header, 0, len(savingsGoals))
		for _, g := range savingsGoals {
			headers = append(headers, Header{Range: g.rng, Cells: []string{g.goal, "Jenis", "Berat", "Nominal", "Qty"}})
		}
		return Layout{Sheets: []string{TrackerSheet}, Headers: headers}
	}
	return Layout{
		Sheets: format.MonthSheets(),
		Headers: []Header{{
			Range: ExpenseRange,
			Cells: []string{"Tanggal", "Transaksi", "", "", "Kategori", "", "", "Mata Uang", "Nominal", "Keterangan"},
		}},
	}
}

// GoalList human list of the savings goals for error replies
func GoalList() string {
	var b strings.Builder
	for i, g := range savingsGoals {
		fmt.Fprintf(&b, "%d. %s\n", i+1, g.goal)
	}
	return strings.TrimRight(b.String(), "\n")
}
