package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"catat-worker/internal/apperr"
	"catat-worker/internal/metrics"
	"catat-worker/internal/models"
)

// Writer maps transactions to ledger locations and appends them
type Writer struct {
	ledger  Ledger
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewWriter(l Ledger, now func() time.Time, m *metrics.Metrics, logger *zap.Logger) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{ledger: l, now: now, metrics: m, logger: logger}
}

// Write appends txs to the ledger of domain f. Rows that share a location are sent in one append.
// With dedupe, items repeating an earlier (kind, weight, amount, quantity) tuple are dropped.
func (w *Writer) Write(ctx context.Context, f models.Feature, ledgerID string, txs []models.Transaction, dedupe bool) ([]models.LedgerEntry, error) {
	if dedupe {
		txs = Dedupe(txs)
	}

	entries := make([]models.LedgerEntry, 0, len(txs))
	for _, tx := range txs {
		loc, err := w.locate(f, ledgerID, tx)
		if err != nil {
			return nil, err
		}
		entries = append(entries, models.LedgerEntry{Location: loc, Transaction: tx})
	}

	for _, group := range groupByLocation(entries) {
		rows := make([][]string, len(group))
		for i, e := range group {
			rows[i] = Row(f, e.Transaction)
		}
		loc := group[0].Location
		if err := w.ledger.Append(ctx, loc, rows); err != nil {
			w.metrics.LedgerRows(string(f), "failed", len(rows))
			w.logger.Error("Ledger append failed",
				zap.String("ledger_id", loc.LedgerID),
				zap.String("location", loc.String()),
				zap.Error(err),
			)
			return nil, translate(err, loc)
		}
		w.metrics.LedgerRows(string(f), "appended", len(rows))
	}
	return entries, nil
}

func (w *Writer) locate(f models.Feature, ledgerID string, tx models.Transaction) (models.Location, error) {
	if tx.Amount <= 0 {
		return models.Location{}, apperr.Validation("Nominal transaksi harus lebih dari 0.")
	}
	if f == models.FeaturePreciousMetal {
		loc, ok := MetalLocation(ledgerID, tx.Goal)
		if !ok {
			return models.Location{}, apperr.Validation(
				"Transaksi ini tidak termasuk dalam kategori savings.\nPilih salah satu tabel berikut:\n" + GoalList())
		}
		return loc, nil
	}
	return ExpenseLocation(ledgerID, w.now()), nil
}

// Remove deletes every row matching one of entries from their locations by read-filter-rewrite.
// Not atomic against concurrent appends to the same range.
func (w *Writer) Remove(ctx context.Context, f models.Feature, entries []models.LedgerEntry) (int, error) {
	removed := 0
	for _, group := range groupByLocation(entries) {
		loc := group[0].Location
		targets := make(map[string]struct{}, len(group))
		for _, e := range group {
			targets[RowKey(f, Row(f, e.Transaction))] = struct{}{}
		}

		rows, err := w.ledger.ReadRange(ctx, loc)
		if err != nil {
			return removed, translate(err, loc)
		}
		kept := make([][]string, 0, len(rows))
		for _, row := range rows {
			if _, hit := targets[RowKey(f, row)]; hit {
				continue
			}
			kept = append(kept, row)
		}
		n := len(rows) - len(kept)
		if n == 0 {
			continue
		}
		if err := w.ledger.OverwriteRange(ctx, loc, kept); err != nil {
			return removed, translate(err, loc)
		}
		removed += n
		w.metrics.LedgerRows(string(f), "removed", n)
	}
	return removed, nil
}

// Provision prepares a freshly linked ledger for domain f when the backend supports it.
// Reports false when the backend has no provisioning step.
func (w *Writer) Provision(ctx context.Context, f models.Feature, ledgerID string) (bool, error) {
	p, ok := w.ledger.(Provisioner)
	if !ok {
		return false, nil
	}
	if err := p.Provision(ctx, ledgerID, LayoutFor(f)); err != nil {
		w.logger.Error("Ledger provisioning failed", zap.String("ledger_id", ledgerID), zap.Error(err))
		return false, translate(err, models.Location{LedgerID: ledgerID})
	}
	w.logger.Info("Ledger provisioned", zap.String("ledger_id", ledgerID), zap.String("feature", string(f)))
	return true, nil
}

// Dedupe keeps the first of items sharing (kind, weight, amount, quantity)
func Dedupe(txs []models.Transaction) []models.Transaction {
	seen := make(map[string]struct{}, len(txs))
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		key := fmt.Sprintf("%s|%s|%d|%d", tx.Category, tx.Weight.String(), tx.Amount, tx.Quantity)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tx)
	}
	return out
}

// groupByLocation preserves first-seen order of locations and of entries within each
func groupByLocation(entries []models.LedgerEntry) [][]models.LedgerEntry {
	index := make(map[models.Location]int)
	var groups [][]models.LedgerEntry
	for _, e := range entries {
		i, ok := index[e.Location]
		if !ok {
			i = len(groups)
			index[e.Location] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], e)
	}
	return groups
}

func translate(err error, loc models.Location) error {
	switch {
	case errors.Is(err, ErrAccessDenied):
		return apperr.LedgerAccess("Bot tidak memiliki akses ke spreadsheet Anda.\n"+
			"Bagikan spreadsheet ke akun bot sebagai Editor, lalu kirim ulang pesan Anda.", err)
	case errors.Is(err, ErrLedgerNotFound):
		return apperr.LedgerAccess("Spreadsheet Anda tidak ditemukan.\nKirim ulang link spreadsheet Anda.", err)
	case errors.Is(err, ErrSheetNotFound):
		return apperr.LedgerAccess(fmt.Sprintf("Sheet %s tidak ditemukan di spreadsheet Anda.", loc.Sheet), err)
	default:
		return apperr.LedgerAccess("Gagal menyimpan ke spreadsheet. Silakan coba lagi nanti.", err)
	}
}
