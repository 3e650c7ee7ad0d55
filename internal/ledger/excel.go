package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"catat-worker/internal/models"
)

var (
	ledgerIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	integerCell     = regexp.MustCompile(`^-?[1-9][0-9]{0,17}$`)
)

// ExcelLedger stores each ledger as <dir>/<ledgerID>.xlsx
type ExcelLedger struct {
	dir    string
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewExcelLedger(dir string, logger *zap.Logger) *ExcelLedger {
	return &ExcelLedger{dir: dir, logger: logger, locks: make(map[string]*sync.Mutex)}
}

var (
	_ Ledger      = (*ExcelLedger)(nil)
	_ Provisioner = (*ExcelLedger)(nil)
)

func (e *ExcelLedger) lock(ledgerID string) func() {
	e.mu.Lock()
	l, ok := e.locks[ledgerID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[ledgerID] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (e *ExcelLedger) path(ledgerID string) (string, error) {
	if !ledgerIDPattern.MatchString(ledgerID) {
		return "", fmt.Errorf("%w: %q", ErrLedgerNotFound, ledgerID)
	}
	return filepath.Join(e.dir, ledgerID+".xlsx"), nil
}

func (e *ExcelLedger) open(ledgerID string) (*excelize.File, string, error) {
	p, err := e.path(ledgerID)
	if err != nil {
		return nil, "", err
	}
	f, err := excelize.OpenFile(p)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, "", fmt.Errorf("%w: %s", ErrLedgerNotFound, ledgerID)
		case errors.Is(err, fs.ErrPermission):
			return nil, "", fmt.Errorf("%w: %s", ErrAccessDenied, ledgerID)
		}
		return nil, "", fmt.Errorf("open ledger %s: %w", ledgerID, err)
	}
	return f, p, nil
}

// withSheet opens the ledger, checks the sheet and runs fn; save persists changes
func (e *ExcelLedger) withSheet(loc models.Location, save bool, fn func(f *excelize.File, start, end int) error) error {
	start, end, err := parseRange(loc.Range)
	if err != nil {
		return err
	}
	unlock := e.lock(loc.LedgerID)
	defer unlock()

	f, p, err := e.open(loc.LedgerID)
	if err != nil {
		return err
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(loc.Sheet); err != nil || idx < 0 {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, loc.Sheet)
	}
	if err := fn(f, start, end); err != nil {
		return err
	}
	if !save {
		return nil
	}
	if err := f.SaveAs(p); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %s", ErrAccessDenied, loc.LedgerID)
		}
		return fmt.Errorf("save ledger %s: %w", loc.LedgerID, err)
	}
	return nil
}

// Append writes rows below the last non-empty row of the range
func (e *ExcelLedger) Append(_ context.Context, loc models.Location, rows [][]string) error {
	return e.withSheet(loc, true, func(f *excelize.File, start, end int) error {
		existing, err := readColumns(f, loc.Sheet, start, end)
		if err != nil {
			return err
		}
		return writeRows(f, loc.Sheet, start, end, len(existing)+1, rows)
	})
}

// ReadRange returns every row of the range down to the last non-empty one
func (e *ExcelLedger) ReadRange(_ context.Context, loc models.Location) ([][]string, error) {
	var out [][]string
	err := e.withSheet(loc, false, func(f *excelize.File, start, end int) error {
		var err error
		out, err = readColumns(f, loc.Sheet, start, end)
		return err
	})
	return out, err
}

// OverwriteRange clears the used part of the range and writes rows from the top
func (e *ExcelLedger) OverwriteRange(_ context.Context, loc models.Location, rows [][]string) error {
	return e.withSheet(loc, true, func(f *excelize.File, start, end int) error {
		existing, err := readColumns(f, loc.Sheet, start, end)
		if err != nil {
			return err
		}
		for r := 1; r <= len(existing); r++ {
			for c := start; c <= end; c++ {
				cell, _ := excelize.CoordinatesToCellName(c, r)
				if err := f.SetCellValue(loc.Sheet, cell, nil); err != nil {
					return fmt.Errorf("clear %s!%s: %w", loc.Sheet, cell, err)
				}
			}
		}
		return writeRows(f, loc.Sheet, start, end, 1, rows)
	})
}

// Provision creates the workbook when missing and adds any missing sheets
func (e *ExcelLedger) Provision(_ context.Context, ledgerID string, layout Layout) error {
	p, err := e.path(ledgerID)
	if err != nil {
		return err
	}
	unlock := e.lock(ledgerID)
	defer unlock()

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	var f *excelize.File
	created := false
	if _, statErr := os.Stat(p); errors.Is(statErr, fs.ErrNotExist) {
		f = excelize.NewFile()
		created = true
	} else {
		f, err = excelize.OpenFile(p)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return fmt.Errorf("%w: %s", ErrAccessDenied, ledgerID)
			}
			return fmt.Errorf("open ledger %s: %w", ledgerID, err)
		}
	}
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for _, sheet := range layout.Sheets {
		if idx, _ := f.GetSheetIndex(sheet); idx >= 0 {
			continue
		}
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		for _, h := range layout.Headers {
			start, end, err := parseRange(h.Range)
			if err != nil {
				return err
			}
			if err := writeRows(f, sheet, start, end, 1, [][]string{h.Cells}); err != nil {
				return err
			}
			from, _ := excelize.CoordinatesToCellName(start, 1)
			to, _ := excelize.CoordinatesToCellName(end, 1)
			if err := f.SetCellStyle(sheet, from, to, headerStyle); err != nil {
				return fmt.Errorf("failed to set header style: %w", err)
			}
		}
	}
	if created && len(layout.Sheets) > 0 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("failed to drop default sheet: %w", err)
		}
		f.SetActiveSheet(0)
	}

	if err := f.SaveAs(p); err != nil {
		return fmt.Errorf("save ledger %s: %w", ledgerID, err)
	}
	e.logger.Info("Ledger provisioned",
		zap.String("ledger_id", ledgerID),
		zap.Bool("created", created),
		zap.Int("sheets", len(layout.Sheets)),
	)
	return nil
}

// parseRange turns "C:W" into column numbers 3 and 23
func parseRange(r string) (int, int, error) {
	parts := strings.Split(r, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, r)
	}
	start, err := excelize.ColumnNameToNumber(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, r)
	}
	end, err := excelize.ColumnNameToNumber(parts[1])
	if err != nil || end < start {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, r)
	}
	return start, end, nil
}

// readColumns returns the [start,end] slice of every row up to the last row with content in that slice
func readColumns(f *excelize.File, sheet string, start, end int) ([][]string, error) {
	all, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheet, err)
	}
	out := make([][]string, 0, len(all))
	last := 0
	for i, row := range all {
		cells := make([]string, end-start+1)
		filled := false
		for c := start; c <= end && c <= len(row); c++ {
			cells[c-start] = row[c-1]
			if row[c-1] != "" {
				filled = true
			}
		}
		out = append(out, trimTrailing(cells))
		if filled {
			last = i + 1
		}
	}
	return out[:last], nil
}

func writeRows(f *excelize.File, sheet string, start, end, firstRow int, rows [][]string) error {
	for i, row := range rows {
		if len(row) > end-start+1 {
			return fmt.Errorf("%w: row has %d cells, range holds %d", ErrInvalidRange, len(row), end-start+1)
		}
		for j, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(start+j, firstRow+i)
			if err != nil {
				return fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

// cellValue stores plain integers as numbers so the sheet can sum them
func cellValue(v string) interface{} {
	if integerCell.MatchString(v) {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return v
}

func trimTrailing(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}
