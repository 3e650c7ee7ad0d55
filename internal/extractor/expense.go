package extractor

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"catat-worker/internal/apperr"
	"catat-worker/internal/classifier"
	"catat-worker/internal/format"
	"catat-worker/internal/models"
	"catat-worker/internal/money"
)

const expenseHint = "Contoh format: makan siang 30k\natau kirim foto struk belanja."

// ExpenseExtractor general-expense domain; the classification service is the only source
type ExpenseExtractor struct {
	classifier Classifier
	loc        *time.Location
	logger     *zap.Logger
}

func NewExpenseExtractor(c Classifier, loc *time.Location, logger *zap.Logger) *ExpenseExtractor {
	if loc == nil {
		loc = time.Local
	}
	return &ExpenseExtractor{classifier: c, loc: loc, logger: logger}
}

// FromText fails as a whole when any candidate lacks category, amount or date
func (e *ExpenseExtractor) FromText(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("Pesan kosong.\n\n" + expenseHint)
	}
	resp, err := e.classifier.ClassifyText(ctx, models.FeatureGeneralExpense, text)
	if err != nil {
		return nil, serviceFailure(err, expenseHint)
	}
	if resp.Error != "" {
		return nil, apperr.Extraction("Gagal memproses pesan: "+resp.Error+"\n\n"+expenseHint, nil)
	}
	if len(resp.Transactions) == 0 {
		return &Result{Note: noteOr(resp.Note, "Tidak ada transaksi keuangan yang terdeteksi pada pesan.")}, nil
	}

	txs := make([]models.Transaction, 0, len(resp.Transactions))
	for _, c := range resp.Transactions {
		tx, err := e.normalize(c)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return &Result{Transactions: txs}, nil
}

// FromImage skips malformed items; zero valid items is an ExtractionError
func (e *ExpenseExtractor) FromImage(ctx context.Context, image []byte, caption string) (*Result, error) {
	if err := validateImage(image, true); err != nil {
		return nil, err
	}
	resp, err := e.classifier.ClassifyImage(ctx, models.FeatureGeneralExpense, image, caption)
	if err != nil {
		return nil, serviceFailure(err, expenseHint)
	}
	if resp.Error != "" {
		return nil, apperr.Extraction("Gagal memproses gambar: "+resp.Error, nil)
	}
	if len(resp.Transactions) == 0 {
		return &Result{Note: noteOr(resp.Note, "Tidak ada transaksi keuangan yang terdeteksi pada gambar.")}, nil
	}

	res := &Result{}
	var errs []error
	for i, c := range resp.Transactions {
		tx, err := e.normalize(c)
		if err != nil {
			e.logger.Warn("Skipping malformed receipt item", zap.Int("index", i), zap.Error(err))
			errs = append(errs, err)
			res.Skipped++
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}
	if len(res.Transactions) == 0 {
		return nil, firstErr(errs)
	}
	return res, nil
}

// normalize requires category, amount > 0 and a parseable date
func (e *ExpenseExtractor) normalize(c classifier.Candidate) (models.Transaction, error) {
	var missing []string
	if c.Category == "" {
		missing = append(missing, "kategori")
	}
	amount, err := money.ParseNominal(c.Amount)
	if err != nil {
		missing = append(missing, "nominal")
	}

	var date time.Time
	if c.Date == "" {
		missing = append(missing, "tanggal")
	} else if d, perr := format.ParseDate(c.Date, e.loc); perr != nil {
		missing = append(missing, "tanggal")
	} else {
		date = d
	}

	if len(missing) > 0 {
		return models.Transaction{}, apperr.Extraction(
			"Data transaksi tidak lengkap: "+strings.Join(missing, ", ")+" tidak terbaca.\n\n"+expenseHint, err)
	}
	return models.Transaction{
		Date:     date,
		Category: c.Category,
		Label:    c.Label,
		Amount:   amount,
		Quantity: 1,
		Note:     c.Note,
	}, nil
}

func noteOr(note, fallback string) string {
	if strings.TrimSpace(note) != "" {
		return note
	}
	return fallback
}
