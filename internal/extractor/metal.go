package extractor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"catat-worker/internal/apperr"
	"catat-worker/internal/classifier"
	"catat-worker/internal/format"
	"catat-worker/internal/ledger"
	"catat-worker/internal/models"
	"catat-worker/internal/money"
)

const metalHint = "Format: <jenis> <berat>g [nominal] [qty] <tabel savings>\n" +
	"Contoh: Antam 5g 5000k 1 Dana Darurat\n" +
	"atau: Antam 5g Dana Darurat pembelian tanggal 11 Januari 2010"

// errIncomplete kind and weight were read but amount or goal were not
var errIncomplete = errors.New("incomplete precious-metal transaction")

const notApplicableGoal = "tidak berlaku"

// MetalExtractor precious-metal domain: classification service first, local grammar on failure
type MetalExtractor struct {
	classifier Classifier
	prices     *GoldPriceTable
	now        func() time.Time
	loc        *time.Location
	logger     *zap.Logger
}

func NewMetalExtractor(c Classifier, prices *GoldPriceTable, now func() time.Time, loc *time.Location, logger *zap.Logger) *MetalExtractor {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &MetalExtractor{classifier: c, prices: prices, now: now, loc: loc, logger: logger}
}

// FromText returns Pending when the message is a partial transaction to be completed by an image
func (m *MetalExtractor) FromText(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("Pesan kosong.\n\n" + metalHint)
	}
	candidates, note, err := m.classify(ctx, text, func() (*classifier.Response, error) {
		return m.classifier.ClassifyText(ctx, models.FeaturePreciousMetal, text)
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &Result{Note: noteOr(note, "Tidak ada transaksi logam mulia yang terdeteksi.\n\n"+metalHint)}, nil
	}

	txs := make([]models.Transaction, 0, len(candidates))
	for _, c := range candidates {
		tx, err := m.normalize(c, text, false)
		if errors.Is(err, errIncomplete) {
			return &Result{Pending: true}, nil
		}
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return &Result{Transactions: txs}, nil
}

// FromImage skips malformed items; zero valid items returns the first item's error
func (m *MetalExtractor) FromImage(ctx context.Context, image []byte, caption string) (*Result, error) {
	if err := validateImage(image, false); err != nil {
		return nil, err
	}
	candidates, note, err := m.classify(ctx, caption, func() (*classifier.Response, error) {
		return m.classifier.ClassifyImage(ctx, models.FeaturePreciousMetal, image, caption)
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &Result{Note: noteOr(note, "Tidak ada transaksi logam mulia yang terdeteksi pada gambar.")}, nil
	}

	res := &Result{}
	var errs []error
	for i, c := range candidates {
		tx, err := m.normalize(c, caption, true)
		if errors.Is(err, errIncomplete) {
			err = apperr.Extraction("Nominal atau tabel savings tidak terbaca.\n\n"+metalHint, err)
		}
		if err != nil {
			m.logger.Warn("Skipping malformed precious-metal item", zap.Int("index", i), zap.Error(err))
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

// classify calls the service and falls back to the local grammar over text when it fails
func (m *MetalExtractor) classify(ctx context.Context, text string, call func() (*classifier.Response, error)) ([]classifier.Candidate, string, error) {
	resp, err := call()
	if err == nil && resp.Error == "" {
		return resp.Transactions, resp.Note, nil
	}

	c, ok := parseMetalGrammar(text)
	if ok {
		m.logger.Info("Classification failed, using local grammar",
			zap.String("kind", c.Kind),
			zap.Error(err),
		)
		return []classifier.Candidate{c}, "", nil
	}
	if err != nil {
		return nil, "", serviceFailure(err, metalHint)
	}
	return nil, "", apperr.Extraction("Gagal memproses pesan: "+resp.Error+"\n\n"+metalHint, nil)
}

func (m *MetalExtractor) normalize(c classifier.Candidate, text string, strictGoal bool) (models.Transaction, error) {
	kind := strings.TrimSpace(c.Kind)
	if kind == "" {
		kind = strings.TrimSpace(c.Category)
	}
	if kind == "" {
		return models.Transaction{}, apperr.Extraction("Jenis logam mulia tidak terbaca.\n\n"+metalHint, nil)
	}
	weight, err := parseWeight(c.Weight)
	if err != nil {
		return models.Transaction{}, apperr.Extraction("Berat logam mulia tidak terbaca.\n\n"+metalHint, err)
	}
	qty := 1
	if c.Quantity != "" {
		n, err := strconv.Atoi(strings.TrimSpace(c.Quantity))
		if err != nil || n <= 0 {
			return models.Transaction{}, apperr.Extraction("Qty harus bilangan bulat positif.\n\n"+metalHint, err)
		}
		qty = n
	}

	goal := stripPurchaseClause(c.Goal)
	if goal == "" || strings.EqualFold(goal, notApplicableGoal) {
		return models.Transaction{}, errIncomplete
	}
	goal, known := ledger.CanonicalGoal(goal)
	if strictGoal && !known {
		return models.Transaction{}, apperr.Validation(
			"Tabel savings \"" + goal + "\" tidak dikenali. Pilih salah satu:\n" + ledger.GoalList())
	}

	date, candidateDate := m.transactionDate(c, text)

	amount, err := money.ParseNominal(c.Amount)
	switch {
	case errors.Is(err, money.ErrInvalidNominal):
		return models.Transaction{}, errIncomplete
	case errors.Is(err, money.ErrZeroNominal):
		amount, err = m.derive(text, candidateDate, weight, qty)
		if err != nil {
			return models.Transaction{}, err
		}
	case err != nil:
		return models.Transaction{}, err
	}

	return models.Transaction{
		Date:     date,
		Category: kind,
		Amount:   amount,
		Quantity: qty,
		Note:     c.Note,
		Weight:   weight,
		Goal:     goal,
	}, nil
}

// transactionDate purchase-date clause first, then the service's date, then today.
// The second result is the service date when it parsed, used for price derivation.
func (m *MetalExtractor) transactionDate(c classifier.Candidate, text string) (time.Time, *time.Time) {
	var fromService *time.Time
	if c.Date != "" {
		if d, err := format.ParseDate(c.Date, m.loc); err == nil {
			fromService = &d
		}
	}
	if s, ok := purchaseDate(text); ok {
		if d, err := format.ParseDate(s, m.loc); err == nil {
			return d, fromService
		}
	}
	if fromService != nil {
		return *fromService, fromService
	}
	return format.Day(m.now(), m.loc), nil
}

// derive amount = price_per_gram(year) * weight * quantity
func (m *MetalExtractor) derive(text string, serviceDate *time.Time, weight decimal.Decimal, qty int) (int64, error) {
	year, ok := purchaseYear(text)
	if !ok && serviceDate != nil {
		year, ok = serviceDate.Year(), true
	}
	if !ok {
		return 0, apperr.Extraction("Nominal tidak disebutkan dan tahun pembelian tidak ditemukan.\n"+
			"Sertakan nominal, atau tulis \"pembelian tanggal <tgl> <bulan> <tahun>\".\n\n"+metalHint, nil)
	}
	price, ok := m.prices.PricePerGram(year)
	if !ok {
		return 0, apperr.Extraction(fmt.Sprintf("Harga emas untuk tahun %d tidak ditemukan.", year), nil)
	}
	return price.Mul(weight).Mul(decimal.NewFromInt(int64(qty))).Round(0).IntPart(), nil
}

func parseWeight(s string) (decimal.Decimal, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, unit := range []string{"gram", "gr", "g"} {
		if strings.HasSuffix(s, unit) {
			s = strings.TrimSpace(strings.TrimSuffix(s, unit))
			break
		}
	}
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid weight %q: %w", s, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("weight must be positive, got %s", d)
	}
	return d, nil
}
