package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"catat-worker/internal/classifier"
	"catat-worker/internal/entitlement"
	"catat-worker/internal/extractor"
	"catat-worker/internal/ledger"
	"catat-worker/internal/models"
	"catat-worker/internal/repository"
	"catat-worker/internal/store"
)

const (
	adminPhone  = "6280000000001"
	metalPhone  = "6281111111111"
	dualPhone   = "6282222222222"
	newPhone    = "6283333333333"
	metalLedger = "ledger-lm-0000000000000000001"
	expLedger   = "ledger-ku-0000000000000000001"
)

var (
	wib      = time.FixedZone("WIB", 7*60*60)
	testNow  = time.Date(2024, 5, 10, 9, 30, 0, 0, wib)
	fixedNow = func() time.Time { return testNow }
)

// fakeLedger in-memory ledger keyed by location
type fakeLedger struct {
	mu          sync.Mutex
	rows        map[models.Location][][]string
	appends     int
	provisioned []string
	failAll     error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: make(map[models.Location][][]string)}
}

func (f *fakeLedger) Append(_ context.Context, loc models.Location, rows [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	f.appends++
	f.rows[loc] = append(f.rows[loc], rows...)
	return nil
}

func (f *fakeLedger) ReadRange(_ context.Context, loc models.Location) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	return append([][]string(nil), f.rows[loc]...), nil
}

func (f *fakeLedger) OverwriteRange(_ context.Context, loc models.Location, rows [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[loc] = rows
	return nil
}

func (f *fakeLedger) Provision(_ context.Context, ledgerID string, _ ledger.Layout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provisioned = append(f.provisioned, ledgerID)
	return nil
}

func (f *fakeLedger) at(loc models.Location) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[loc]
}

// fakeClassifier canned responses per domain and modality
type fakeClassifier struct {
	mu          sync.Mutex
	text        map[models.Feature]*classifier.Response
	image       map[models.Feature]*classifier.Response
	err         error
	lastCaption string
}

func newFakeClassifier() *fakeClassifier {
	return &fakeClassifier{
		text:  make(map[models.Feature]*classifier.Response),
		image: make(map[models.Feature]*classifier.Response),
	}
}

func (c *fakeClassifier) ClassifyText(_ context.Context, f models.Feature, _ string) (*classifier.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.text[f]; ok {
		return r, nil
	}
	if c.err != nil {
		return nil, c.err
	}
	return &classifier.Response{}, nil
}

func (c *fakeClassifier) ClassifyImage(_ context.Context, f models.Feature, _ []byte, caption string) (*classifier.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastCaption = caption
	if r, ok := c.image[f]; ok {
		return r, nil
	}
	if c.err != nil {
		return nil, c.err
	}
	return &classifier.Response{}, nil
}

// failingRepo directory store that always errors
type failingRepo struct{}

func (failingRepo) Load(context.Context) (*models.Directory, error) {
	return nil, errors.New("connection refused")
}

func (failingRepo) Save(context.Context, *models.Directory) error {
	return errors.New("connection refused")
}

type harness struct {
	svc        *MessageService
	repo       *repository.MemoryDirectoryRepository
	ledger     *fakeLedger
	classifier *fakeClassifier
	kv         *store.MemoryKV
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		repo:       repository.NewMemoryDirectoryRepository(adminPhone),
		ledger:     newFakeLedger(),
		classifier: newFakeClassifier(),
		kv:         store.NewMemoryKV(),
	}
	// the metal domain falls back to the local grammar unless a response is canned
	h.classifier.err = classifier.ErrUnavailable

	dir := &models.Directory{
		Admin: models.Admin{PhoneNumber: adminPhone},
		Customers: []models.Tenant{
			{
				PhoneNumber:        metalPhone,
				Whitelisted:        true,
				SubscriptionExpiry: testNow.AddDate(0, 1, 0),
				Features:           []models.Feature{models.FeaturePreciousMetal},
				LedgerRefs:         map[models.Feature]string{models.FeaturePreciousMetal: metalLedger},
			},
			{
				PhoneNumber:        dualPhone,
				Whitelisted:        true,
				SubscriptionExpiry: testNow.AddDate(0, 1, 0),
				Features:           []models.Feature{models.FeaturePreciousMetal, models.FeatureGeneralExpense},
				LedgerRefs: map[models.Feature]string{
					models.FeaturePreciousMetal:  metalLedger,
					models.FeatureGeneralExpense: expLedger,
				},
			},
		},
	}
	require.NoError(t, h.repo.Save(context.Background(), dir))

	h.svc = buildService(h.repo, h.ledger, h.classifier, h.kv)
	return h
}

func buildService(repo repository.DirectoryRepository, l ledger.Ledger, c extractor.Classifier, kv store.KV) *MessageService {
	logger := zap.NewNop()
	prices, _ := extractor.LoadGoldPrices("")
	return NewMessageService(Dependencies{
		Directory: NewDirectoryService(repo, fixedNow, logger),
		Guard:     entitlement.NewGuard(fixedNow),
		Extractors: map[models.Feature]Extractor{
			models.FeaturePreciousMetal:  extractor.NewMetalExtractor(c, prices, fixedNow, wib, logger),
			models.FeatureGeneralExpense: extractor.NewExpenseExtractor(c, wib, logger),
		},
		Writer:   ledger.NewWriter(l, fixedNow, nil, logger),
		Undo:     store.NewUndoCache(kv, 0),
		Pending:  store.NewContextCache(kv, 0),
		Logger:   logger,
		Location: wib,
		Now:      fixedNow,
	})
}

func (h *harness) send(t *testing.T, msg models.InboundMessage) string {
	t.Helper()
	reply, ok := h.svc.Handle(context.Background(), msg)
	require.True(t, ok)
	require.Equal(t, msg.From, reply.To)
	require.NotEmpty(t, reply.ID)
	return reply.Reply
}

func (h *harness) tenant(t *testing.T, phone string) *models.Tenant {
	t.Helper()
	dir, err := h.repo.Load(context.Background())
	require.NoError(t, err)
	return dir.Find(phone)
}
