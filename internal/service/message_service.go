// Package service orchestrates one inbound chat message into exactly one reply.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"catat-worker/internal/apperr"
	"catat-worker/internal/entitlement"
	"catat-worker/internal/extractor"
	"catat-worker/internal/feature"
	"catat-worker/internal/ledger"
	"catat-worker/internal/metrics"
	"catat-worker/internal/models"
	"catat-worker/internal/store"
)

// Extractor turns a message of one domain into transactions
type Extractor interface {
	FromText(ctx context.Context, text string) (*extractor.Result, error)
	FromImage(ctx context.Context, image []byte, caption string) (*extractor.Result, error)
}

// Dependencies collaborators of MessageService
type Dependencies struct {
	Directory  *DirectoryService
	Guard      *entitlement.Guard
	Extractors map[models.Feature]Extractor
	Writer     *ledger.Writer
	Undo       *store.UndoCache
	Pending    *store.ContextCache
	Metrics    *metrics.Metrics
	Logger     *zap.Logger

	// SubscriptionDays validity granted on registration
	SubscriptionDays int
	// ContextTTL lifetime of a pending text context, used in the reply text
	ContextTTL time.Duration
	Location   *time.Location
	Now        func() time.Time
}

// MessageService the message router shared by every transport
type MessageService struct {
	directory    *DirectoryService
	guard        *entitlement.Guard
	extractors   map[models.Feature]Extractor
	writer       *ledger.Writer
	undo         *store.UndoCache
	pending      *store.ContextCache
	metrics      *metrics.Metrics
	logger       *zap.Logger
	subscription time.Duration
	contextTTL   time.Duration
	loc          *time.Location
	now          func() time.Time
}

func NewMessageService(d Dependencies) *MessageService {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.SubscriptionDays <= 0 {
		d.SubscriptionDays = 30
	}
	if d.ContextTTL <= 0 {
		d.ContextTTL = store.DefaultContextTTL
	}
	return &MessageService{
		directory:    d.Directory,
		guard:        d.Guard,
		extractors:   d.Extractors,
		writer:       d.Writer,
		undo:         d.Undo,
		pending:      d.Pending,
		metrics:      d.Metrics,
		logger:       d.Logger,
		subscription: time.Duration(d.SubscriptionDays) * 24 * time.Hour,
		contextTTL:   d.ContextTTL,
		loc:          d.Location,
		now:          d.Now,
	}
}

// outcome what a handled message resolved to; used for logs and metrics
type outcome struct {
	feature models.Feature
	reply   string
}

// Handle produces the reply for msg. The second result is false only for the bot's own messages.
// Failures never escape: they become a reply carrying the failure marker.
func (s *MessageService) Handle(ctx context.Context, msg models.InboundMessage) (reply models.OutboundReply, ok bool) {
	if msg.FromMe {
		return models.OutboundReply{}, false
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	log := s.logger.With(zap.String("message_id", msg.ID), zap.String("from", msg.From))
	reply = models.OutboundReply{ID: msg.ID, To: msg.From}

	started := time.Now()
	var out outcome
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while handling message", zap.Any("panic", r))
			reply.Reply = failureMarker + msgServerError
			ok = true
			s.metrics.Message(string(out.feature), "panic")
		}
	}()

	out, err := s.route(ctx, log, msg)
	if err != nil {
		kind := apperr.KindOf(err)
		fields := []zap.Field{zap.String("kind", kind.String()), zap.String("feature", string(out.feature)), zap.Error(err)}
		if kind == apperr.KindConfigPersistence || kind == apperr.KindUnknown || kind == apperr.KindLedgerAccess {
			log.Error("Message failed", fields...)
		} else {
			log.Info("Message rejected", fields...)
		}
		s.metrics.Message(string(out.feature), kind.String())
		reply.Reply = failureReply(err)
		return reply, true
	}

	log.Info("Message handled",
		zap.String("feature", string(out.feature)),
		zap.Duration("elapsed", time.Since(started)),
	)
	s.metrics.Message(string(out.feature), "ok")
	reply.Reply = out.reply
	return reply, true
}

func (s *MessageService) route(ctx context.Context, log *zap.Logger, msg models.InboundMessage) (outcome, error) {
	dir, err := s.directory.Load(ctx)
	if err != nil {
		return outcome{}, err
	}
	text := strings.TrimSpace(msg.Text)
	if msg.HasImage() && text == "" {
		text = strings.TrimSpace(msg.Caption)
	}

	if cmd, args, found := matchCommand(text); found {
		if !dir.IsAdmin(msg.From) {
			log.Warn("Admin command from non-admin", zap.String("command", cmd.name))
			return outcome{}, apperr.Validation(cmd.denied)
		}
		log.Info("Admin command", zap.String("command", cmd.name))
		parsed, err := cmd.parse(args)
		if err != nil {
			return outcome{}, err
		}
		r, err := cmd.handle(s, ctx, msg.From, parsed)
		return outcome{reply: r}, err
	}

	link, found, err := parseLedgerLink(text, msg.From)
	if err != nil {
		return outcome{}, err
	}
	if found {
		r, err := s.linkLedger(ctx, dir, msg.From, link)
		return outcome{feature: link.Feature, reply: r}, err
	}

	tenant := dir.Find(msg.From)
	if tenant == nil {
		return outcome{}, apperr.Entitlement(entitlement.MsgNotRegistered)
	}
	if len(tenant.Features) == 0 {
		return outcome{}, apperr.Entitlement(msgNoFeatures)
	}

	if msg.HasImage() {
		return s.handleImage(ctx, log, dir, msg)
	}
	return s.handleText(ctx, dir, tenant, msg.From, text)
}

func (s *MessageService) handleText(ctx context.Context, dir *models.Directory, tenant *models.Tenant, phone, text string) (outcome, error) {
	f, cleaned := feature.Detect(text, tenant.Features)
	if f == "" {
		return outcome{}, apperr.Validation(disambiguationMessage())
	}
	out := outcome{feature: f}

	t, err := s.authorize(ctx, dir, phone, f)
	if err != nil {
		return out, err
	}
	if isUndoPhrase(cleaned) {
		out.reply, err = s.undoLast(ctx, phone, f)
		return out, err
	}

	res, err := s.extractors[f].FromText(ctx, cleaned)
	if err != nil {
		return out, err
	}
	if res.Pending {
		pc := store.PendingContext{Feature: f, Text: cleaned, SavedAt: s.now()}
		if err := s.pending.Save(ctx, phone, pc); err != nil {
			return out, apperr.ConfigPersistence(err)
		}
		out.reply = pendingReply(f, int(s.contextTTL/time.Minute))
		return out, nil
	}
	out.reply, err = s.commit(ctx, f, phone, t.LedgerRef(f), res, false)
	if err != nil {
		return out, err
	}
	// a completed text transaction supersedes any earlier partial one
	if len(res.Transactions) > 0 {
		if err := s.pending.Clear(ctx, phone); err != nil {
			s.logger.Warn("Failed to clear pending context", zap.String("phone", phone), zap.Error(err))
		}
	}
	return out, nil
}

// handleImage a caption-less image inherits the tenant's pending text context, if any
func (s *MessageService) handleImage(ctx context.Context, log *zap.Logger, dir *models.Directory, msg models.InboundMessage) (outcome, error) {
	tenant := dir.Find(msg.From)
	caption := strings.TrimSpace(msg.Caption)

	var pc *store.PendingContext
	if caption == "" {
		var err error
		pc, err = s.pending.Get(ctx, msg.From)
		if err != nil {
			log.Warn("Failed to read pending context", zap.Error(err))
		}
	}

	var f models.Feature
	if pc != nil && tenant.HasFeature(pc.Feature) {
		f, caption = pc.Feature, pc.Text
		log.Info("Using pending context as caption", zap.String("feature", string(f)))
	} else {
		pc = nil
		f, caption = feature.Detect(caption, tenant.Features)
	}
	if f == "" {
		return outcome{}, apperr.Validation(disambiguationMessage())
	}
	out := outcome{feature: f}

	t, err := s.authorize(ctx, dir, msg.From, f)
	if err != nil {
		return out, err
	}
	res, err := s.extractors[f].FromImage(ctx, msg.Image, caption)
	if err != nil {
		return out, err
	}
	out.reply, err = s.commit(ctx, f, msg.From, t.LedgerRef(f), res, f == models.FeaturePreciousMetal)
	if err != nil {
		return out, err
	}
	if pc != nil {
		if err := s.pending.Clear(ctx, msg.From); err != nil {
			log.Warn("Failed to clear pending context", zap.Error(err))
		}
	}
	return out, nil
}

// authorize runs the entitlement guard then records activity
func (s *MessageService) authorize(ctx context.Context, dir *models.Directory, phone string, f models.Feature) (*models.Tenant, error) {
	t, err := s.guard.Authorize(phone, dir, f)
	if err != nil {
		return nil, err
	}
	if err := s.directory.Touch(ctx, phone); err != nil {
		return nil, err
	}
	return t, nil
}

// commit writes the extracted transactions and remembers them for undo
func (s *MessageService) commit(ctx context.Context, f models.Feature, phone, ledgerID string, res *extractor.Result, dedupe bool) (string, error) {
	if len(res.Transactions) == 0 {
		return res.Note, nil
	}
	entries, err := s.writer.Write(ctx, f, ledgerID, res.Transactions, dedupe)
	if err != nil {
		return "", err
	}
	batch := store.UndoBatch{Feature: f, Rows: entries, WrittenAt: s.now()}
	if err := s.undo.Record(ctx, phone, batch); err != nil {
		s.logger.Warn("Failed to record undo batch", zap.String("phone", phone), zap.Error(err))
	}
	return confirmation(f, entries, res.Skipped), nil
}
