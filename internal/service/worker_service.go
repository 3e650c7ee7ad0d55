package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"catat-worker/internal/bridge"
	"catat-worker/internal/classifier"
	"catat-worker/internal/common/database"
	mqttcommon "catat-worker/internal/common/mqtt"
	rediscommon "catat-worker/internal/common/redis"
	"catat-worker/internal/config"
	"catat-worker/internal/consumer"
	"catat-worker/internal/entitlement"
	"catat-worker/internal/extractor"
	httpapi "catat-worker/internal/http"
	"catat-worker/internal/ledger"
	"catat-worker/internal/metrics"
	"catat-worker/internal/models"
	"catat-worker/internal/repository"
	"catat-worker/internal/store"
)

const serviceName = "catat-worker"

// WorkerService owns the process resources and runs every enabled transport
type WorkerService struct {
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *mqttcommon.Client
	server      *Server
	consumer    *consumer.MessageConsumer
	bridge      *bridge.MQTTBridge
}

// NewWorkerService connects the stores and wires the message router behind the transports
func NewWorkerService(cfg *config.Config, logger *zap.Logger) (*WorkerService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s := &WorkerService{config: cfg, logger: logger}

	var repo repository.DirectoryRepository
	if cfg.DBEnabled {
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db
		pg := repository.NewPostgresDirectoryRepository(db, "", cfg.AdminPhone)
		if err := pg.EnsureSchema(ctx); err != nil {
			s.close()
			return nil, err
		}
		repo = pg
	} else {
		logger.Warn("DB disabled, tenant directory is kept in memory")
		repo = repository.NewMemoryDirectoryRepository(cfg.AdminPhone)
	}

	var kv store.KV
	if cfg.RedisEnabled {
		s.redisClient = rediscommon.NewRedisClient(&cfg.Redis)
		if err := rediscommon.Ping(ctx, s.redisClient); err != nil {
			s.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		kv = store.NewRedisKV(s.redisClient)
	} else {
		logger.Warn("Redis disabled, undo and pending context are kept in memory")
		kv = store.NewMemoryKV()
	}
	if cfg.Streams.Enabled && s.redisClient == nil {
		s.close()
		return nil, errors.New("STREAMS_ENABLED requires REDIS_ENABLED")
	}

	prices, err := extractor.LoadGoldPrices(cfg.GoldPriceFile)
	if err != nil {
		s.close()
		return nil, err
	}

	m := metrics.Default(serviceName)
	now := time.Now
	cls := classifier.NewClient(classifier.Endpoints{
		MetalText:    cfg.Classifier.MetalText,
		MetalImage:   cfg.Classifier.MetalImage,
		ExpenseText:  cfg.Classifier.ExpenseText,
		ExpenseImage: cfg.Classifier.ExpenseImage,
	}, cfg.Classifier.Timeout, m, logger)

	messages := NewMessageService(Dependencies{
		Directory: NewDirectoryService(repo, now, logger),
		Guard:     entitlement.NewGuard(now),
		Extractors: map[models.Feature]Extractor{
			models.FeaturePreciousMetal:  extractor.NewMetalExtractor(cls, prices, now, cfg.Location, logger),
			models.FeatureGeneralExpense: extractor.NewExpenseExtractor(cls, cfg.Location, logger),
		},
		Writer:           ledger.NewWriter(ledger.NewExcelLedger(cfg.Ledger.Dir, logger), now, m, logger),
		Undo:             store.NewUndoCache(kv, cfg.UndoTTL),
		Pending:          store.NewContextCache(kv, cfg.ContextTTL),
		Metrics:          m,
		Logger:           logger,
		SubscriptionDays: cfg.SubscriptionDays,
		ContextTTL:       cfg.ContextTTL,
		Location:         cfg.Location,
		Now:              now,
	})

	router := httpapi.NewRouter(logger)
	router.RegisterMessageRoutes(httpapi.NewMessageHandler(messages, logger))
	s.server = NewServer(cfg.HTTP.Addr, router, logger)

	if cfg.Streams.Enabled {
		s.consumer = consumer.NewMessageConsumer(
			s.redisClient,
			messages,
			logger,
			cfg.Streams.Inbound,
			cfg.Streams.Outbound,
			cfg.Streams.ConsumerGroup,
			cfg.Streams.ConsumerName,
			int64(cfg.Streams.BatchSize),
		)
	}
	if cfg.MQTTBridge.Enabled {
		client, err := mqttcommon.NewClient(&cfg.MQTT, logger)
		if err != nil {
			s.close()
			return nil, err
		}
		s.mqttClient = client
		s.bridge = bridge.NewMQTTBridge(client, messages, cfg.MQTTBridge.InboundTopic, cfg.MQTTBridge.OutboundTopic, logger)
	}
	return s, nil
}

// Start runs the transports until ctx is cancelled or one of them fails
func (s *WorkerService) Start(ctx context.Context) error {
	s.logger.Info("Starting catat-worker",
		zap.Bool("db_enabled", s.db != nil),
		zap.Bool("redis_enabled", s.redisClient != nil),
		zap.Bool("streams_enabled", s.consumer != nil),
		zap.Bool("mqtt_enabled", s.bridge != nil),
	)

	errCh := make(chan error, 3)
	go func() {
		if err := s.server.Start(); err != nil {
			errCh <- err
		}
	}()
	if s.consumer != nil {
		go func() {
			if err := s.consumer.Start(ctx); err != nil {
				errCh <- err
			}
		}()
	}
	if s.bridge != nil {
		go func() {
			if err := s.bridge.Start(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Stop shuts the HTTP server down and releases connections
func (s *WorkerService) Stop(ctx context.Context) error {
	err := s.server.Stop(ctx)
	s.close()
	return err
}

func (s *WorkerService) close() {
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.redisClient != nil {
		if err := rediscommon.Close(s.redisClient); err != nil {
			s.logger.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			s.logger.Warn("Failed to close database", zap.Error(err))
		}
	}
}
