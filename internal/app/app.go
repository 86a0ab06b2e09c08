package app

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"arbitron/config"
	"arbitron/internal/controller/rest"
	"arbitron/internal/controller/rest/handlers"
	"arbitron/internal/domain/arbitration"
	"arbitron/internal/domain/juror"
	"arbitron/internal/domain/money"
	"arbitron/internal/external/kafka"
	"arbitron/internal/external/ledgerhost"
	"arbitron/internal/external/opensearch"
	case_repo "arbitron/internal/repo/arbcase"
	caseevent_repo "arbitron/internal/repo/caseevent"
	juror_repo "arbitron/internal/repo/juror"
	"arbitron/internal/repo/uow"
	"arbitron/internal/scheduler"
	"arbitron/pkg/health"
	"arbitron/pkg/logger"
	"arbitron/pkg/postgres"
)

//go:embed migrations/*.sql
var MIGRATION_FS embed.FS

func Run(cfg config.Config) {
	l := logger.New(cfg.LogLevel)

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine := NewGinEngine(l)

	pool, err := postgres.New(cfg.PgURL, postgres.MaxPoolSize(cfg.PgPoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pool.Close()

	err = ApplyMigrations(cfg.PgURL, MIGRATION_FS)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - ApplyMigrations: %w", err))
	}

	caseRepo := case_repo.NewPgCaseRepo(pool)
	eventRepo := caseevent_repo.NewPgCaseEventSink(pool)
	jurorRepo := juror_repo.NewPgJurorRepo(pool)
	unitOfWork := uow.New(pool)

	ledgerClient := ledgerhost.New(
		cfg.LedgerBaseURL,
		cfg.LedgerTransferPath,
		&http.Client{Timeout: cfg.HTTPLedgerClientTimeout},
	)

	// Publishers are optional; case events then live only in storage.
	var publishers fanoutPublisher
	healthCheckers := []health.Checker{health.NewPostgresChecker(pool.Pool)}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(l, cfg.KafkaBrokers, cfg.KafkaCaseEventsTopic)
		defer kafkaPublisher.Close()
		publishers = append(publishers, kafka.NewCaseEventPublisher(kafkaPublisher))
		healthCheckers = append(healthCheckers, health.NewKafkaChecker(cfg.KafkaBrokers))
	}
	if len(cfg.OpensearchUrls) > 0 {
		indexer, err := opensearch.NewCaseEventIndexer(ctx, cfg.OpensearchUrls, cfg.OpensearchIndexCaseEvents)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - opensearch.NewCaseEventIndexer: %w", err))
		}
		publishers = append(publishers, indexer)
	}
	var publisher arbitration.EventPublisher
	if len(publishers) > 0 {
		publisher = publishers
	}

	clock := clockwork.NewRealClock()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// The scheduler callback closes over the service, so the service variable
	// is declared first and filled in right after.
	var arbService *arbitration.Service
	sched := scheduler.New(clock, func(ctx context.Context, key string, payload []byte) {
		if err := arbService.HandleTimer(ctx, payload); err != nil {
			l.Error("Timer handling failed: key=%s error=%v", key, err)
		}
	}, l)
	defer sched.Stop()

	arbService = arbitration.NewService(
		unitOfWork,
		caseRepo,
		eventRepo,
		ledgerClient,
		sched,
		publisher,
		rng,
		clock,
		arbitration.Config{
			Currency:            cfg.Currency,
			Treasury:            cfg.TreasuryAccount,
			NotifyAmount:        cfg.NotifyAmount,
			RespondTimeout:      cfg.RespondTimeout,
			JurorRespondTimeout: cfg.JurorRespondTimeout,
			UploadResultTimeout: cfg.UploadResultTimeout,
			ReappealWindow:      cfg.ReappealWindow,
		},
		l,
	)

	rearmed, err := arbService.RearmTimers(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - RearmTimers: %w", err))
	}
	l.Info("Deadline timers re-armed from storage: count=%d", rearmed)

	jurorService := juror.NewService(
		jurorRepo,
		ledgerClient,
		cfg.TreasuryAccount,
		money.New(cfg.JurorMinStake, cfg.Currency),
	)

	caseHandler := handlers.NewCaseHandler(arbService)
	jurorHandler := handlers.NewJurorHandler(jurorService)

	healthRegistry := health.NewRegistry(healthCheckers...)

	router := rest.NewRouter(caseHandler, jurorHandler, healthRegistry, cfg.IntakeMode == "sync")
	router.SetUp(engine)

	// Start Kafka consumers if in kafka mode
	if cfg.IntakeMode == "kafka" {
		l.Info("Intake mode: kafka - starting case command consumer")
		StartWorkers(ctx, l, cfg, arbService)
	}

	// Start HTTP server in a goroutine
	go func() {
		l.Info("Starting HTTP server: port=%d", cfg.Port)
		if err := engine.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			l.Error("HTTP server error: error=%v", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	l.Info("Shutting down gracefully...")
}

// fanoutPublisher delivers committed case events to every configured sink.
type fanoutPublisher []arbitration.EventPublisher

func (f fanoutPublisher) PublishCaseEvents(ctx context.Context, events []arbitration.CaseEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishCaseEvents(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
