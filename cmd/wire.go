package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/slotbot/internal/adapters/evidence"
	"github.com/bnema/slotbot/internal/adapters/process"
	recordsadapter "github.com/bnema/slotbot/internal/adapters/render/records"
	chainstore "github.com/bnema/slotbot/internal/adapters/repo/chain"
	"github.com/bnema/slotbot/internal/adapters/repo/postgres"
	tomlrepo "github.com/bnema/slotbot/internal/adapters/repo/toml"
	"github.com/bnema/slotbot/internal/application"
	"github.com/bnema/slotbot/internal/domain"
	"github.com/bnema/slotbot/internal/ports"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const databaseConnectTimeout = 5 * time.Second

type app struct {
	cfg             *viper.Viper
	logger          *zap.Logger
	records         ports.RecordRepository
	recordService   *application.RecordService
	recordsRenderer func([]domain.Record, recordsadapter.RenderOptions) (string, error)
	summaryRenderer func(application.RunSummary) (string, error)
	newRunID        func() domain.RunID
	now             func() time.Time
	closers         []func()
}

func wireApp(ctx context.Context, cfg *viper.Viper, logger *zap.Logger) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	a := &app{
		cfg:             cfg,
		logger:          logger,
		recordsRenderer: recordsadapter.RenderRecords,
		summaryRenderer: recordsadapter.RenderSummary,
		newRunID: func() domain.RunID {
			return domain.RunID(uuid.NewString())
		},
		now: time.Now,
	}

	records, err := a.wireRecords(ctx)
	if err != nil {
		return nil, err
	}
	a.records = records
	a.recordService = application.NewRecordService(records)

	return a, nil
}

// wireRecords returns the TOML ledger, fronted by Postgres when a
// database URL is configured and reachable.
func (a *app) wireRecords(ctx context.Context) (ports.RecordRepository, error) {
	ledger, err := tomlrepo.NewRepository(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("wire record ledger: %w", err)
	}

	dsn := postgres.DatabaseURL(a.cfg)
	if dsn == "" {
		return ledger, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, databaseConnectTimeout)
	defer cancel()

	store, err := postgres.Open(connectCtx, dsn)
	if err != nil {
		a.logger.Warn("postgres unavailable, using the TOML ledger only", zap.Error(err))
		return ledger, nil
	}
	if err := store.Migrate(connectCtx); err != nil {
		store.Close()
		a.logger.Warn("postgres migration failed, using the TOML ledger only", zap.Error(err))
		return ledger, nil
	}
	a.closers = append(a.closers, store.Close)

	chain, err := chainstore.NewStore(store, ledger)
	if err != nil {
		return nil, fmt.Errorf("wire record chain: %w", err)
	}

	return chain, nil
}

// run holds the components of one slotbot run.
type run struct {
	service  *application.RunService
	registry *application.Registry
	logger   *zap.Logger
}

func (a *app) wireRun() (*run, error) {
	launcherCfg, err := process.LoadConfig(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("load game config: %w", err)
	}

	runID := a.newRunID()
	logger := a.logger.With(zap.String("run_id", string(runID)))

	launcher, err := process.NewLauncher(launcherCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("wire game launcher: %w", err)
	}

	renderer, err := evidence.NewRenderer(a.cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("wire evidence renderer: %w", err)
	}

	controllerCfg := application.ControllerConfig{
		InitialStake:   a.cfg.GetInt64(keyStake),
		ExpectTimeout:  a.cfg.GetDuration(keyExpectTimeout),
		RestartBackoff: a.cfg.GetDuration(keyRestartBackoff),
		Policy:         bettingPolicy(a.cfg),
	}
	if err := controllerCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}

	clock := ports.SystemClock{}
	stats := application.NewStats()
	registry := application.NewRegistry(runID, application.NewEvidenceRecorder(renderer, a.records), clock, logger).
		WithPersistTimeout(a.cfg.GetDuration(keyPersistTimeout))

	pool, err := application.NewSessionPool(application.PoolConfig{
		Workers:      a.cfg.GetInt(keyWorkers),
		DrainTimeout: a.cfg.GetDuration(keyDrainTimeout),
	}, func(id domain.SessionID) *application.SessionController {
		return application.NewSessionController(id, launcher, registry, controllerCfg, logger, stats)
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("wire session pool: %w", err)
	}

	return &run{
		service:  application.NewRunService(pool, registry, stats, clock),
		registry: registry,
		logger:   logger,
	}, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
