package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	orchestratorx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/agents/orchestrator"
	specialistx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/agents/specialist"
	bookingx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/booking"
	"github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/catalog"
	llmx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/llm"
	memoryx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/memory"
	statex "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/state"
	configx "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/config"
	databasex "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/database"
	geminix "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/gemini"
	mongox "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/mongox"
	qstashx "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/qstash"
	redisx "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/redisx"
	"github.com/uptrace/bun"
)

type AppConfig struct {
	StateBackend   string        `split_words:"true" default:"memory"`
	CatalogBackend string        `split_words:"true" default:"sql"`
	NotesBackend   string        `split_words:"true" default:"sql"`
	Classifier     string        `default:"keyword"`
	Events         string        `default:"none"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	LockTTL        time.Duration `envconfig:"LOCK_TTL"`
	CommitTimeout  time.Duration `envconfig:"COMMIT_TIMEOUT" default:"10s"`
	SessionPrefix  string        `split_words:"true" default:"travel:session:"`
}

// app holds every collaborator the orchestrator needs plus their closers.
type app struct {
	cfg     AppConfig
	db      *bun.DB
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close resource failed")
		}
	}
}

func (a *app) sqlDB() (*bun.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	dbCfg, err := configx.New[databasex.Config]("DATABASE")
	if err != nil {
		return nil, err
	}
	db, err := databasex.Open(*dbCfg)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	return db, nil
}

func (a *app) catalogStore(ctx context.Context) (catalog.Store, error) {
	switch strings.ToLower(a.cfg.CatalogBackend) {
	case "memory":
		return catalog.NewSampleMemoryStore(), nil
	case "mongo":
		mongoCfg, err := configx.New[mongox.Config]("MONGO")
		if err != nil {
			return nil, err
		}
		client, db, err := mongox.Connect(ctx, *mongoCfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })
		return catalog.NewMongoStore(db)
	case "sql", "":
		db, err := a.sqlDB()
		if err != nil {
			return nil, err
		}
		return catalog.NewSQLStore(db)
	default:
		return nil, fmt.Errorf("unknown catalog backend %q", a.cfg.CatalogBackend)
	}
}

func (a *app) stateStore(ctx context.Context) (statex.Store, statex.Locker, error) {
	switch strings.ToLower(a.cfg.StateBackend) {
	case "memory", "":
		return statex.NewMemoryStore(), statex.NewKeyedMutex(), nil
	case "redis":
		redisCfg, err := configx.New[redisx.Config]("REDIS")
		if err != nil {
			return nil, nil, err
		}
		client, err := redisx.NewClient(ctx, *redisCfg)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, client.Close)
		store, err := statex.NewRedisStore(client, a.cfg.SessionPrefix, a.cfg.SessionTTL)
		if err != nil {
			return nil, nil, err
		}
		locker, err := statex.NewRedisLocker(client, a.cfg.SessionPrefix+"lock:", a.cfg.LockTTL)
		if err != nil {
			return nil, nil, err
		}
		return store, locker, nil
	case "upstash":
		upCfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return nil, nil, err
		}
		store, err := statex.NewUpstashRedisStore(*upCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, statex.NewKeyedMutex(), nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", a.cfg.StateBackend)
	}
}

func (a *app) noteStore(ctx context.Context) (memoryx.NoteStore, error) {
	switch strings.ToLower(a.cfg.NotesBackend) {
	case "memory":
		return memoryx.NewMemoryNoteStore(), nil
	case "sql", "":
		db, err := a.sqlDB()
		if err != nil {
			return nil, err
		}
		return memoryx.NewSQLNoteStore(db)
	default:
		return nil, fmt.Errorf("unknown notes backend %q", a.cfg.NotesBackend)
	}
}

func (a *app) historyIndex(ctx context.Context) (*memoryx.Index, error) {
	notes, err := a.noteStore(ctx)
	if err != nil {
		return nil, err
	}
	embCfg, err := configx.New[memoryx.EmbeddingConfig]("EMBEDDING")
	if err != nil {
		return nil, err
	}
	var opts []memoryx.Option
	if embCfg.Enabled {
		embedder, err := memoryx.NewOpenAIEmbedderFromConfig(*embCfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, memoryx.WithEmbedder(embedder))
	}
	return memoryx.NewIndex(notes, opts...)
}

func (a *app) gate(cat catalog.Store) (*bookingx.Gate, error) {
	executor, err := bookingx.NewExecutor(cat, cat, bookingx.WithCommitTimeout(a.cfg.CommitTimeout))
	if err != nil {
		return nil, err
	}
	var opts []bookingx.GateOption
	switch strings.ToLower(a.cfg.Events) {
	case "none", "":
	case "qstash":
		qCfg, err := configx.New[qstashx.Config]("QSTASH")
		if err != nil {
			return nil, err
		}
		client, err := qstashx.NewClient(*qCfg)
		if err != nil {
			return nil, err
		}
		events, err := bookingx.NewQStashEvents(client)
		if err != nil {
			return nil, err
		}
		opts = append(opts, bookingx.WithEvents(events))
	default:
		return nil, fmt.Errorf("unknown events backend %q", a.cfg.Events)
	}
	return bookingx.NewGate(executor, opts...)
}

// buildOrchestrator wires every backend selected by configuration.
func buildOrchestrator(ctx context.Context, a *app) (*orchestratorx.Orchestrator, error) {
	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return nil, err
	}
	var gemCfg *geminix.Config
	if strings.EqualFold(llmCfg.Provider, llmx.ProviderGemini) {
		if gemCfg, err = configx.New[geminix.Config]("GEMINI"); err != nil {
			return nil, err
		}
	}

	orchCfg, err := configx.New[orchestratorx.Config]("APP")
	if err != nil {
		return nil, err
	}
	a.cfg.LockTTL = lockTTL(a.cfg.LockTTL, orchCfg.MinLockTTL(a.cfg.CommitTimeout))

	cat, err := a.catalogStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	store, locker, err := a.stateStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	index, err := a.historyIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("history index: %w", err)
	}

	agents, err := specialistx.Build(ctx, *llmCfg, gemCfg, specialistx.Provider(index, cat))
	if err != nil {
		return nil, fmt.Errorf("domain agents: %w", err)
	}
	classifier, err := specialistx.BuildClassifier(ctx, *llmCfg, strings.EqualFold(a.cfg.Classifier, "llm"))
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	gate, err := a.gate(cat)
	if err != nil {
		return nil, fmt.Errorf("confirmation gate: %w", err)
	}

	return orchestratorx.New(*orchCfg, orchestratorx.Deps{
		Store:      store,
		Locker:     locker,
		Agents:     agents,
		Classifier: classifier,
		Gate:       gate,
		Memory:     index,
	})
}

// lockTTL returns the configured lease, raised to floor when it would expire
// before a turn can finish.
func lockTTL(configured, floor time.Duration) time.Duration {
	if configured <= 0 {
		return floor
	}
	if configured < floor {
		log.Warn().
			Dur("configured", configured).
			Dur("floor", floor).
			Msg("APP_LOCK_TTL shorter than a turn, raising it")
		return floor
	}
	return configured
}

var errUnsupportedMigration = errors.New("backend has nothing to migrate")
