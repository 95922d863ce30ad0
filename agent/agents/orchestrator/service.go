package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	nodex "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/nodes/orchestrator"
	"github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/policy"
	statex "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/state"
)

const (
	defaultTurnTimeout  = 60 * time.Second
	defaultSaveTimeout  = 10 * time.Second
	defaultHistoryTurns = 12
)

type Config struct {
	TurnTimeout  time.Duration `envconfig:"TURN_TIMEOUT" default:"60s"`
	SaveTimeout  time.Duration `envconfig:"SAVE_TIMEOUT" default:"10s"`
	HistoryTurns int           `envconfig:"HISTORY_TURNS" default:"12"`
}

func (c Config) withDefaults() Config {
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = defaultTurnTimeout
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = defaultSaveTimeout
	}
	if c.HistoryTurns <= 0 {
		c.HistoryTurns = defaultHistoryTurns
	}
	return c
}

// MinLockTTL is the shortest session lock lease that outlives one call: the
// turn deadline, then a booking commit and a session save that both run
// detached from it.
func (c Config) MinLockTTL(commitTimeout time.Duration) time.Duration {
	c = c.withDefaults()
	return c.TurnTimeout + commitTimeout + c.SaveTimeout
}

// Deps are the collaborators of the orchestrator. Locker, Classifier and
// Memory are optional.
type Deps struct {
	Store      statex.Store
	Locker     statex.Locker
	Agents     contractx.Registry
	Classifier policy.Classifier
	Gate       nodex.ConfirmationGate
	Memory     contractx.HistoryRetriever
}

// Orchestrator runs one state machine step per Chat or Confirm call while
// holding the session lock.
type Orchestrator struct {
	store      statex.Store
	locker     statex.Locker
	agents     contractx.Registry
	classifier policy.Classifier
	gate       nodex.ConfirmationGate
	memory     contractx.HistoryRetriever

	chatRunner    compose.Runnable[nodex.ChatInput, contractx.ChatResponse]
	confirmRunner compose.Runnable[nodex.ConfirmInput, contractx.ConfirmResponse]

	turnTimeout  time.Duration
	saveTimeout  time.Duration
	historyTurns int

	now   func() time.Time
	newID func() string
}

func New(cfg Config, deps Deps) (*Orchestrator, error) {
	if deps.Store == nil {
		return nil, errors.New("state store is required")
	}
	if deps.Agents == nil {
		return nil, errors.New("agent registry is required")
	}
	if deps.Gate == nil {
		return nil, errors.New("confirmation gate is required")
	}
	if deps.Locker == nil {
		deps.Locker = statex.NewKeyedMutex()
	}
	if deps.Classifier == nil {
		deps.Classifier = policy.KeywordClassifier{}
	}
	cfg = cfg.withDefaults()

	o := &Orchestrator{
		store:        deps.Store,
		locker:       deps.Locker,
		agents:       deps.Agents,
		classifier:   deps.Classifier,
		gate:         deps.Gate,
		memory:       deps.Memory,
		turnTimeout:  cfg.TurnTimeout,
		saveTimeout:  cfg.SaveTimeout,
		historyTurns: cfg.HistoryTurns,
		now:          time.Now,
		newID:        uuid.NewString,
	}

	var err error
	if o.chatRunner, err = o.compileChatGraph(context.Background()); err != nil {
		return nil, err
	}
	if o.confirmRunner, err = o.compileConfirmGraph(context.Background()); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Orchestrator) Chat(ctx context.Context, userID string, req contractx.ChatRequest) (contractx.ChatResponse, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = o.newID()
	}

	ctx, cancel := context.WithTimeout(ctx, o.turnTimeout)
	defer cancel()

	unlock, err := o.locker.Lock(ctx, sessionID)
	if err != nil {
		return contractx.ChatResponse{}, turnError(err)
	}
	defer unlock()

	out, err := o.chatRunner.Invoke(ctx, nodex.ChatInput{
		UserID:    userID,
		SessionID: sessionID,
		Message:   req.Message,
	})
	if err != nil {
		log.Debug().Err(err).Str("session_id", sessionID).Str("user_id", userID).Msg("chat turn failed")
		return contractx.ChatResponse{}, turnError(err)
	}
	return out, nil
}

func (o *Orchestrator) Confirm(ctx context.Context, userID string, req contractx.ConfirmRequest) (contractx.ConfirmResponse, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return contractx.ConfirmResponse{}, fmt.Errorf("%w: session id is required", contractx.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, o.turnTimeout)
	defer cancel()

	unlock, err := o.locker.Lock(ctx, sessionID)
	if err != nil {
		return contractx.ConfirmResponse{}, turnError(err)
	}
	defer unlock()

	out, err := o.confirmRunner.Invoke(ctx, nodex.ConfirmInput{
		UserID:    userID,
		SessionID: sessionID,
		Confirmed: req.Confirmed,
	})
	if err != nil {
		log.Debug().Err(err).Str("session_id", sessionID).Str("user_id", userID).Msg("confirm turn failed")
		return contractx.ConfirmResponse{}, turnError(err)
	}
	return out, nil
}

// turnError maps deadline and cancellation to the transient class.
func turnError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return contractx.Transient("turn", err)
	}
	return err
}
