package specialist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/policy"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultHistoryK     = 5
	DefaultCatalogLimit = 100
	DefaultRecentTurns  = 6

	confirmationPrompt = "\n\nPlease confirm your booking with the following details:\n"
)

type agentImpl struct {
	domain       contractx.Domain
	systemPrompt string
	completer    contractx.Completer
	provider     contractx.ContextProvider
	detector     policy.ActionDetector
	historyK     int
	catalogLimit int
	recentTurns  int
	now          func() time.Time
	newID        func() string
	runner       compose.Runnable[contractx.SpecialistRequest, contractx.SpecialistResponse]
}

type Option func(*agentImpl)

func WithActionDetector(d policy.ActionDetector) Option {
	return func(a *agentImpl) {
		if d != nil {
			a.detector = d
		}
	}
}

// WithHistoryK sets how many similar past notes are retrieved.
func WithHistoryK(k int) Option {
	return func(a *agentImpl) {
		if k > 0 {
			a.historyK = k
		}
	}
}

func WithCatalogLimit(n int) Option {
	return func(a *agentImpl) {
		if n > 0 {
			a.catalogLimit = n
		}
	}
}

// WithRecentTurns sets how many trailing session turns go into the prompt.
func WithRecentTurns(n int) Option {
	return func(a *agentImpl) {
		if n >= 0 {
			a.recentTurns = n
		}
	}
}

func withClock(now func() time.Time, newID func() string) Option {
	return func(a *agentImpl) {
		a.now = now
		a.newID = newID
	}
}

// NewDomainAgent builds the agent of one domain. Each Run fetches context,
// asks the completer and proposes a booking when the message asks for one.
func NewDomainAgent(
	ctx context.Context,
	domain contractx.Domain,
	systemPrompt string,
	completer contractx.Completer,
	provider contractx.ContextProvider,
	opts ...Option,
) (contractx.Specialist, error) {
	if !domain.Valid() {
		return nil, fmt.Errorf("%w: unknown domain %q", contractx.ErrValidation, domain)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: %s system prompt", contractx.ErrPromptMissing, domain)
	}
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if provider == nil {
		return nil, errors.New("context provider is required")
	}

	a := &agentImpl{
		domain:       domain,
		systemPrompt: systemPrompt,
		completer:    completer,
		provider:     provider,
		detector:     policy.BookingVerbDetector{},
		historyK:     DefaultHistoryK,
		catalogLimit: DefaultCatalogLimit,
		recentTurns:  DefaultRecentTurns,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	runner, err := compileAgentGraph(ctx, domain, agentSteps{
		gather:   a.gather,
		prompt:   a.buildPrompt,
		complete: a.complete,
		finish:   a.finish,
	})
	if err != nil {
		return nil, err
	}
	a.runner = runner
	return a, nil
}

func (a *agentImpl) Run(ctx context.Context, req contractx.SpecialistRequest) (contractx.SpecialistResponse, error) {
	return a.runner.Invoke(ctx, req)
}

func (a *agentImpl) gather(ctx context.Context, req contractx.SpecialistRequest) (*agentTurn, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return nil, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	turn := &agentTurn{Req: req}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		texts, err := a.provider.SimilaritySearch(gctx, req.UserID, req.UserMessage, a.historyK)
		if err != nil {
			return contractx.Transient("similarity search", err)
		}
		turn.Retrieved = texts
		return nil
	})
	g.Go(func() error {
		items, err := a.provider.Snapshot(gctx, a.domain, a.catalogLimit)
		if err != nil {
			return contractx.Transient("catalog snapshot", err)
		}
		turn.Items = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("session_id", req.SessionID).
		Str("domain", string(a.domain)).
		Int("catalog_items", len(turn.Items)).
		Int("retrieved", len(turn.Retrieved)).
		Msg("agent context gathered")
	return turn, nil
}

func (a *agentImpl) buildPrompt(_ context.Context, turn *agentTurn) (*agentTurn, error) {
	catalog, err := json.Marshal(map[string]any{"items": catalogDetails(turn.Items)})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal catalog context: %v", contractx.ErrValidation, err)
	}

	var b strings.Builder
	b.WriteString("Context:\n")
	b.Write(catalog)
	b.WriteString("\n\nUser History:\n")
	if len(turn.Retrieved) == 0 {
		b.WriteString("(none)")
	} else {
		b.WriteString(strings.Join(turn.Retrieved, "\n"))
	}

	if recent := tail(turn.Req.History, a.recentTurns); len(recent) > 0 {
		b.WriteString("\n\nThis Session:\n")
		for _, t := range recent {
			if t.UserMessage != "" {
				fmt.Fprintf(&b, "User: %s\n", t.UserMessage)
			}
			fmt.Fprintf(&b, "%s: %s\n", roleLabel(t.Role), t.Content)
		}
	}

	b.WriteString("\n\nCurrent Message:\n")
	b.WriteString(turn.Req.UserMessage)

	turn.Prompt = contractx.Prompt{System: a.systemPrompt, User: b.String()}
	return turn, nil
}

func (a *agentImpl) complete(ctx context.Context, turn *agentTurn) (*agentTurn, error) {
	reply, err := a.completer.Complete(ctx, turn.Prompt)
	if err != nil {
		if !errors.Is(err, contractx.ErrModelInvoke) {
			err = fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
		}
		return nil, contractx.Transient(string(a.domain)+" completion", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, fmt.Errorf("%w: %s agent returned empty text", contractx.ErrSchemaViolation, a.domain)
	}
	turn.Reply = reply
	return turn, nil
}

func (a *agentImpl) finish(_ context.Context, turn *agentTurn) (contractx.SpecialistResponse, error) {
	now := a.now().UTC()
	resp := contractx.SpecialistResponse{Message: turn.Reply}

	if item, ok := a.detector.Detect(turn.Req.UserMessage, turn.Items); ok {
		resp.PendingAction = &contractx.PendingAction{
			ActionID:     a.newID(),
			Domain:       a.domain,
			ItemID:       item.ID,
			Price:        item.Price,
			ItemSnapshot: item,
			CreatedAt:    now,
		}
		resp.Message += confirmationPrompt + RenderItem(item)
	}

	resp.Note = &contractx.Note{
		UserID:    turn.Req.UserID,
		SessionID: turn.Req.SessionID,
		Domain:    a.domain,
		Text:      fmt.Sprintf("User: %s\nAssistant: %s", turn.Req.UserMessage, resp.Message),
		CreatedAt: now,
	}
	return resp, nil
}

// RenderItem formats an item for the confirmation text.
func RenderItem(item contractx.CatalogItem) string {
	details := item.Details
	if len(details) == 0 {
		details = map[string]any{"id": item.ID, "title": item.Title, "price": item.Price}
	}
	raw, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return fmt.Sprintf("%s (%s) price %.2f", item.Title, item.ID, item.Price)
	}
	return string(raw)
}

func catalogDetails(items []contractx.CatalogItem) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if len(it.Details) > 0 {
			out = append(out, it.Details)
			continue
		}
		out = append(out, map[string]any{
			"id":              it.ID,
			"title":           it.Title,
			"price":           it.Price,
			"available_count": it.AvailableCount,
		})
	}
	return out
}

func tail(turns []contractx.Turn, n int) []contractx.Turn {
	if n <= 0 || len(turns) == 0 {
		return nil
	}
	if len(turns) > n {
		return turns[len(turns)-n:]
	}
	return turns
}

func roleLabel(r contractx.Role) string {
	switch r {
	case contractx.RoleUser:
		return "User"
	case contractx.RoleSystem:
		return "System"
	default:
		return "Assistant"
	}
}
