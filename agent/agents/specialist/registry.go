package specialist

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	llmx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/llm"
	"github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/policy"
	promptx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/prompt"
	geminix "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/gemini"
)

type registryImpl struct {
	flight contractx.Specialist
	hotel  contractx.Specialist
}

func (r *registryImpl) Flight() contractx.Specialist {
	return r.flight
}

func (r *registryImpl) Hotel() contractx.Specialist {
	return r.hotel
}

func NewRegistry(flight, hotel contractx.Specialist) (contractx.Registry, error) {
	if flight == nil || hotel == nil {
		return nil, fmt.Errorf("%w: both domain agents are required", contractx.ErrValidation)
	}
	return &registryImpl{flight: flight, hotel: hotel}, nil
}

type providerImpl struct {
	contractx.HistoryRetriever
	contractx.CatalogReader
}

// Provider joins a retriever and a catalog reader into a ContextProvider.
func Provider(h contractx.HistoryRetriever, c contractx.CatalogReader) contractx.ContextProvider {
	return providerImpl{HistoryRetriever: h, CatalogReader: c}
}

// Build creates both domain agents with completers from cfg. gem is only
// read when the provider is gemini.
func Build(
	ctx context.Context,
	cfg llmx.Config,
	gem *geminix.Config,
	provider contractx.ContextProvider,
	opts ...Option,
) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	prompts := promptx.LoadPromptSet()

	agents := make(map[contractx.Domain]contractx.Specialist, 2)
	for _, domain := range []contractx.Domain{contractx.DomainFlight, contractx.DomainHotel} {
		system, err := prompts.ForDomain(domain)
		if err != nil {
			return nil, err
		}
		completer, err := llmx.NewCompleter(ctx, cfg, gem, llmx.PurposeFor(domain))
		if err != nil {
			return nil, fmt.Errorf("create %s completer: %w", domain, err)
		}
		agent, err := NewDomainAgent(ctx, domain, system, completer, provider, opts...)
		if err != nil {
			return nil, err
		}
		agents[domain] = agent
	}
	return NewRegistry(agents[contractx.DomainFlight], agents[contractx.DomainHotel])
}

// BuildClassifier returns the LLM classifier when useLLM is set and the
// keyword classifier otherwise.
func BuildClassifier(ctx context.Context, cfg llmx.Config, useLLM bool) (policy.Classifier, error) {
	if !useLLM {
		return policy.KeywordClassifier{}, nil
	}
	chatModel, err := llmx.NewChatModel(ctx, cfg, llmx.PurposeClassifier)
	if err != nil {
		return nil, fmt.Errorf("create classifier model: %w", err)
	}
	return NewLLMClassifier(ctx, chatModel, promptx.LoadPromptSet().Classifier)
}
