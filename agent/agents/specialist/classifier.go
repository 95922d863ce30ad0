package specialist

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/policy"
)

type classifierLLMOutput struct {
	Domain     string  `json:"domain"`
	Confidence float64 `json:"confidence"`
}

// LLMClassifier asks a model for the domain and falls back to keyword scoring
// whenever the model fails or answers outside flight and hotel.
type LLMClassifier struct {
	runner   compose.Runnable[map[string]any, classifierLLMOutput]
	fallback policy.Classifier
}

var _ policy.Classifier = (*LLMClassifier)(nil)

func NewLLMClassifier(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*LLMClassifier, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: classifier chat model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: classifier system prompt", contractx.ErrPromptMissing)
	}
	runner, err := compileClassifierGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, err
	}
	return &LLMClassifier{runner: runner, fallback: policy.KeywordClassifier{}}, nil
}

func (c *LLMClassifier) Classify(ctx context.Context, message string) (contractx.Domain, error) {
	out, err := c.runner.Invoke(ctx, map[string]any{"input": message})
	if err != nil {
		log.Warn().Err(err).Msg("llm classifier failed, using keywords")
		return c.fallback.Classify(ctx, message)
	}
	domain, ok := contractx.ParseDomain(out.Domain)
	if !ok {
		log.Warn().Str("domain", out.Domain).Msg("llm classifier returned unknown domain, using keywords")
		return c.fallback.Classify(ctx, message)
	}
	return domain, nil
}
