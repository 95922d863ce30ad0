package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	geminix "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/gemini"
)

// ChatCompleter runs a prompt -> chat model graph on an eino model.
type ChatCompleter struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Completer = (*ChatCompleter)(nil)

func NewChatCompleter(ctx context.Context, chatModel einomodel.BaseChatModel, graphName string) (*ChatCompleter, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add completion prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add completion model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add completion edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add completion edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add completion edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile completion graph: %w", err)
	}
	return &ChatCompleter{runner: runner}, nil
}

func (c *ChatCompleter) Complete(ctx context.Context, p contractx.Prompt) (string, error) {
	msg, err := c.runner.Invoke(ctx, map[string]any{
		"system": p.System,
		"input":  p.User,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return "", fmt.Errorf("%w: nil model message", contractx.ErrSchemaViolation)
	}
	return msg.Content, nil
}

type generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// GeminiCompleter adapts a Gemini client.
type GeminiCompleter struct {
	gen generator
}

var _ contractx.Completer = (*GeminiCompleter)(nil)

func NewGeminiCompleter(client *geminix.Client) (*GeminiCompleter, error) {
	if client == nil {
		return nil, errors.New("gemini client is required")
	}
	return &GeminiCompleter{gen: client}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, p contractx.Prompt) (string, error) {
	out, err := g.gen.Generate(ctx, p.System, p.User)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return out, nil
}

// NewChatModel builds the OpenRouter chat model configured for purpose.
func NewChatModel(ctx context.Context, cfg Config, purpose Purpose) (einomodel.BaseChatModel, error) {
	orCfg := cfg.OpenRouterFor(purpose)
	if strings.TrimSpace(orCfg.Model) == "" {
		return nil, fmt.Errorf("%w: no model configured for %s", contractx.ErrValidation, purpose)
	}
	m, err := orCfg.New(ctx)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// NewCompleter builds the completer of a purpose for the configured provider.
// gem may be nil unless the provider is gemini.
func NewCompleter(ctx context.Context, cfg Config, gem *geminix.Config, purpose Purpose) (contractx.Completer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.provider() {
	case ProviderGemini:
		if gem == nil {
			return nil, fmt.Errorf("%w: gemini config is required", contractx.ErrValidation)
		}
		client, err := geminix.NewClient(ctx, cfg.GeminiFor(*gem, purpose))
		if err != nil {
			return nil, err
		}
		return NewGeminiCompleter(client)
	default:
		chatModel, err := NewChatModel(ctx, cfg, purpose)
		if err != nil {
			return nil, err
		}
		return NewChatCompleter(ctx, chatModel, string(purpose)+".completion_graph")
	}
}
