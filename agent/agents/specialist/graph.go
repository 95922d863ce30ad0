package specialist

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

func compileClassifierGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[map[string]any, classifierLLMOutput], error) {
	runner, err := compileStructuredLLMGraph[classifierLLMOutput](ctx, chatModel, systemPrompt, "classifier.model_graph")
	if err != nil {
		return nil, fmt.Errorf("compile classifier graph: %w", err)
	}
	return runner, nil
}

// agentTurn is the value passed between the nodes of a domain agent graph.
type agentTurn struct {
	Req       contractx.SpecialistRequest
	Items     []contractx.CatalogItem
	Retrieved []string
	Prompt    contractx.Prompt
	Reply     string
}

type agentSteps struct {
	gather   func(context.Context, contractx.SpecialistRequest) (*agentTurn, error)
	prompt   func(context.Context, *agentTurn) (*agentTurn, error)
	complete func(context.Context, *agentTurn) (*agentTurn, error)
	finish   func(context.Context, *agentTurn) (contractx.SpecialistResponse, error)
}

func compileAgentGraph(
	ctx context.Context,
	domain contractx.Domain,
	steps agentSteps,
) (compose.Runnable[contractx.SpecialistRequest, contractx.SpecialistResponse], error) {
	graph := compose.NewGraph[contractx.SpecialistRequest, contractx.SpecialistResponse]()

	if err := graph.AddLambdaNode("gather_context", compose.InvokableLambda(steps.gather)); err != nil {
		return nil, fmt.Errorf("add agent gather node: %w", err)
	}
	if err := graph.AddLambdaNode("build_prompt", compose.InvokableLambda(steps.prompt)); err != nil {
		return nil, fmt.Errorf("add agent prompt node: %w", err)
	}
	if err := graph.AddLambdaNode("complete", compose.InvokableLambda(steps.complete)); err != nil {
		return nil, fmt.Errorf("add agent complete node: %w", err)
	}
	if err := graph.AddLambdaNode("detect_action", compose.InvokableLambda(steps.finish)); err != nil {
		return nil, fmt.Errorf("add agent detect node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "gather_context"); err != nil {
		return nil, fmt.Errorf("add agent edge start->gather: %w", err)
	}
	if err := graph.AddEdge("gather_context", "build_prompt"); err != nil {
		return nil, fmt.Errorf("add agent edge gather->prompt: %w", err)
	}
	if err := graph.AddEdge("build_prompt", "complete"); err != nil {
		return nil, fmt.Errorf("add agent edge prompt->complete: %w", err)
	}
	if err := graph.AddEdge("complete", "detect_action"); err != nil {
		return nil, fmt.Errorf("add agent edge complete->detect: %w", err)
	}
	if err := graph.AddEdge("detect_action", compose.END); err != nil {
		return nil, fmt.Errorf("add agent edge detect->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(string(domain)+".agent_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile %s agent graph: %w", domain, err)
	}
	return runner, nil
}

func compileStructuredLLMGraph[T any](
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, T], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(escapeBraces(systemPrompt)),
		schema.UserMessage("{input}"),
	)

	parser := schema.NewMessageJSONParser[T](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[map[string]any, T]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add structured prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add structured model node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_json", compose.MessageParser(parser)); err != nil {
		return nil, fmt.Errorf("add structured parser node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add structured edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add structured edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", "parse_json"); err != nil {
		return nil, fmt.Errorf("add structured edge model->parse: %w", err)
	}
	if err := graph.AddEdge("parse_json", compose.END); err != nil {
		return nil, fmt.Errorf("add structured edge parse->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile structured graph: %w", err)
	}
	return runner, nil
}

var braceEscaper = strings.NewReplacer("{", "{{", "}", "}}")

// escapeBraces keeps literal JSON in a system prompt from being read as
// template variables.
func escapeBraces(s string) string {
	return braceEscaper.Replace(s)
}
