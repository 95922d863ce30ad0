package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	nodex "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/nodes/orchestrator"
)

func (o *Orchestrator) compileChatGraph(
	ctx context.Context,
) (compose.Runnable[nodex.ChatInput, contractx.ChatResponse], error) {
	graph := compose.NewGraph[nodex.ChatInput, contractx.ChatResponse]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.ChatInput) (*nodex.ChatState, error) {
			return nodex.ValidateChatRequest(in, o.now, o.newID)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_or_create_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.ChatState) (*nodex.ChatState, error) {
			return nodex.LoadOrCreateState(ctx, in, o.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_state: %w", err)
	}

	if err := graph.AddLambdaNode("route",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.ChatState) (*nodex.ChatState, error) {
			return nodex.Route(ctx, in, o.classifier)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node route: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeFlightAgent,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.ChatState) (*nodex.ChatState, error) {
			return nodex.RunAgent(ctx, in, o.agents.Flight(), o.historyTurns)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeFlightAgent, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeHotelAgent,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.ChatState) (*nodex.ChatState, error) {
			return nodex.RunAgent(ctx, in, o.agents.Hotel(), o.historyTurns)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeHotelAgent, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeAwaitConfirmation,
		compose.InvokableLambda(nodex.AwaitConfirmation),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeAwaitConfirmation, err)
	}

	if err := graph.AddLambdaNode("validate_and_save_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.ChatState) (*nodex.ChatState, error) {
			if err := nodex.ValidateAndSaveState(ctx, &in.TurnState, o.store); err != nil {
				return nil, err
			}
			return in, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_and_save_state: %w", err)
	}

	if err := graph.AddLambdaNode("write_memory",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.ChatState) (*nodex.ChatState, error) {
			return nodex.WriteMemory(ctx, in, o.memory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node write_memory: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.ChatState) (contractx.ChatResponse, error) {
			return nodex.FinalizeChat(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_or_create_state"},
		{"load_or_create_state", "route"},
		{nodex.NodeFlightAgent, "validate_and_save_state"},
		{nodex.NodeHotelAgent, "validate_and_save_state"},
		{nodex.NodeAwaitConfirmation, "validate_and_save_state"},
		{"validate_and_save_state", "write_memory"},
		{"write_memory", "finalize_reply"},
		{"finalize_reply", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	branch := compose.NewGraphBranch(nodex.NextNode, map[string]bool{
		nodex.NodeFlightAgent:       true,
		nodex.NodeHotelAgent:        true,
		nodex.NodeAwaitConfirmation: true,
	})
	if err := graph.AddBranch("route", branch); err != nil {
		return nil, fmt.Errorf("add branch route: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.chat"))
	if err != nil {
		return nil, fmt.Errorf("compile chat graph: %w", err)
	}
	return runner, nil
}

func (o *Orchestrator) compileConfirmGraph(
	ctx context.Context,
) (compose.Runnable[nodex.ConfirmInput, contractx.ConfirmResponse], error) {
	graph := compose.NewGraph[nodex.ConfirmInput, contractx.ConfirmResponse]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.ConfirmInput) (*nodex.ConfirmState, error) {
			return nodex.ValidateConfirmRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.ConfirmState) (*nodex.ConfirmState, error) {
			return nodex.LoadState(ctx, in, o.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_state: %w", err)
	}

	if err := graph.AddLambdaNode("resolve_confirmation",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.ConfirmState) (*nodex.ConfirmState, error) {
			return nodex.ResolveConfirmation(ctx, in, o.gate, o.store, o.saveTimeout)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node resolve_confirmation: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.ConfirmState) (contractx.ConfirmResponse, error) {
			return nodex.FinalizeConfirm(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_state"},
		{"load_state", "resolve_confirmation"},
		{"resolve_confirmation", "finalize_reply"},
		{"finalize_reply", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.confirm"))
	if err != nil {
		return nil, fmt.Errorf("compile confirm graph: %w", err)
	}
	return runner, nil
}
