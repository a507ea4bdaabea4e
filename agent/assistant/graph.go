package assistant

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/Chative-Support-Router/agent/nodes"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
)

func (a *Assistant) compilePipelineGraph(
	ctx context.Context,
) (compose.Runnable[*statex.QueryState, nodex.GraphOutput], error) {
	graph := compose.NewGraph[*statex.QueryState, nodex.GraphOutput]()

	if err := graph.AddLambdaNode(nodex.StageSafetyCheck,
		compose.InvokableLambda(func(ctx context.Context, in *statex.QueryState) (*statex.QueryState, error) {
			return nodex.SafetyCheck(in, a.gate)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StageSafetyCheck, err)
	}

	if err := graph.AddLambdaNode(nodex.StageRouteIntent,
		compose.InvokableLambda(func(ctx context.Context, in *statex.QueryState) (*statex.QueryState, error) {
			return nodex.RouteIntent(ctx, in, a.classifier, a.policy)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StageRouteIntent, err)
	}

	if err := graph.AddLambdaNode(nodex.StageRetrieve,
		compose.InvokableLambda(func(ctx context.Context, in *statex.QueryState) (*statex.QueryState, error) {
			return nodex.Retrieve(ctx, in, a.retriever, a.retrieveK)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StageRetrieve, err)
	}

	if err := graph.AddLambdaNode(nodex.StageDispatchTools,
		compose.InvokableLambda(func(ctx context.Context, in *statex.QueryState) (*statex.QueryState, error) {
			return nodex.DispatchTools(ctx, in, a.justifier, a.invoker)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StageDispatchTools, err)
	}

	if err := graph.AddLambdaNode(nodex.StageSynthesize,
		compose.InvokableLambda(func(ctx context.Context, in *statex.QueryState) (*statex.QueryState, error) {
			return nodex.Synthesize(ctx, in, a.synthesizer)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StageSynthesize, err)
	}

	if err := graph.AddLambdaNode(nodex.StageValidate,
		compose.InvokableLambda(func(ctx context.Context, in *statex.QueryState) (nodex.GraphOutput, error) {
			return nodex.Validate(in, a.validator, a.gate)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StageValidate, err)
	}

	if err := graph.AddLambdaNode(nodex.StageEscalate,
		compose.InvokableLambda(func(ctx context.Context, in *statex.QueryState) (nodex.GraphOutput, error) {
			return nodex.Escalate(ctx, in, a.notifier, a.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StageEscalate, err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *statex.QueryState) (string, error) {
			if in == nil {
				return "", nodex.ErrNilState
			}
			return nodex.NextStage(in.Intent), nil
		},
		map[string]bool{
			nodex.StageRetrieve:      true,
			nodex.StageDispatchTools: true,
			nodex.StageEscalate:      true,
		},
	)
	if err := graph.AddBranch(nodex.StageRouteIntent, branch); err != nil {
		return nil, fmt.Errorf("add intent branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, nodex.StageSafetyCheck},
		{nodex.StageSafetyCheck, nodex.StageRouteIntent},
		{nodex.StageRetrieve, nodex.StageSynthesize},
		{nodex.StageDispatchTools, nodex.StageSynthesize},
		{nodex.StageSynthesize, nodex.StageValidate},
		{nodex.StageValidate, compose.END},
		{nodex.StageEscalate, compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("assistant.process_query"))
	if err != nil {
		return nil, fmt.Errorf("compile assistant graph: %w", err)
	}
	return runner, nil
}
