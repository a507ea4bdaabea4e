package contract

import "context"

// KnowledgeRetriever returns documents in relevance order, best match first.
type KnowledgeRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Document, error)
}

// ClassificationOracle returns a raw intent token for a query.
type ClassificationOracle interface {
	Classify(ctx context.Context, query string) (string, error)
}

type JustificationOracle interface {
	Justify(ctx context.Context, query string, accountContext string) (string, error)
}

type SynthesisOracle interface {
	Synthesize(ctx context.Context, docContext string, question string) (string, error)
}

// ToolInvoker never returns a Go error. Connectivity, timeout and HTTP
// failures come back as an error-shaped ToolResult.
type ToolInvoker interface {
	Invoke(ctx context.Context, call ToolCall) ToolResult
}

// EscalationNotifier hands an escalated query to a human support queue.
type EscalationNotifier interface {
	NotifyEscalation(ctx context.Context, e Escalation) error
}
