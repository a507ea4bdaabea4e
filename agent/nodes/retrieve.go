package pipelinenode

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	statex "github.com/tanpawarit/Chative-Support-Router/agent/state"
)

const (
	DefaultRetrieveK = 5

	msgRetrievalFallback = "Knowledge base retrieval failed. Please try rephrasing your question."
)

func Retrieve(
	ctx context.Context,
	in *statex.QueryState,
	retriever contractx.KnowledgeRetriever,
	k int,
) (*statex.QueryState, error) {
	if in == nil {
		return nil, ErrNilState
	}
	if k <= 0 {
		k = DefaultRetrieveK
	}

	if retriever == nil {
		in.AddError("Retrieval error: %v", fmt.Errorf("%w: no knowledge retriever configured", contractx.ErrRetrieval))
		in.Answer = msgRetrievalFallback
		return in, nil
	}

	docs, err := retriever.Retrieve(ctx, in.CurrentQuery, k)
	if err != nil {
		in.AddError("Retrieval error: %v", err)
		in.Answer = msgRetrievalFallback
		log.Warn().Err(err).Msg("retrieve_failed")
		return in, nil
	}

	blocks := make([]string, 0, len(docs))
	for i, doc := range docs {
		in.AddEvidence(statex.EvidenceDoc, sourceName(doc.Source))
		blocks = append(blocks, fmt.Sprintf("[Document %d - %s]\n%s", i+1, doc.Source, doc.Content))
	}

	in.RetrievedContext = strings.Join(blocks, "\n\n")
	in.Answer = in.RetrievedContext
	log.Info().Int("documents", len(docs)).Msg("retrieve_done")
	return in, nil
}

func sourceName(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return "unknown"
	}
	return filepath.Base(filepath.FromSlash(source))
}
