package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/system.txt
	systemRaw string

	//go:embed template/router.txt
	routerRaw string

	//go:embed template/rag_synth.txt
	ragSynthRaw string

	//go:embed template/tool_check.txt
	toolCheckRaw string
)

// Template variables. Templates use FString placeholders.
const (
	VarQuery          = "query"
	VarAccountContext = "account_context"
	VarContext        = "context"
	VarQuestion       = "question"
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	System    string
	Router    string
	RAGSynth  string
	ToolCheck string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		System:    strings.TrimSpace(systemRaw),
		Router:    strings.TrimSpace(routerRaw),
		RAGSynth:  strings.TrimSpace(ragSynthRaw),
		ToolCheck: strings.TrimSpace(toolCheckRaw),
	}
}
