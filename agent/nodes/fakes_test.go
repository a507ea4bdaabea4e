package pipelinenode

import (
	"context"
	"sync"

	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
)

type fakeClassifier struct {
	token string
	err   error
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, query string) (string, error) {
	f.calls++
	return f.token, f.err
}

type fakeRetriever struct {
	docs   []contractx.Document
	err    error
	gotK   int
	gotQry string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, k int) ([]contractx.Document, error) {
	f.gotK = k
	f.gotQry = query
	return f.docs, f.err
}

type fakeJustifier struct {
	text       string
	err        error
	gotAccount string
}

func (f *fakeJustifier) Justify(ctx context.Context, query, accountContext string) (string, error) {
	f.gotAccount = accountContext
	return f.text, f.err
}

type fakeSynthesizer struct {
	text        string
	err         error
	gotContext  string
	gotQuestion string
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, docContext, question string) (string, error) {
	f.gotContext = docContext
	f.gotQuestion = question
	return f.text, f.err
}

type fakeInvoker struct {
	mu      sync.Mutex
	results map[string]contractx.ToolResult
	calls   []contractx.ToolCall
	panics  bool
}

func (f *fakeInvoker) Invoke(ctx context.Context, call contractx.ToolCall) contractx.ToolResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics {
		panic("tool server exploded")
	}
	f.calls = append(f.calls, call)
	if r, ok := f.results[call.Tool]; ok {
		return r
	}
	return contractx.ErrorResult("Account not found", "")
}

type fakeNotifier struct {
	got []contractx.Escalation
	err error
}

func (f *fakeNotifier) NotifyEscalation(ctx context.Context, e contractx.Escalation) error {
	f.got = append(f.got, e)
	return f.err
}
