// Package testutil provides test fixtures and helpers for testing.
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	"github.com/jbctechsolutions/docsmith/internal/domain/completion"
)

// ErrScripted is returned by FakeProvider when Fail is set.
var ErrScripted = errors.New("scripted provider failure")

// Rule maps prompts containing Match to Reply.
type Rule struct {
	Match string
	Reply string
}

// FakeProvider is a scripted ProviderPort. The first rule whose Match is a
// substring of the last user message wins; otherwise Default is returned.
type FakeProvider struct {
	Rules   []Rule
	Default string
	Model   string
	Fail    bool

	mu      sync.Mutex
	prompts []string
}

// NewFakeProvider creates a provider answering with rules.
func NewFakeProvider(rules ...Rule) *FakeProvider {
	return &FakeProvider{Rules: rules, Model: "fake-model"}
}

// Info returns provider metadata.
func (f *FakeProvider) Info() ports.ProviderInfo {
	return ports.ProviderInfo{Name: "fake", Description: "scripted test provider", IsLocal: true}
}

// Complete records the prompt and returns the scripted reply.
func (f *FakeProvider) Complete(ctx context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prompt := req.UserPrompt()

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.Fail {
		return nil, ErrScripted
	}

	reply := f.Default
	for _, r := range f.Rules {
		if strings.Contains(prompt, r.Match) {
			reply = r.Reply
			break
		}
	}

	model := req.ModelID
	if model == "" {
		model = f.Model
	}
	return &ports.CompletionResponse{
		Content:      reply,
		InputTokens:  len(prompt) / 4,
		OutputTokens: len(reply) / 4,
		FinishReason: "stop",
		ModelUsed:    model,
	}, nil
}

// Calls returns how many completions were requested.
func (f *FakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// Prompts returns a copy of every prompt received, in order.
func (f *FakeProvider) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Counter wraps a fixed completion in a ComputeFunc and counts invocations.
type Counter struct {
	calls atomic.Int64
	reply func(n int64) (*completion.Completion, error)
}

// NewCounter returns a Counter whose compute yields replies in order; the
// last reply repeats once the list is exhausted.
func NewCounter(model string, replies ...string) *Counter {
	return &Counter{
		reply: func(n int64) (*completion.Completion, error) {
			if len(replies) == 0 {
				return completion.New("", model), nil
			}
			i := int(n - 1)
			if i >= len(replies) {
				i = len(replies) - 1
			}
			return completion.New(replies[i], model), nil
		},
	}
}

// NewFailingCounter returns a Counter whose compute always fails with err.
func NewFailingCounter(err error) *Counter {
	return &Counter{
		reply: func(int64) (*completion.Completion, error) { return nil, err },
	}
}

// Compute is a ports.ComputeFunc.
func (c *Counter) Compute(ctx context.Context) (*completion.Completion, error) {
	n := c.calls.Add(1)
	return c.reply(n)
}

// Calls returns how many times Compute ran.
func (c *Counter) Calls() int {
	return int(c.calls.Load())
}

// Ensure FakeProvider implements ProviderPort
var _ ports.ProviderPort = (*FakeProvider)(nil)
