// Package testutil provides shared test helpers and mocks for Clanky tests.
package testutil

import (
	"context"
	"sync"

	"github.com/Vibebros/sgkb-clanky/internal/llm"
)

// MockProvider implements llm.Provider for tests without live API calls.
// When Content is empty, Generate returns "mock response from " + ProviderName.
// Set Err to simulate transport errors.
type MockProvider struct {
	ProviderName string
	Content      string
	Err          error
}

// Name returns the provider identifier (implements llm.Provider).
func (m *MockProvider) Name() string { return m.ProviderName }

// Generate returns the canned response or the configured error.
func (m *MockProvider) Generate(_ context.Context, req *llm.Request) (*llm.Response, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	content := m.Content
	if content == "" {
		content = "mock response from " + m.ProviderName
	}
	return &llm.Response{
		Content:      content,
		FinishReason: "stop",
		InputTokens:  10,
		OutputTokens: 20,
		Model:        req.Model,
	}, nil
}

// ScriptedProvider implements llm.Provider with a fixed sequence of
// responses, one per Generate call. It records the requests it received so
// tests can assert on prompts and tool wiring. Call N past the end of the
// script replays the last response.
// Set ErrOnCall (1-based) and Err to fail a specific call mid-sequence.
type ScriptedProvider struct {
	mu               sync.Mutex
	Responses        []*llm.Response
	CallCount        int
	ReceivedMessages [][]llm.Message
	ErrOnCall        int
	Err              error
}

// Name returns "scripted".
func (p *ScriptedProvider) Name() string { return "scripted" }

// Generate returns the next response in the script and records the request.
func (p *ScriptedProvider) Generate(_ context.Context, req *llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	p.CallCount++
	idx := p.CallCount - 1
	msgCopy := make([]llm.Message, len(req.Messages))
	copy(msgCopy, req.Messages)
	p.ReceivedMessages = append(p.ReceivedMessages, msgCopy)
	resps := p.Responses
	callCount := p.CallCount
	errOnCall := p.ErrOnCall
	errReturn := p.Err
	p.mu.Unlock()

	if errOnCall > 0 && callCount == errOnCall && errReturn != nil {
		return nil, errReturn
	}
	if len(resps) == 0 {
		return &llm.Response{
			Content:      "no responses configured",
			FinishReason: "stop",
			Model:        req.Model,
		}, nil
	}
	if idx >= len(resps) {
		idx = len(resps) - 1
	}
	out := resps[idx]
	r := &llm.Response{
		Content:      out.Content,
		FinishReason: out.FinishReason,
		InputTokens:  out.InputTokens,
		OutputTokens: out.OutputTokens,
		Model:        out.Model,
	}
	if len(out.ToolCalls) > 0 {
		r.ToolCalls = make([]llm.ToolCall, len(out.ToolCalls))
		copy(r.ToolCalls, out.ToolCalls)
	}
	return r, nil
}
