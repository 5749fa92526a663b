package llm

import (
	"context"
	"sync"
)

// MockResponse is one scripted outcome: Err, when set, wins over Text.
type MockResponse struct {
	Text  string
	Usage Usage
	Err   error
}

// MockProvider replays scripted outcomes in order and records every
// request it receives. Once the script runs out it reports an outage, so
// tests can count exactly how many calls a policy made.
type MockProvider struct {
	mu     sync.Mutex
	model  string
	script []MockResponse
	Calls  []Request
}

func NewMockProvider(script ...MockResponse) *MockProvider {
	return NewNamedMockProvider("mock", script...)
}

// NewNamedMockProvider lets primary and fallback mocks report different
// model IDs in audit events.
func NewNamedMockProvider(model string, script ...MockResponse) *MockProvider {
	return &MockProvider{model: model, script: script}
}

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	if len(m.script) == 0 {
		return nil, &ErrProviderUnavailable{}
	}

	next := m.script[0]
	m.script = m.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return &Response{Text: next.Text, Usage: next.Usage, Model: m.model, Stop: StopEnd}, nil
}

func (m *MockProvider) ModelID() string { return m.model }

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
