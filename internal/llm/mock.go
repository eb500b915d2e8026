package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockText is a canned plain-text reply.
func MockText(text string) MockResponse {
	return MockResponse{Content: json.RawMessage(text)}
}

// MockError is a canned failure.
func MockError(err error) MockResponse {
	return MockResponse{Err: err}
}

// MockProvider is a deterministic Provider for tests and the "mock"
// provider setting. It returns canned responses in FIFO order and records
// all requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request

	// Fallback answers requests once the canned queue is empty. When nil,
	// an empty queue yields ErrProviderUnavailable.
	Fallback func(ctx context.Context, req Request) MockResponse
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response, the Fallback reply, or
// ErrProviderUnavailable if neither is available.
func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	var resp MockResponse
	switch {
	case len(m.responses) > 0:
		resp = m.responses[0]
		m.responses = m.responses[1:]
	case m.Fallback != nil:
		resp = m.Fallback(ctx, req)
	default:
		return nil, &ErrProviderUnavailable{Err: nil}
	}

	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// DemoReply is the Fallback used by the "mock" provider setting. It answers
// each purpose with fixed text so that a dry run works offline.
func DemoReply(ctx context.Context, req Request) MockResponse {
	switch PurposeFrom(ctx) {
	case PurposeTip:
		return MockText("💡 نصيحة: راجع خطوات الحل بعد كل مسألة.")
	case PurposeVariant:
		return MockText(`{"question": "Solve for x: 3x + 5 = 20"}`)
	}
	if req.Schema != nil {
		return MockText(`{}`)
	}
	return MockText("1. اطرح 3 من الطرفين.\n2. اقسم الطرفين على 2.\n\n✅ الإجابة: x = 2")
}
