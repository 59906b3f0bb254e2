package assistant

import "context"

// MockProvider is a test double for the completion service. Chunks, when
// set, are streamed one by one; otherwise Response is delivered as a
// single chunk.
type MockProvider struct {
	Response    string
	Chunks      []string
	Err         error
	StreamErr   error // delivered mid-stream, after any Chunks
	LastRequest *CompletionRequest
}

// NewMockProvider creates a MockProvider that returns the given response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

func (m *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.LastRequest = &req
	if m.Err != nil {
		return CompletionResponse{}, m.Err
	}
	return CompletionResponse{
		Content:      m.Response,
		Model:        "mock",
		InputTokens:  10,
		OutputTokens: len(m.Response),
	}, nil
}

func (m *MockProvider) StreamComplete(_ context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	m.LastRequest = &req
	if m.Err != nil {
		return nil, m.Err
	}

	ch := make(chan StreamChunk, len(m.Chunks)+1)
	go func() {
		defer close(ch)
		if len(m.Chunks) == 0 && m.StreamErr == nil {
			ch <- StreamChunk{Content: m.Response, Done: true}
			return
		}
		for _, c := range m.Chunks {
			ch <- StreamChunk{Content: c}
		}
		if m.StreamErr != nil {
			ch <- StreamChunk{Error: m.StreamErr}
			return
		}
		ch <- StreamChunk{Done: true}
	}()
	return ch, nil
}

func (m *MockProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "mock", Name: "Mock Model", MaxTokens: 4096, Description: "Test mock"},
	}
}

func (m *MockProvider) HealthCheck(_ context.Context) error {
	return m.Err
}
