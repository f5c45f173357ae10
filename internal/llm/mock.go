package llm

import "context"

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response string
	Err      error

	LastMessages []Message
	LastOptions  Options
}

func (m *MockClient) Chat(_ context.Context, messages []Message, opts Options) (string, error) {
	m.LastMessages = messages
	m.LastOptions = opts
	return m.Response, m.Err
}
