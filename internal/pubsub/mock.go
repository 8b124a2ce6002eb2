package pubsub

import (
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// MockClient is a mock implementation of the PubSubClient interface.
type MockClient struct {
	mu sync.Mutex

	ProjectID        string
	SendMessageFunc  func(topic string, data any) error
	SendMessageCalls []struct {
		Topic string
		Data  any
	}
}

var _ PubSubClient = (*MockClient)(nil)

// NewMock creates a new mock instance.
func NewMock(projectID string) *MockClient {
	return &MockClient{ProjectID: projectID}
}

func (m *MockClient) SendMessage(topic string, data any) error {
	m.mu.Lock()
	m.SendMessageCalls = append(m.SendMessageCalls, struct {
		Topic string
		Data  any
	}{topic, data})
	m.mu.Unlock()
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(topic, data)
	}
	return nil
}

func (m *MockClient) ProcessMessage(data []byte, returnValue any) error {
	return msgpack.Unmarshal(data, returnValue)
}
