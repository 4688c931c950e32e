package oracle

import (
	"context"
	"sync"
)

// mockScene is a short construct body that renders without assets.
const mockScene = `title = MarkupText("<b>manimator</b>", font_size=36)
box = SurroundingRectangle(title, buff=0.3)
self.play(Write(title))
self.play(Create(box))
self.next_section()
self.wait(2)`

// MockClient answers every prompt offline. Code prompts get a fixed scene
// and JSON prompts get a passing verdict. Responses queued with Push are
// returned first, in order.
type MockClient struct {
	mu      sync.Mutex
	queue   []mockReply
	Prompts []Prompt
}

type mockReply struct {
	text string
	err  error
}

// NewMockClient returns an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Push queues a reply.
func (m *MockClient) Push(text string, err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockReply{text: text, err: err})
	return m
}

func (m *MockClient) Complete(_ context.Context, p Prompt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, p)
	if len(m.queue) > 0 {
		r := m.queue[0]
		m.queue = m.queue[1:]
		return r.text, r.err
	}
	if p.JSON {
		return `{"passed": true, "feedback": ""}`, nil
	}
	return mockScene, nil
}
