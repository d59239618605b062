package wssession

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// mockTransport records what the coordinator asks of it. Behavior can be overridden through the
// function fields.
type mockTransport struct {
	handler EventHandler

	ConnectFunc func(ctx context.Context, p OpenConnectionParams) error
	SendFunc    func(m Message) error
	CloseFunc   func(code int, reason string) error

	mu       sync.Mutex
	connects []OpenConnectionParams
	sent     []Message
	closes   []string
}

func newMockTransportFactory() (TransportFactory, *mockTransport) {
	t := &mockTransport{}
	return func(handler EventHandler) Transport {
		t.handler = handler
		return t
	}, t
}

func (m *mockTransport) Connect(ctx context.Context, p OpenConnectionParams) error {
	m.mu.Lock()
	m.connects = append(m.connects, p)
	m.mu.Unlock()
	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx, p)
	}
	return nil
}

func (m *mockTransport) Send(msg Message) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(msg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

func (m *mockTransport) Close(code int, reason string) error {
	m.mu.Lock()
	m.closes = append(m.closes, reason)
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc(code, reason)
	}
	return nil
}

func (m *mockTransport) Connects() []OpenConnectionParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]OpenConnectionParams(nil), m.connects...)
}

func (m *mockTransport) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

func (m *mockTransport) Closes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.closes...)
}

type mockObserver struct {
	mock.Mock
}

func (o *mockObserver) Handle(e Event) {
	o.Called(e)
}

func (o *mockObserver) attach(c *Coordinator, events ...EventType) {
	for _, ev := range events {
		c.On(ev, o.Handle)
	}
}
