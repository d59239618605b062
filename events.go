package wssession

import "fmt"

type EventType int

const (
	EventOpen EventType = iota + 1
	EventMessage
	EventClose
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventClose:
		return "close"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Event is what observers registered through Coordinator.On receive. Only the fields relevant
// to Type are set.
type Event struct {
	Type    EventType
	Message Message
	Code    int
	Reason  string
	Remote  bool
	Err     error
}

type (
	// EventHandler receives the transport's lifecycle callbacks. Methods may be called from any
	// goroutine owned by the transport.
	EventHandler interface {
		OnOpen()
		OnMessage(m Message)
		OnClose(code int, reason string, remote bool)
		OnError(err error)
	}

	MessageHandler func(*Coordinator, Message)
)
