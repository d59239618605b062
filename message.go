package wssession

import "fmt"

type MessageType byte

// Values match the RFC 6455 opcodes so they map 1:1 onto the transport's message types.
const (
	DataMessage   MessageType = 1
	BinaryMessage MessageType = 2
	CloseMessage  MessageType = 8
	PingMessage   MessageType = 9
	PongMessage   MessageType = 10
)

func (t MessageType) Is(other MessageType) bool {
	return t == other
}

func (t MessageType) IsData() bool {
	return t.Is(DataMessage) || t.Is(BinaryMessage)
}

func (t MessageType) String() string {
	switch t {
	case DataMessage:
		return "text"
	case BinaryMessage:
		return "binary"
	case CloseMessage:
		return "close"
	case PingMessage:
		return "ping"
	case PongMessage:
		return "pong"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

type Message interface {
	Type() MessageType
	Data() []byte
	Text() string
	String() string
}

type message struct {
	MessageType MessageType
	MessageData []byte
}

func (m message) Type() MessageType {
	return m.MessageType
}

func (m message) Data() []byte {
	return m.MessageData
}

func (m message) Text() string {
	return string(m.MessageData)
}

func (m message) String() string {
	return fmt.Sprintf("Message{type=%s,data=%s}", m.MessageType, m.MessageData)
}

// CloseFrame is a close control message with its status code.
type CloseFrame struct {
	message
	Code int
}

func (m CloseFrame) String() string {
	return fmt.Sprintf("Message{type=%s,code=%d,reason=%s}", m.message.Type(), m.Code, m.message.Data())
}

func NewMessage(mt MessageType, data []byte) Message {
	return message{MessageType: mt, MessageData: data}
}

func NewTextMessage(text string) Message {
	return NewMessage(DataMessage, []byte(text))
}

func NewBinaryMessage(data []byte) Message {
	return NewMessage(BinaryMessage, data)
}

func NewPingMessage(data []byte) Message {
	return NewMessage(PingMessage, data)
}

func NewPongMessage(data []byte) Message {
	return NewMessage(PongMessage, data)
}

func NewCloseMessage(code int, reason string) CloseFrame {
	return CloseFrame{
		message: message{MessageType: CloseMessage, MessageData: []byte(reason)},
		Code:    code,
	}
}
