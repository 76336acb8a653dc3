// Package hub fans rover messages out to websocket clients: JSON control
// traffic on /ws/control and JPEG frames on /ws/camera.
package hub

import "github.com/gofiber/websocket/v2"

// Kind selects the websocket frame type a message is written with.
type Kind uint8

const (
	Text   Kind = iota // JSON protocol messages
	Binary             // encoded camera frames
)

// frameType maps k to the websocket message type.
func (k Kind) frameType() int {
	if k == Binary {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// Message is one outbound payload queued for a client.
type Message struct {
	Kind Kind
	Data []byte
}

// JSON wraps an already encoded protocol message.
func JSON(data []byte) Message {
	return Message{Kind: Text, Data: data}
}

// JPEG wraps an encoded camera frame.
func JPEG(frame []byte) Message {
	return Message{Kind: Binary, Data: frame}
}
