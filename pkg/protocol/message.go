// Package protocol defines the WebSocket control messages exchanged between
// the rover and browser clients.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Client → rover messages
	TypeSetMode       MessageType = "set_mode"       // Switch auto/manual
	TypeManualControl MessageType = "manual_control" // WASD drive command
	TypeEmergencyStop MessageType = "emergency_stop" // Stop and drop to manual

	// Rover → client messages
	TypeStatus      MessageType = "status"       // Sent on connect
	TypeModeChanged MessageType = "mode_changed" // Broadcast after a mode switch
	TypeMotorStatus MessageType = "motor_status" // Broadcast after a manual command
	TypeTracking    MessageType = "tracking"     // Per-frame tracking result in auto mode
	TypeSensorData  MessageType = "sensor_data"  // Periodic telemetry
	TypeError       MessageType = "error"        // Rejected request

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Client → Rover Message Types
// =============================================================================

// SetModeData requests a control mode.
type SetModeData struct {
	Mode string `json:"mode"` // "auto" or "manual"
}

// ManualControlData is one drive command.
type ManualControlData struct {
	Command string `json:"command"`         // forward/backward/left/right/stop or w/s/a/d
	Speed   *int   `json:"speed,omitempty"` // Percent; default speed when absent
}

// =============================================================================
// Rover → Client Message Types
// =============================================================================

// StatusData is sent to a client when it connects.
type StatusData struct {
	Mode      string `json:"mode"`
	Connected bool   `json:"connected"`
}

// ModeChangedData announces the active mode.
type ModeChangedData struct {
	Mode      string `json:"mode"`
	Emergency bool   `json:"emergency,omitempty"`
}

// ErrorData describes a rejected request.
type ErrorData struct {
	Message string `json:"message"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
