package protocol

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewStatusMessage creates the greeting sent on connect.
func NewStatusMessage(mode string) (*Message, error) {
	return NewMessage(TypeStatus, StatusData{Mode: mode, Connected: true})
}

// NewModeChangedMessage creates a mode change broadcast.
func NewModeChangedMessage(mode string, emergency bool) (*Message, error) {
	return NewMessage(TypeModeChanged, ModeChangedData{Mode: mode, Emergency: emergency})
}

// NewMotorStatusMessage wraps a motor status value.
func NewMotorStatusMessage(status any) (*Message, error) {
	return NewMessage(TypeMotorStatus, status)
}

// NewTrackingMessage wraps a per-frame tracking result.
func NewTrackingMessage(result any) (*Message, error) {
	return NewMessage(TypeTracking, result)
}

// NewSensorDataMessage wraps a sensor reading.
func NewSensorDataMessage(reading any) (*Message, error) {
	return NewMessage(TypeSensorData, reading)
}

// NewErrorMessage creates an error reply.
func NewErrorMessage(text string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Message: text})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string, ts int64) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id, Timestamp: ts})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetSetModeData extracts a mode request from a message
func (m *Message) GetSetModeData() (*SetModeData, error) {
	var data SetModeData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetManualControlData extracts a drive command from a message
func (m *Message) GetManualControlData() (*ManualControlData, error) {
	var data ManualControlData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetModeChangedData extracts a mode change from a message
func (m *Message) GetModeChangedData() (*ModeChangedData, error) {
	var data ModeChangedData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
