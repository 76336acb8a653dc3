package rover

import (
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/hub"
	"github.com/teslashibe/go-rover/pkg/protocol"
)

func (a *App) controlHandlers() hub.Handlers {
	return hub.Handlers{
		OnConnect: func(c *hub.Client) {
			a.sendTo(c, protocol.NewStatusMessage(string(a.Mode())))
		},
		OnMessage: a.handleControlMessage,
		OnDisconnect: func(c *hub.Client) {
			a.ClientDisconnected()
		},
	}
}

// handleControlMessage dispatches one inbound control message.
func (a *App) handleControlMessage(c *hub.Client, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		a.sendTo(c, protocol.NewErrorMessage(err.Error()))
		return
	}

	switch msg.Type {
	case protocol.TypeSetMode:
		var d *protocol.SetModeData
		if d, err = msg.GetSetModeData(); err == nil {
			mode := Mode(d.Mode)
			if mode == "" {
				mode = ModeManual
			}
			err = a.SetMode(mode)
		}

	case protocol.TypeManualControl:
		var d *protocol.ManualControlData
		if d, err = msg.GetManualControlData(); err == nil {
			_, err = a.ManualControl(*d)
			if errors.Is(err, ErrNotManual) {
				// Keys pressed while in auto are dropped quietly.
				log.Debug("manual command ignored", "client", c.ID, "mode", a.Mode())
				err = nil
			}
		}

	case protocol.TypeEmergencyStop:
		err = a.EmergencyStop()

	case protocol.TypePing:
		var d *protocol.PingData
		if d, err = msg.GetPingData(); err == nil {
			a.sendTo(c, protocol.NewPongMessage(d.ID, d.Timestamp, time.Now().UnixMilli()))
		}

	default:
		err = fmt.Errorf("unsupported message type %q", msg.Type)
	}

	if err != nil {
		log.Warn("control message failed", "client", c.ID, "type", msg.Type, "error", err)
		a.sendTo(c, protocol.NewErrorMessage(err.Error()))
	}
}

// broadcast sends msg to every control client.
func (a *App) broadcast(msg *protocol.Message, err error) {
	if err != nil {
		log.Warn("encode broadcast failed", "error", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		log.Warn("encode broadcast failed", "type", msg.Type, "error", err)
		return
	}
	a.control.Broadcast(hub.JSON(data))
}

func (a *App) sendTo(c *hub.Client, msg *protocol.Message, err error) {
	if err != nil {
		log.Warn("encode reply failed", "error", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		log.Warn("encode reply failed", "type", msg.Type, "error", err)
		return
	}
	c.Send(hub.JSON(data))
}
