package web

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-rover/pkg/camera"
	"github.com/teslashibe/go-rover/pkg/protocol"
	"github.com/teslashibe/go-rover/pkg/rover"
	"github.com/teslashibe/go-rover/pkg/telemetry"
	"github.com/teslashibe/go-rover/pkg/tracking"
)

func errorJSON(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// handleStatus returns the full rover snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.backend.Snapshot())
}

// handleSensors returns the latest sensor reading
func (s *Server) handleSensors(c *fiber.Ctx) error {
	return c.JSON(s.backend.Sensors())
}

// handleTracking returns the tracking controller state
func (s *Server) handleTracking(c *fiber.Ctx) error {
	return c.JSON(s.backend.Tracker().Status())
}

func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	return c.JSON(s.backend.Tracker().GetTuningParams())
}

// handleSetTuning applies the non-zero fields of the body.
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	var p tracking.TuningParams
	if err := c.BodyParser(&p); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	return c.JSON(s.backend.Tracker().SetTuningParams(p))
}

// handleSetMode switches between manual and auto
func (s *Server) handleSetMode(c *fiber.Ctx) error {
	var req protocol.SetModeData
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	if err := s.backend.SetMode(rover.Mode(req.Mode)); err != nil {
		if errors.Is(err, rover.ErrInvalidMode) {
			return errorJSON(c, fiber.StatusBadRequest, err)
		}
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(protocol.ModeChangedData{Mode: string(s.backend.Mode())})
}

// handleManual issues one drive command
func (s *Server) handleManual(c *fiber.Ctx) error {
	var req protocol.ManualControlData
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	status, err := s.backend.ManualControl(req)
	switch {
	case errors.Is(err, rover.ErrNotManual):
		return errorJSON(c, fiber.StatusConflict, err)
	case errors.Is(err, rover.ErrUnknownCommand):
		return errorJSON(c, fiber.StatusBadRequest, err)
	case err != nil:
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(status)
}

// handleEmergencyStop stops everything and falls back to manual
func (s *Server) handleEmergencyStop(c *fiber.Ctx) error {
	if err := s.backend.EmergencyStop(); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(protocol.ModeChangedData{Mode: string(rover.ModeManual), Emergency: true})
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	return c.JSON(s.backend.CameraManager().GetConfig())
}

// handleSetCamera accepts a partial config and/or a "preset" name.
func (s *Server) handleSetCamera(c *fiber.Ctx) error {
	var params map[string]any
	if err := c.BodyParser(&params); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	mgr := s.backend.CameraManager()
	if err := mgr.UpdateConfig(params); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	return c.JSON(mgr.GetConfig())
}

func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(camera.PresetNames())
}

// handleVideoFeed streams overlaid frames as multipart MJPEG.
func (s *Server) handleVideoFeed(c *fiber.Ctx) error {
	feed := s.backend.Feed()
	id, frames := feed.Subscribe()

	c.Set(fiber.HeaderContentType, "multipart/x-mixed-replace; boundary="+mjpegBoundary)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer feed.Unsubscribe(id)
		for frame := range frames {
			if err := writeMJPEGPart(w, frame); err != nil {
				return
			}
			// Flush fails once the viewer has gone.
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}

const mjpegBoundary = "frame"

func writeMJPEGPart(w io.Writer, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", mjpegBoundary, len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}

// handleTelemetryStats returns summary statistics of the in-memory log
func (s *Server) handleTelemetryStats(c *fiber.Ctx) error {
	stats, err := s.backend.Telemetry().Stats()
	if errors.Is(err, telemetry.ErrNoData) {
		return errorJSON(c, fiber.StatusNotFound, err)
	}
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(stats)
}

// handleTelemetryExport downloads the in-memory log as CSV
func (s *Server) handleTelemetryExport(c *fiber.Ctx) error {
	var buf bytes.Buffer
	err := s.backend.Telemetry().WriteCSV(&buf)
	if errors.Is(err, telemetry.ErrNoData) {
		return errorJSON(c, fiber.StatusNotFound, err)
	}
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	name := "sensor_log_" + time.Now().Format("20060102_150405") + ".csv"
	c.Attachment(name)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

// handleTelemetryRecent reads the SQLite archive
func (s *Server) handleTelemetryRecent(c *fiber.Ctx) error {
	store := s.backend.Store()
	if store == nil {
		return errorJSON(c, fiber.StatusNotFound, errors.New("telemetry archive is not enabled"))
	}
	limit := c.QueryInt("limit", 100)
	if limit < 1 || limit > 10000 {
		return errorJSON(c, fiber.StatusBadRequest, fmt.Errorf("limit %d out of range [1,10000]", limit))
	}
	entries, err := store.Recent(c.UserContext(), limit)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	if entries == nil {
		entries = []telemetry.Entry{}
	}
	return c.JSON(entries)
}

func (s *Server) handleTelemetryClear(c *fiber.Ctx) error {
	s.backend.Telemetry().Clear()
	return c.JSON(fiber.Map{"cleared": true})
}

// handleTelemetryLogging enables or disables logging
func (s *Server) handleTelemetryLogging(c *fiber.Ctx) error {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	if req.Enabled == nil {
		return errorJSON(c, fiber.StatusBadRequest, errors.New("enabled is required"))
	}
	logger := s.backend.Telemetry()
	if *req.Enabled {
		logger.Enable()
	} else {
		logger.Disable()
	}
	return c.JSON(fiber.Map{"enabled": logger.Enabled()})
}
