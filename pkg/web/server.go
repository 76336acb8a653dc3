// Package web serves the rover dashboard: REST control, the MJPEG feed,
// telemetry export and the control and camera WebSockets.
package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/camera"
	"github.com/teslashibe/go-rover/pkg/hub"
	"github.com/teslashibe/go-rover/pkg/motor"
	"github.com/teslashibe/go-rover/pkg/protocol"
	"github.com/teslashibe/go-rover/pkg/rover"
	"github.com/teslashibe/go-rover/pkg/sensor"
	"github.com/teslashibe/go-rover/pkg/telemetry"
	"github.com/teslashibe/go-rover/pkg/tracking"
)

// Backend is the application the server controls. *rover.App implements it.
type Backend interface {
	Snapshot() rover.Snapshot
	Mode() rover.Mode
	SetMode(mode rover.Mode) error
	ManualControl(cmd protocol.ManualControlData) (motor.Status, error)
	EmergencyStop() error
	Sensors() sensor.Reading
	Tracker() *tracking.Controller
	Telemetry() *telemetry.Logger
	Store() *telemetry.Store
	CameraManager() *camera.Manager
	Feed() *rover.FrameFeed
	ControlHub() *hub.Hub
	CameraHub() *hub.Hub
}

var _ Backend = (*rover.App)(nil)

// Config holds server settings.
type Config struct {
	Addr      string // host:port to listen on
	StaticDir string // Browser UI assets served at /
}

// Server is the dashboard HTTP server.
type Server struct {
	app     *fiber.App
	cfg     Config
	backend Backend
}

// NewServer creates a server for backend. The hubs returned by backend
// must be running for the WebSocket routes to work.
func NewServer(backend Backend, cfg Config) *Server {
	s := &Server{cfg: cfg, backend: backend}

	app := fiber.New(fiber.Config{
		AppName:               "Rover Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	// CORS for local development
	app.Use(cors.New())

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}
	app.Get("/video_feed", s.handleVideoFeed)

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/sensors", s.handleSensors)
	api.Get("/tracking", s.handleTracking)
	api.Get("/tracking/tuning", s.handleGetTuning)
	api.Post("/tracking/tuning", s.handleSetTuning)
	api.Post("/mode", s.handleSetMode)
	api.Post("/manual", s.handleManual)
	api.Post("/estop", s.handleEmergencyStop)
	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleSetCamera)
	api.Get("/camera/presets", s.handleCameraPresets)

	tel := api.Group("/telemetry")
	tel.Get("/stats", s.handleTelemetryStats)
	tel.Get("/export.csv", s.handleTelemetryExport)
	tel.Get("/recent", s.handleTelemetryRecent)
	tel.Get("/chart", s.handleTelemetryChart)
	tel.Post("/clear", s.handleTelemetryClear)
	tel.Post("/logging", s.handleTelemetryLogging)

	// Paths used by the first dashboard version.
	app.Get("/status", s.handleStatus)
	app.Get("/sensor_data", s.handleSensors)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/control", websocket.New(s.handleControlWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// App exposes the Fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	log.Info("web dashboard listening", "addr", s.cfg.Addr)
	return s.app.Listen(s.cfg.Addr)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handleControlWS attaches a control client to the control hub. Inbound
// messages are dispatched by the hub's handlers.
func (s *Server) handleControlWS(c *websocket.Conn) {
	hub.NewClient(s.backend.ControlHub(), c).Run()
}

// handleCameraWS streams binary JPEG frames.
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.backend.CameraHub(), c).Run()
}
