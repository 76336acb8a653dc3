// Rover - person-following robot car with a web dashboard.
// Streams annotated camera video, logs sensor telemetry and drives the
// motors from manual commands or the auto-follow controller.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-rover/internal/config"
	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/rover"
	"github.com/teslashibe/go-rover/pkg/web"
)

func main() {
	cfg, staticDir := parseFlags()

	level := config.String("LOG_LEVEL", "info")
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level)

	if len(config.Invalid) > 0 {
		fatal("invalid environment", errors.Join(config.Invalid...))
	}
	if err := cfg.Validate(); err != nil {
		fatal("configuration error", err)
	}

	app, err := rover.Open(cfg)
	if err != nil {
		fatal("initialization failed", err)
	}
	defer func() {
		if err := app.Shutdown(); err != nil {
			log.Error("shutdown", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := web.NewServer(app, web.Config{
		Addr:      net.JoinHostPort(cfg.Host, cfg.Port),
		StaticDir: staticDir,
	})
	go func() {
		if err := server.Start(); err != nil {
			log.Error("web server stopped", "error", err)
			cancel()
		}
	}()

	log.Info("rover online", "url", fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), "mode", cfg.Mode)
	if err := app.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
	}
	if err := server.Shutdown(); err != nil {
		log.Warn("web server shutdown", "error", err)
	}
}

func fatal(msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

// parseFlags builds the configuration: defaults, then ROVER_* environment,
// then flags.
func parseFlags() (rover.Config, string) {
	cfg := rover.DefaultConfig().LoadEnv()

	debug := flag.Bool("debug", config.Bool("DEBUG", false), "Enable verbose debug logging")
	host := flag.String("host", cfg.Host, "Address to listen on")
	port := flag.String("port", cfg.Port, "HTTP port")
	cam := flag.Int("camera", cfg.Camera.Device, "Camera device index (/dev/videoN)")
	model := flag.String("model", cfg.Detection.ModelPath, "YOLOv8 ONNX model path")
	serialPort := flag.String("serial", cfg.Arduino.Port, "Arduino serial port, or \"auto\" to detect")
	sensorSrc := flag.String("sensor", cfg.SensorSource, "Sensor source: arduino, ultrasonic, sim")
	motors := flag.String("motors", cfg.MotorDriver, "Motor driver: l298n, dummy")
	mode := flag.String("mode", string(cfg.Mode), "Startup mode: manual, auto")
	dbPath := flag.String("telemetry-db", cfg.Telemetry.DBPath, "SQLite telemetry archive (empty to disable)")
	static := flag.String("static", config.String("STATIC_DIR", "./web"), "Dashboard asset directory")
	flag.Parse()

	cfg.Debug = *debug
	cfg.Host, cfg.Port = *host, *port
	cfg.Camera.Device = *cam
	cfg.Detection.ModelPath = *model
	cfg.Arduino.Port = *serialPort
	cfg.SensorSource, cfg.MotorDriver = *sensorSrc, *motors
	cfg.Mode = rover.Mode(*mode)
	cfg.Telemetry.DBPath = *dbPath
	return cfg, *static
}
