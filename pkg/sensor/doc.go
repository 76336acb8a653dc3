// Package sensor acquires ranging and environment telemetry for the rover.
//
// Each source runs its own polling goroutine and publishes into a single-slot
// Latest cell. Readers (the frame pipeline, the telemetry logger, the web API)
// take one snapshot per use and never block on the hardware.
//
// Three sources are provided:
//
//   - Arduino: JSON or CSV lines over a serial port (gas, temperature,
//     distance and optional IMU values).
//   - Ultrasonic: an HC-SR04 wired directly to Raspberry Pi GPIO.
//   - Simulator: random readings for bench work without hardware.
package sensor
