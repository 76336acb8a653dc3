package tracking

import "time"

// TuningParams holds the parameters that can be adjusted while driving.
type TuningParams struct {
	EmergencyStopCM   float64 `json:"emergency_stop_cm"`
	LostTimeoutS      float64 `json:"lost_timeout_s"`
	ReselectFrames    int     `json:"reselect_frames"`
	CenterThresholdPX float64 `json:"center_threshold_px"`
	ForwardSpeed      int     `json:"forward_speed"`
	TurnSpeed         int     `json:"turn_speed"`
}

// GetTuningParams returns the current tuning parameters.
func (c *Controller) GetTuningParams() TuningParams {
	c.mu.Lock()
	defer c.mu.Unlock()

	return TuningParams{
		EmergencyStopCM:   c.config.EmergencyStopCM,
		LostTimeoutS:      c.config.LostTimeout.Seconds(),
		ReselectFrames:    c.config.ReselectFrames,
		CenterThresholdPX: c.config.CenterThresholdPX,
		ForwardSpeed:      c.config.ForwardSpeed,
		TurnSpeed:         c.config.TurnSpeed,
	}
}

// SetTuningParams updates tuning parameters at runtime.
// Only non-zero values are applied; speeds are clamped to 0-100.
func (c *Controller) SetTuningParams(p TuningParams) TuningParams {
	c.mu.Lock()
	if p.EmergencyStopCM > 0 {
		c.config.EmergencyStopCM = p.EmergencyStopCM
	}
	if p.LostTimeoutS > 0 {
		c.config.LostTimeout = time.Duration(p.LostTimeoutS * float64(time.Second))
	}
	if p.ReselectFrames > 0 {
		c.config.ReselectFrames = p.ReselectFrames
	}
	if p.CenterThresholdPX > 0 {
		c.config.CenterThresholdPX = p.CenterThresholdPX
	}
	if p.ForwardSpeed > 0 {
		c.config.ForwardSpeed = clampSpeed(p.ForwardSpeed)
	}
	if p.TurnSpeed > 0 {
		c.config.TurnSpeed = clampSpeed(p.TurnSpeed)
	}
	c.mu.Unlock()

	return c.GetTuningParams()
}

// SetFrameWidth re-centers steering after a camera resolution change.
func (c *Controller) SetFrameWidth(width int) {
	if width <= 0 {
		return
	}
	c.mu.Lock()
	c.config = c.config.WithCameraWidth(width)
	c.mu.Unlock()
}

// FrameCenterX returns the horizontal pixel the target is steered toward.
func (c *Controller) FrameCenterX() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.FrameCenterX
}

func clampSpeed(s int) int {
	return min(max(s, 0), 100)
}
