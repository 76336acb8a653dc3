package rover

import (
	"context"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/camera"
	"github.com/teslashibe/go-rover/pkg/protocol"
	"github.com/teslashibe/go-rover/pkg/sensor"
	"github.com/teslashibe/go-rover/pkg/tracking/detection"
)

// readRetryDelay is the pause after a failed camera read.
const readRetryDelay = 100 * time.Millisecond

// runCamera reads frames until ctx is cancelled.
func (a *App) runCamera(ctx context.Context) {
	frame := gocv.NewMat()
	defer frame.Close()

	failures := 0
	for ctx.Err() == nil {
		if err := a.camera.Read(&frame); err != nil {
			failures++
			if failures == 1 || failures%50 == 0 {
				log.Warn("camera read failed", "error", err, "failures", failures)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}
		failures = 0
		a.processFrame(&frame, a.now())
	}
}

// shouldDetect reports whether frame number index (1-based) goes through
// the detector. The first frame always does.
func shouldDetect(index, every int) bool {
	return every <= 1 || (index-1)%every == 0
}

// processFrame runs detection, tracking and the overlay on one frame and
// publishes it to viewers. In auto mode the tracker runs on every detection
// frame, with no boxes when the detector is missing or failed, so the
// emergency stop and lost-person stop still apply.
func (a *App) processFrame(frame *gocv.Mat, now time.Time) {
	a.frameIndex++
	reading := a.sensors.Latest()
	mode := a.Mode()

	if shouldDetect(a.frameIndex, a.cfg.ProcessEveryN) {
		dets := a.detect(*frame)
		a.mu.Lock()
		a.dets = dets
		a.mu.Unlock()

		if mode == ModeAuto {
			a.track(dets, reading.Distance, now)
		}
	}

	overlay := camera.Overlay{
		Detections: a.Detections(),
		Distance:   reading.Distance,
		FPS:        a.fps.Tick(now),
		Mode:       string(mode),
	}
	overlay.Humans = len(overlay.Detections)
	if mode == ModeAuto {
		overlay.Tracking = a.tracker.Status().Last.Summary()
	}
	overlay.Draw(frame)

	a.publish(*frame, now)
}

// detect returns the people in frame, or nil without a working detector.
func (a *App) detect(frame gocv.Mat) []detection.Detection {
	if a.detector == nil {
		return nil
	}
	dets, err := a.detector.Detect(frame)
	if err != nil {
		log.Warn("detection failed", "frame", a.frameIndex, "error", err)
		return nil
	}
	return dets
}

func (a *App) track(dets []detection.Detection, distance sensor.Distance, now time.Time) {
	r := a.tracker.Process(dets, len(dets), distance, now)
	a.broadcast(protocol.NewTrackingMessage(r))
}

// trackInterval is the detection period of the camera loop: every
// ProcessEveryN frames at the configured FPS.
func (a *App) trackInterval() time.Duration {
	fps := a.camMgr.GetConfig().FPS
	if fps <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(a.cfg.ProcessEveryN) * time.Second / time.Duration(fps)
}

// runBlindTracking keeps the tracker running without a camera. It only
// ever sees an empty frame, so auto mode stops for obstacles and after the
// lost timeout.
func (a *App) runBlindTracking(ctx context.Context) {
	ticker := time.NewTicker(a.trackInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.trackBlind(now)
		}
	}
}

func (a *App) trackBlind(now time.Time) {
	if a.Mode() != ModeAuto {
		return
	}
	a.track(nil, a.sensors.Latest().Distance, now)
}

// publish encodes frame for MJPEG and WebSocket viewers, subject to the
// stream rate limit. Nothing is encoded without viewers.
func (a *App) publish(frame gocv.Mat, now time.Time) {
	if a.feed.Len() == 0 && a.cameraHub.ClientCount() == 0 {
		return
	}
	if !a.throttle.Allow(now) {
		return
	}
	jpeg, err := camera.EncodeJPEG(frame, a.camMgr.GetConfig().JPEGQuality)
	if err != nil {
		log.Warn("jpeg encode failed", "error", err)
		return
	}
	a.feed.Publish(jpeg)
	a.cameraHub.BroadcastBinary(jpeg)
}

// Detections returns the most recent detector output.
func (a *App) Detections() []detection.Detection {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]detection.Detection(nil), a.dets...)
}
