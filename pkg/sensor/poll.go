package sensor

import (
	"context"
	"time"
)

// Poll calls fn every interval until ctx is cancelled. The first call happens
// immediately so a fresh reading is available as soon as the loop starts.
func Poll(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fn()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
