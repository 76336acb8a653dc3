package rover

import (
	"sync"

	"github.com/google/uuid"
)

// FrameFeed fans encoded JPEG frames out to MJPEG subscribers. Each
// subscriber holds at most one pending frame; a slow reader skips frames
// instead of delaying the camera loop.
type FrameFeed struct {
	mu   sync.Mutex
	subs map[string]chan []byte
}

// NewFrameFeed creates an empty feed.
func NewFrameFeed() *FrameFeed {
	return &FrameFeed{subs: make(map[string]chan []byte)}
}

// Subscribe registers a reader. The channel is closed by Unsubscribe or Close.
func (f *FrameFeed) Subscribe() (string, <-chan []byte) {
	id := uuid.NewString()
	ch := make(chan []byte, 1)
	f.mu.Lock()
	f.subs[id] = ch
	f.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a reader.
func (f *FrameFeed) Unsubscribe(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(ch)
	}
}

// Len returns the number of subscribers.
func (f *FrameFeed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Publish hands frame to every subscriber, replacing any frame still
// waiting to be read.
func (f *FrameFeed) Publish(frame []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- frame:
			continue
		default:
		}
		// Drop the stale frame, then retry once.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- frame:
		default:
		}
	}
}

// Close disconnects every subscriber.
func (f *FrameFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}
