package rover

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameFeedKeepsLatest(t *testing.T) {
	f := NewFrameFeed()
	id, ch := f.Subscribe()
	assert.Equal(t, 1, f.Len())

	f.Publish([]byte("one"))
	f.Publish([]byte("two"))
	assert.Equal(t, []byte("two"), <-ch)

	f.Unsubscribe(id)
	_, ok := <-ch
	assert.False(t, ok, "channel closed after unsubscribe")
	assert.Equal(t, 0, f.Len())

	// Unknown ids are ignored.
	f.Unsubscribe(id)
}

func TestFrameFeedFanOut(t *testing.T) {
	f := NewFrameFeed()
	_, a := f.Subscribe()
	_, b := f.Subscribe()

	f.Publish([]byte("frame"))
	assert.Equal(t, []byte("frame"), <-a)
	assert.Equal(t, []byte("frame"), <-b)

	f.Close()
	_, okA := <-a
	_, okB := <-b
	assert.False(t, okA)
	assert.False(t, okB)
}
