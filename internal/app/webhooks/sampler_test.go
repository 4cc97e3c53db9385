package webhooks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/livevlm/vlm-relay/internal/domain"
)

func TestSampler_Take(t *testing.T) {
	s := newSampler()

	// every <= 1 disables sampling
	for i := 0; i < 5; i++ {
		assert.True(t, s.Take("cam-1", domain.EventKindSingle, 1))
		assert.True(t, s.Take("cam-1", domain.EventKindSingle, 0))
	}
}

func TestSampler_TakeEveryNth(t *testing.T) {
	s := newSampler()

	var taken []bool
	for i := 0; i < 7; i++ {
		taken = append(taken, s.Take("cam-1", domain.EventKindSingle, 3))
	}

	assert.Equal(t, []bool{true, false, false, true, false, false, true}, taken)
}

func TestSampler_IndependentCounters(t *testing.T) {
	s := newSampler()

	assert.True(t, s.Take("cam-1", domain.EventKindSingle, 2))
	assert.False(t, s.Take("cam-1", domain.EventKindSingle, 2))

	// other streams and kinds start with their own counter
	assert.True(t, s.Take("cam-2", domain.EventKindSingle, 2))
	assert.True(t, s.Take("cam-1", domain.EventKindMulti, 2))

	assert.True(t, s.Take("cam-1", domain.EventKindSingle, 2))
}
