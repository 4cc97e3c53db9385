package webhooks

import (
	"sync"

	"github.com/livevlm/vlm-relay/internal/domain"
)

type samplerKey struct {
	stream domain.StreamIdentifier
	kind   domain.EventKind
}

// sampler thins the event flow down to every n-th event. Counters are kept per
// stream and kind so that a busy stream does not starve the others.
type sampler struct {
	mu   sync.Mutex
	seen map[samplerKey]uint64
}

func newSampler() *sampler {
	return &sampler{
		seen: make(map[samplerKey]uint64),
	}
}

// Take reports whether the current event passes the sampling gate. The first
// event of every (stream, kind) pair always passes.
func (s *sampler) Take(stream domain.StreamIdentifier, kind domain.EventKind, every int) bool {
	if every <= 1 {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := samplerKey{stream: stream, kind: kind}
	n := s.seen[key]
	s.seen[key] = n + 1

	return n%uint64(every) == 0
}
