package document

import (
	"context"
	"sync"

	"github.com/georgemunganga/qrpay/internal/metrics"
)

// hub fans snapshots out to the subscribers of a path.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[*subscriber]struct{})}
}

// subscriber owns an unbounded FIFO drained by its own goroutine, so a slow reader
// never blocks publishers and never loses or reorders snapshots.
type subscriber struct {
	mu     sync.Mutex
	queue  []Snapshot
	signal chan struct{}
	out    chan Snapshot
	cancel context.CancelFunc
}

func (h *hub) subscribe(parent context.Context, path string) *subscriber {
	ctx, cancel := context.WithCancel(parent)
	sub := &subscriber{
		signal: make(chan struct{}, 1),
		out:    make(chan Snapshot),
		cancel: cancel,
	}

	h.mu.Lock()
	if h.subs[path] == nil {
		h.subs[path] = make(map[*subscriber]struct{})
	}
	h.subs[path][sub] = struct{}{}
	h.mu.Unlock()
	metrics.ActiveSubscriptions.Inc()

	go sub.run(ctx, func() {
		h.mu.Lock()
		delete(h.subs[path], sub)
		if len(h.subs[path]) == 0 {
			delete(h.subs, path)
		}
		h.mu.Unlock()
		metrics.ActiveSubscriptions.Dec()
	})
	return sub
}

func (h *hub) publish(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[snap.Path] {
		sub.push(snap)
	}
}

// paths lists every path with at least one subscriber.
func (h *hub) paths() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.subs))
	for p := range h.subs {
		out = append(out, p)
	}
	return out
}

func (s *subscriber) push(snap Snapshot) {
	snap.Fields = cloneFields(snap.Fields)
	s.mu.Lock()
	s.queue = append(s.queue, snap)
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber) next() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Snapshot{}, false
	}
	snap := s.queue[0]
	s.queue[0] = Snapshot{}
	s.queue = s.queue[1:]
	return snap, true
}

func (s *subscriber) run(ctx context.Context, release func()) {
	defer close(s.out)
	defer release()
	defer s.cancel()

	var last int64
	for {
		snap, ok := s.next()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-s.signal:
				continue
			}
		}
		// Versions only grow, so anything not newer was already delivered.
		if snap.Version <= last {
			continue
		}
		select {
		case s.out <- snap:
			last = snap.Version
		case <-ctx.Done():
			return
		}
	}
}
