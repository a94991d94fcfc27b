package docstore

import (
	"context"
	"sync"
)

type loadFunc func(ctx context.Context, collection string) ([]Document, error)

// hub fans collection snapshots out to subscribers. Every successful write
// triggers one reload of the touched collection; each matching subscriber
// then receives the full result set ordered per its own query.
type hub struct {
	load loadFunc

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func newHub(load loadFunc) *hub {
	return &hub{load: load, subs: make(map[*Subscription]struct{})}
}

func (h *hub) subscribe(q Query) *Subscription {
	s := &Subscription{q: q, hub: h, ch: make(chan []Document, 1)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	go h.refresh(q.Collection, []*Subscription{s})
	return s
}

func (h *hub) remove(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// notify is called by the store after every successful write.
func (h *hub) notify(collection string) {
	targets := h.subscribers(collection)
	if len(targets) == 0 {
		return
	}
	go h.refresh(collection, targets)
}

// rebroadcast re-emits the current snapshot of every subscribed collection.
// Used at the local day boundary so day-derived presentation fields are
// recomputed without any document changing.
func (h *hub) rebroadcast() {
	seen := make(map[string][]*Subscription)
	h.mu.Lock()
	for s := range h.subs {
		seen[s.q.Collection] = append(seen[s.q.Collection], s)
	}
	h.mu.Unlock()

	for collection, targets := range seen {
		go h.refresh(collection, targets)
	}
}

func (h *hub) subscribers(collection string) []*Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	var targets []*Subscription
	for s := range h.subs {
		if s.q.Collection == collection {
			targets = append(targets, s)
		}
	}
	return targets
}

func (h *hub) refresh(collection string, targets []*Subscription) {
	docs, err := h.load(context.Background(), collection)
	for _, s := range targets {
		if err != nil {
			s.fail(err)
			continue
		}
		snapshot := make([]Document, len(docs))
		copy(snapshot, docs)
		sortDocuments(snapshot, s.q)
		s.deliver(snapshot)
	}
}

// Subscription is a single streaming query. Snapshots are delivered through a
// single-slot channel with most-recent-wins semantics: a consumer that falls
// behind sees only the latest result set. A load failure is terminal; the
// channel closes and Err reports the cause.
type Subscription struct {
	q   Query
	hub *hub
	ch  chan []Document

	mu      sync.Mutex
	err     error
	stopped bool
	closed  bool
}

func (s *Subscription) Snapshots() <-chan []Document { return s.ch }

func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop tears the subscription down. Safe to call more than once; never
// reopens the stream.
func (s *Subscription) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.hub.remove(s)
	s.closeLocked()
}

func (s *Subscription) deliver(docs []Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.closed {
		return
	}
	// Replace any undelivered snapshot rather than queueing behind it.
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- docs:
	default:
	}
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.closed {
		return
	}
	s.err = err
	s.hub.remove(s)
	s.closeLocked()
}

func (s *Subscription) closeLocked() {
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
