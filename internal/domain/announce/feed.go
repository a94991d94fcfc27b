package announce

import (
	"sync"
	"time"

	"staffportal/internal/platform/docstore"
)

// Feed is the live announcement list: one streaming subscription per feed,
// newest first, every event a full replacement. IsNew is recomputed on every
// snapshot against the then-current local day.
type Feed struct {
	sub *docstore.Subscription
	out chan []Announcement
	now func() time.Time

	mu     sync.Mutex
	latest []Announcement
}

func Open(store docstore.Store, collection string, now func() time.Time) *Feed {
	if now == nil {
		now = time.Now
	}
	f := &Feed{
		sub: store.Subscribe(docstore.Query{Collection: collection, OrderBy: "createdAt", Descending: true}),
		out: make(chan []Announcement, 1),
		now: now,
	}
	go f.run()
	return f
}

func (f *Feed) run() {
	for docs := range f.sub.Snapshots() {
		now := f.now()
		list := make([]Announcement, 0, len(docs))
		for _, doc := range docs {
			list = append(list, FromDocument(doc, now))
		}
		f.mu.Lock()
		f.latest = list
		f.mu.Unlock()

		select {
		case <-f.out:
		default:
		}
		select {
		case f.out <- list:
		default:
		}
	}
	close(f.out)
}

// Snapshots yields the latest mapped result set; the channel closes when the
// feed stops or the subscription fails terminally (check Err).
func (f *Feed) Snapshots() <-chan []Announcement { return f.out }

// Latest returns the most recently delivered snapshot.
func (f *Feed) Latest() []Announcement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

func (f *Feed) Err() error { return f.sub.Err() }

// Stop is idempotent and never reopens the subscription.
func (f *Feed) Stop() { f.sub.Stop() }
