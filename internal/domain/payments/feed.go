package payments

import (
	"sync"

	"staffportal/internal/platform/docstore"
)

// Feed is the live payment ledger, most recent transaction first. Every
// event replaces the previous snapshot.
type Feed struct {
	sub *docstore.Subscription
	out chan []Record

	mu     sync.Mutex
	latest []Record
}

func Open(store docstore.Store, collection string) *Feed {
	f := &Feed{
		sub: store.Subscribe(docstore.Query{Collection: collection, OrderBy: "transactionDate", Descending: true}),
		out: make(chan []Record, 1),
	}
	go f.run()
	return f
}

func (f *Feed) run() {
	for docs := range f.sub.Snapshots() {
		records := MapDocuments(docs)
		f.mu.Lock()
		f.latest = records
		f.mu.Unlock()

		select {
		case <-f.out:
		default:
		}
		select {
		case f.out <- records:
		default:
		}
	}
	close(f.out)
}

func (f *Feed) Snapshots() <-chan []Record { return f.out }

func (f *Feed) Latest() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

func (f *Feed) Err() error { return f.sub.Err() }

func (f *Feed) Stop() { f.sub.Stop() }
