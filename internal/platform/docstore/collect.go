package docstore

import "context"

// Collect performs a one-shot read of a query by taking the first snapshot of
// a short-lived subscription. List reads share the subscription path so every
// consumer sees the same ordering and replace semantics.
func Collect(ctx context.Context, s Store, q Query) ([]Document, error) {
	sub := s.Subscribe(q)
	defer sub.Stop()

	select {
	case docs, ok := <-sub.Snapshots():
		if !ok {
			return nil, sub.Err()
		}
		return docs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
