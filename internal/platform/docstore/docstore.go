package docstore

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"
)

var ErrNotFound = errors.New("docstore: document not found")

// Document is one record of a collection. Data holds the free-form fields;
// the typed getters apply the defaulting rules once so callers never deal
// with missing keys.
type Document struct {
	ID   string
	Data map[string]any
}

func (d Document) String(key string) string {
	if v, ok := d.Data[key].(string); ok {
		return v
	}
	return ""
}

func (d Document) Float(key string) (float64, bool) {
	switch v := d.Data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Time reads a timestamp field. Timestamps are persisted as RFC 3339 strings
// (see Timestamp), but values written directly as time.Time are accepted too.
func (d Document) Time(key string) (time.Time, bool) {
	switch v := d.Data[key].(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// Timestamp is the canonical wire form for instants stored in documents.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Query names a collection and an optional ordering key for a streaming
// subscription.
type Query struct {
	Collection string
	OrderBy    string
	Descending bool
}

// Store is the document-store boundary: point reads and writes plus
// replace-semantics snapshot subscriptions. Writes are visible to consumers
// only through the next snapshot; no read-after-write guarantee is offered.
type Store interface {
	GetOne(ctx context.Context, collection, id string) (Document, error)
	CreateOrReplace(ctx context.Context, collection, id string, data map[string]any) error
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Subscribe(q Query) *Subscription
}

func sortDocuments(docs []Document, q Query) {
	if q.OrderBy == "" {
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
		return
	}
	sort.Slice(docs, func(i, j int) bool {
		less := compareField(docs[i], docs[j], q.OrderBy)
		if q.Descending {
			return !less
		}
		return less
	})
}

// compareField orders numerically when both values are numbers, otherwise as
// strings. RFC 3339 timestamp strings sort chronologically either way.
func compareField(a, b Document, key string) bool {
	af, aok := a.Float(key)
	bf, bok := b.Float(key)
	if aok && bok {
		return af < bf
	}
	return a.String(key) < b.String(key)
}
