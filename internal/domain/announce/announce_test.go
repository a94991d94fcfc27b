package announce

import (
	"context"
	"errors"
	"testing"
	"time"

	"staffportal/internal/platform/docstore"
)

func waitFor(t *testing.T, feed *Feed, want func([]Announcement) bool) []Announcement {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case list, ok := <-feed.Snapshots():
			if !ok {
				t.Fatalf("feed closed while waiting: %v", feed.Err())
			}
			if want(list) {
				return list
			}
		case <-deadline:
			t.Fatal("timed out waiting for feed snapshot")
		}
	}
}

func TestNewSince(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2025, 6, 10, 9, 30, 0, 0, loc)

	cases := []struct {
		name      string
		createdAt time.Time
		want      bool
	}{
		{"same day earlier hour", time.Date(2025, 6, 10, 0, 5, 0, 0, loc), true},
		{"same day later hour", time.Date(2025, 6, 10, 23, 0, 0, 0, loc), true},
		{"yesterday", time.Date(2025, 6, 9, 23, 59, 0, 0, loc), false},
		{"last month", time.Date(2025, 5, 10, 9, 30, 0, 0, loc), false},
		{"utc instant on same local day", time.Date(2025, 6, 9, 20, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		if got := NewSince(tc.createdAt, now); got != tc.want {
			t.Errorf("%s: NewSince = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsNewFlipsAtDayBoundary(t *testing.T) {
	createdAt := time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)
	doc := docstore.Document{ID: "a1", Data: map[string]any{
		"title":     "Launch",
		"content":   "We shipped.",
		"createdAt": docstore.Timestamp(createdAt),
	}}

	sameDay := FromDocument(doc, time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC))
	if !sameDay.IsNew {
		t.Fatal("announcement created today must be new")
	}

	nextDay := FromDocument(doc, time.Date(2025, 6, 11, 0, 5, 0, 0, time.UTC))
	if nextDay.IsNew {
		t.Fatal("announcement must stop being new the next day")
	}
}

func TestFromDocumentDefaultsCreatedAt(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	doc := docstore.Document{ID: "a1", Data: map[string]any{"title": "T", "content": "C"}}
	a := FromDocument(doc, now)
	if !a.CreatedAt.Equal(now) {
		t.Fatalf("missing createdAt should fall back to now, got %v", a.CreatedAt)
	}
	if a.LastModifiedAt != nil {
		t.Fatal("missing lastModifiedAt must stay nil")
	}
}

func TestSaveRejectsEmptyFields(t *testing.T) {
	svc := NewService(docstore.NewMemory(), "apps/test/announcements")
	for _, pair := range [][2]string{{"", "body"}, {"title", ""}, {"  ", "  "}} {
		if _, err := svc.Save(context.Background(), Actor{}, pair[0], pair[1], ""); !errors.Is(err, ErrEmptyFields) {
			t.Fatalf("expected ErrEmptyFields for %q/%q, got %v", pair[0], pair[1], err)
		}
	}
}

func TestAnnouncementLifecycleThroughFeed(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	const col = "apps/test/announcements"
	svc := NewService(store, col)

	feed := Open(store, col, nil)
	defer feed.Stop()
	waitFor(t, feed, func(list []Announcement) bool { return len(list) == 0 })

	actor := Actor{UID: "admin-1", Name: "Admin"}
	id, err := svc.Save(ctx, actor, "Holiday", "Office closed Friday.", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	list := waitFor(t, feed, func(list []Announcement) bool { return len(list) == 1 })
	if list[0].ID != id || list[0].Title != "Holiday" || !list[0].IsNew {
		t.Fatalf("unexpected created announcement: %+v", list[0])
	}
	if list[0].LastModifiedByUID != "admin-1" || list[0].LastModifiedByName != "Admin" {
		t.Fatalf("author stamp missing: %+v", list[0])
	}

	if _, err := svc.Save(ctx, actor, "Holiday", "Office closed Friday and Monday.", id); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	list = waitFor(t, feed, func(list []Announcement) bool {
		return len(list) == 1 && list[0].Content == "Office closed Friday and Monday."
	})
	if list[0].LastModifiedAt == nil {
		t.Fatal("edit must stamp lastModifiedAt")
	}

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	waitFor(t, feed, func(list []Announcement) bool { return len(list) == 0 })
}

func TestFeedOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	const col = "apps/test/announcements"

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for i, title := range []string{"oldest", "middle", "newest"} {
		data := map[string]any{
			"title":     title,
			"content":   "c",
			"createdAt": docstore.Timestamp(base.Add(time.Duration(i) * time.Hour)),
		}
		if _, err := store.Add(ctx, col, data); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	feed := Open(store, col, nil)
	defer feed.Stop()
	list := waitFor(t, feed, func(list []Announcement) bool { return len(list) == 3 })
	if list[0].Title != "newest" || list[2].Title != "oldest" {
		t.Fatalf("wrong order: %s...%s", list[0].Title, list[2].Title)
	}
}
