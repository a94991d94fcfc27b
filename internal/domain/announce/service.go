package announce

import (
	"context"
	"errors"
	"strings"
	"time"

	"staffportal/internal/platform/docstore"
)

var ErrEmptyFields = errors.New("announce: title and content cannot be empty")

// Actor identifies who performed a mutation, stamped on the record.
type Actor struct {
	UID  string
	Name string
}

type Service struct {
	docs       docstore.Store
	collection string
	now        func() time.Time
}

func NewService(docs docstore.Store, collection string) *Service {
	return &Service{docs: docs, collection: collection, now: time.Now}
}

// Save creates a new announcement or updates an existing one when editingID
// is set. lastModifiedAt/By are stamped on every save; createdAt only on
// create. The caller observes the result through the next feed snapshot.
func (s *Service) Save(ctx context.Context, actor Actor, title, content, editingID string) (string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return "", ErrEmptyFields
	}
	if actor.UID == "" {
		actor.UID = "unknown"
	}
	if actor.Name == "" {
		actor.Name = "Unknown"
	}

	data := map[string]any{
		"title":              title,
		"content":            content,
		"lastModifiedAt":     docstore.Timestamp(s.now()),
		"lastModifiedByUid":  actor.UID,
		"lastModifiedByName": actor.Name,
	}
	if editingID != "" {
		return editingID, s.docs.Update(ctx, s.collection, editingID, data)
	}
	data["createdAt"] = docstore.Timestamp(s.now())
	return s.docs.Add(ctx, s.collection, data)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, s.collection, id)
}
