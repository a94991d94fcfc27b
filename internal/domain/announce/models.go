package announce

import (
	"time"

	"staffportal/internal/platform/docstore"
)

type Announcement struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Content            string     `json:"content"`
	CreatedAt          time.Time  `json:"createdAt"`
	LastModifiedAt     *time.Time `json:"lastModifiedAt,omitempty"`
	LastModifiedByUID  string     `json:"lastModifiedByUid,omitempty"`
	LastModifiedByName string     `json:"lastModifiedByName,omitempty"`
	IsNew              bool       `json:"isNew"`
}

// FromDocument maps a raw document to the typed view model, applying the
// defaulting rules once. A missing creation instant falls back to the
// evaluation time; a missing modification instant stays nil.
func FromDocument(doc docstore.Document, now time.Time) Announcement {
	createdAt, ok := doc.Time("createdAt")
	if !ok {
		createdAt = now
	}
	var lastModified *time.Time
	if t, ok := doc.Time("lastModifiedAt"); ok {
		lastModified = &t
	}
	return Announcement{
		ID:                 doc.ID,
		Title:              doc.String("title"),
		Content:            doc.String("content"),
		CreatedAt:          createdAt,
		LastModifiedAt:     lastModified,
		LastModifiedByUID:  doc.String("lastModifiedByUid"),
		LastModifiedByName: doc.String("lastModifiedByName"),
		IsNew:              NewSince(createdAt, now),
	}
}

// NewSince reports whether the creation calendar day is on or after the
// evaluation calendar day, both taken in the evaluation time's location.
// Not persisted: the same record evaluated on a later day stops being new.
func NewSince(createdAt, now time.Time) bool {
	created := createdAt.In(now.Location())
	createdDay := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !createdDay.Before(today)
}
