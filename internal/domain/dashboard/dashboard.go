package dashboard

import (
	"time"

	"staffportal/internal/domain/announce"
	"staffportal/internal/domain/directory"
	"staffportal/internal/platform/docstore"
)

// Collections names the stores the dashboard can draw from.
type Collections struct {
	Announcements string
	Users         string
}

// View is the role-shaped dashboard: exactly one of the two feeds is open.
// Employees watch announcements; admins watch the employee directory.
type View struct {
	Announcements *announce.Feed
	Employees     *directory.Feed
}

func Open(store docstore.Store, cols Collections, isAdmin bool, now func() time.Time) *View {
	v := &View{}
	if isAdmin {
		v.Employees = directory.Open(store, cols.Users)
	} else {
		v.Announcements = announce.Open(store, cols.Announcements, now)
	}
	return v
}

func (v *View) Stop() {
	if v.Announcements != nil {
		v.Announcements.Stop()
	}
	if v.Employees != nil {
		v.Employees.Stop()
	}
}

// Greeting returns the time-of-day salutation shown on the dashboard.
func Greeting(now time.Time) string {
	switch hour := now.Hour(); {
	case hour < 12:
		return "Good Morning"
	case hour < 15:
		return "Good Afternoon"
	default:
		return "Good Evening"
	}
}
