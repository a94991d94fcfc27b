package streamhandler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"staffportal/internal/domain/announce"
	"staffportal/internal/domain/dashboard"
	"staffportal/internal/domain/directory"
	"staffportal/internal/domain/payments"
	"staffportal/internal/platform/docstore"
	"staffportal/internal/platform/metrics"
	"staffportal/internal/transport/http/api"
	"staffportal/internal/transport/http/middleware"
)

// Handler exposes the live feeds over server-sent events. Each connection
// owns exactly one subscription; closing the request tears it down.
type Handler struct {
	Docs        docstore.Store
	Collections dashboard.Collections
	PaymentsCol string
	Metrics     *metrics.Collector
}

func NewHandler(docs docstore.Store, cols dashboard.Collections, paymentsCol string, collector *metrics.Collector) *Handler {
	return &Handler{Docs: docs, Collections: cols, PaymentsCol: paymentsCol, Metrics: collector}
}

func (h *Handler) track() func() {
	if h.Metrics == nil {
		return func() {}
	}
	h.Metrics.StreamOpened()
	return h.Metrics.StreamClosed
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/stream/dashboard", h.HandleDashboard)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.Docs, h.Collections.Users))
		r.Get("/stream/announcements", h.HandleAnnouncements)
		r.Get("/stream/employees", h.HandleEmployees)
		r.Get("/stream/payments", h.HandlePayments)
	})
}

// HandleDashboard opens the role-appropriate feed: announcements for
// employees, the employee directory for admins. Never both.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ident, _ := middleware.GetIdentity(r.Context())
	isAdmin := middleware.IsAdmin(r.Context(), h.Docs, h.Collections.Users, ident.ID)

	defer h.track()()
	view := dashboard.Open(h.Docs, h.Collections, isAdmin, time.Now)
	defer view.Stop()

	if isAdmin {
		streamRecords(w, r, view.Employees.Snapshots(), view.Employees.Err)
		return
	}
	streamAnnouncements(w, r, view.Announcements.Snapshots(), view.Announcements.Err)
}

func (h *Handler) HandleAnnouncements(w http.ResponseWriter, r *http.Request) {
	defer h.track()()
	feed := announce.Open(h.Docs, h.Collections.Announcements, time.Now)
	defer feed.Stop()
	streamAnnouncements(w, r, feed.Snapshots(), feed.Err)
}

func (h *Handler) HandleEmployees(w http.ResponseWriter, r *http.Request) {
	defer h.track()()
	feed := directory.Open(h.Docs, h.Collections.Users)
	defer feed.Stop()
	streamRecords(w, r, feed.Snapshots(), feed.Err)
}

func (h *Handler) HandlePayments(w http.ResponseWriter, r *http.Request) {
	defer h.track()()
	feed := payments.Open(h.Docs, h.PaymentsCol)
	defer feed.Stop()
	streamPayments(w, r, feed.Snapshots(), feed.Err)
}

func streamAnnouncements(w http.ResponseWriter, r *http.Request, ch <-chan []announce.Announcement, errFn func() error) {
	flusher, ok := prepare(w, r)
	if !ok {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, open := <-ch:
			if !open {
				writeFailure(w, flusher, errFn())
				return
			}
			writeSnapshot(w, flusher, snapshot)
		}
	}
}

func streamRecords(w http.ResponseWriter, r *http.Request, ch <-chan []directory.Record, errFn func() error) {
	flusher, ok := prepare(w, r)
	if !ok {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, open := <-ch:
			if !open {
				writeFailure(w, flusher, errFn())
				return
			}
			writeSnapshot(w, flusher, snapshot)
		}
	}
}

func streamPayments(w http.ResponseWriter, r *http.Request, ch <-chan []payments.Record, errFn func() error) {
	flusher, ok := prepare(w, r)
	if !ok {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, open := <-ch:
			if !open {
				writeFailure(w, flusher, errFn())
				return
			}
			writeSnapshot(w, flusher, snapshot)
		}
	}
}

func prepare(w http.ResponseWriter, r *http.Request) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Fail(w, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return flusher, true
}

func writeSnapshot(w http.ResponseWriter, flusher http.Flusher, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
	flusher.Flush()
}

// writeFailure reports a terminal subscription error; the stream never
// recovers, matching the one-shot nature of the underlying subscription.
func writeFailure(w http.ResponseWriter, flusher http.Flusher, err error) {
	msg := "subscription closed"
	if err != nil {
		msg = err.Error()
	}
	fmt.Fprintf(w, "event: error\ndata: %q\n\n", msg)
	flusher.Flush()
}
