package paymentshandler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"staffportal/internal/domain/payments"
	"staffportal/internal/platform/docstore"
	"staffportal/internal/transport/http/api"
	"staffportal/internal/transport/http/middleware"
)

type Handler struct {
	Docs       docstore.Store
	Collection string
	UsersCol   string
}

func NewHandler(docs docstore.Store, collection, usersCol string) *Handler {
	return &Handler{Docs: docs, Collection: collection, UsersCol: usersCol}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.Docs, h.UsersCol))
		r.Get("/payments", h.HandleList)
		r.Get("/payments/statement", h.HandleStatement)
	})
}

func (h *Handler) load(r *http.Request) ([]payments.Record, error) {
	docs, err := docstore.Collect(r.Context(), h.Docs, docstore.Query{
		Collection: h.Collection,
		OrderBy:    "transactionDate",
		Descending: true,
	})
	if err != nil {
		return nil, err
	}
	return payments.Filter(payments.MapDocuments(docs), r.URL.Query().Get("search")), nil
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	records, err := h.load(r)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "could not load payments", reqID)
		return
	}
	api.Success(w, records, reqID)
}

// HandleStatement streams the current (optionally filtered) ledger as a PDF.
func (h *Handler) HandleStatement(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	records, err := h.load(r)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "could not load payments", reqID)
		return
	}

	data, err := payments.Statement(records, time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "statement_failed", "could not render statement", reqID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payment-statement-%s.pdf", time.Now().Format("2006-01-02")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
