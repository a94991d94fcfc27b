package authhandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"staffportal/internal/domain/session"
	"staffportal/internal/platform/authsvc"
	"staffportal/internal/platform/docstore"
	"staffportal/internal/transport/http/api"
	"staffportal/internal/transport/http/middleware"
)

type Handler struct {
	Svc      *authsvc.Service
	Docs     docstore.Store
	UsersCol string
	TokenTTL time.Duration

	// InitialToken is the environment-provided sign-in token, used when a
	// token login request carries none of its own.
	InitialToken string

	Log zerolog.Logger
}

func NewHandler(svc *authsvc.Service, docs docstore.Store, usersCol string, tokenTTL time.Duration, initialToken string, log zerolog.Logger) *Handler {
	return &Handler{Svc: svc, Docs: docs, UsersCol: usersCol, TokenTTL: tokenTTL, InitialToken: initialToken, Log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/guest", h.HandleGuestLogin)
	r.Post("/auth/logout", h.HandleLogout)
	r.Post("/auth/request-reset", h.HandleRequestReset)
	r.Post("/auth/token", h.HandleTokenLogin)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type sessionResponse struct {
	Token   string         `json:"token"`
	IsAdmin bool           `json:"isAdmin"`
	Profile map[string]any `json:"profile"`
}

// newStore builds a fresh session store bound to its own auth session. Each
// request gets one; the resulting state is flattened into the response and
// the bearer token carries the identity forward.
func (h *Handler) newStore(initialToken string) *session.Store {
	auth := h.Svc.NewSession()
	return session.New(h.Svc, auth, h.Docs, h.UsersCol, initialToken, h.Log)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	store := h.newStore("")
	store.Start(r.Context())
	defer store.Stop()

	if res := store.Login(r.Context(), payload.Email, payload.Password); !res.Success {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", res.Error, reqID)
		return
	}
	h.respondSession(w, r, store, reqID)
}

func (h *Handler) HandleGuestLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	store := h.newStore("")
	store.Start(r.Context())
	defer store.Stop()

	if res := store.GuestLogin(r.Context()); !res.Success {
		api.Fail(w, http.StatusInternalServerError, "guest_login_failed", res.Error, reqID)
		return
	}
	h.respondSession(w, r, store, reqID)
}

// HandleTokenLogin signs in with a one-time token, the path taken when the
// environment hands the app a pre-issued credential.
func (h *Handler) HandleTokenLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	token := payload.Token
	if token == "" {
		token = h.InitialToken
	}
	if token == "" {
		api.Fail(w, http.StatusBadRequest, "missing_token", "no sign-in token provided", reqID)
		return
	}

	store := h.newStore(token)
	store.Start(r.Context())
	defer store.Stop()

	if msg := store.AuthError(); msg != "" || store.Current() == nil {
		if msg == "" {
			msg = "Automatic login failed with provided token."
		}
		api.Fail(w, http.StatusUnauthorized, "invalid_token", msg, reqID)
		return
	}
	h.respondSession(w, r, store, reqID)
}

// HandleLogout is a formality with bearer tokens; the client discards its
// token. Kept as an endpoint so sign-out is an explicit, loggable act.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if ident, ok := middleware.GetIdentity(r.Context()); ok {
		h.Log.Info().Str("userId", ident.ID).Msg("user signed out")
	}
	api.Success(w, map[string]string{"status": "signed out"}, reqID)
}

func (h *Handler) HandleRequestReset(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload resetRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	store := h.newStore("")
	res := store.RequestPasswordReset(r.Context(), payload.Email)
	if !res.Success {
		api.Fail(w, http.StatusBadRequest, "reset_failed", res.Error, reqID)
		return
	}
	api.Success(w, map[string]string{"message": res.Message}, reqID)
}

func (h *Handler) respondSession(w http.ResponseWriter, r *http.Request, store *session.Store, reqID string) {
	ident := store.Current()
	if ident == nil {
		api.Fail(w, http.StatusInternalServerError, "session_missing", "session did not resolve", reqID)
		return
	}
	if msg := store.AuthError(); msg != "" {
		api.Fail(w, http.StatusInternalServerError, "profile_load_failed", msg, reqID)
		return
	}

	token, err := h.Svc.SessionToken(ident.ID, h.TokenTTL)
	if err != nil {
		h.Log.Error().Err(err).Msg("session token mint failed")
		api.Fail(w, http.StatusInternalServerError, "token_mint_failed", "could not create session token", reqID)
		return
	}
	api.Success(w, sessionResponse{Token: token, IsAdmin: store.IsAdmin(), Profile: store.Profile()}, reqID)
}
