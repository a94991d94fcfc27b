package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"staffportal/internal/domain/announce"
	"staffportal/internal/domain/dashboard"
	"staffportal/internal/domain/directory"
	"staffportal/internal/domain/notice"
	"staffportal/internal/domain/profile"
	"staffportal/internal/platform/authsvc"
	"staffportal/internal/platform/blobstore"
	"staffportal/internal/platform/config"
	"staffportal/internal/platform/db"
	"staffportal/internal/platform/docstore"
	"staffportal/internal/platform/email"
	"staffportal/internal/platform/jobs"
	"staffportal/internal/platform/logging"
	"staffportal/internal/platform/metrics"
	announcehandler "staffportal/internal/transport/http/handlers/announce"
	authhandler "staffportal/internal/transport/http/handlers/auth"
	directoryhandler "staffportal/internal/transport/http/handlers/directory"
	paymentshandler "staffportal/internal/transport/http/handlers/payments"
	profilehandler "staffportal/internal/transport/http/handlers/profile"
	streamhandler "staffportal/internal/transport/http/handlers/stream"
	"staffportal/internal/transport/http/middleware"
)

// Run wires the full application and serves until the process exits.
func Run() {
	cfg := config.Load()
	log := logging.New(cfg.Environment)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer pool.Close()

	store := docstore.NewPostgres(pool)
	registry := authsvc.NewPostgresRegistry(pool)
	if cfg.RunSchema {
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("document schema setup failed")
		}
		if err := registry.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("identity schema setup failed")
		}
	}

	mailer := email.New(cfg)
	svc := authsvc.New(registry, cfg.JWTSecret, mailer, cfg.EmailFrom)
	blobs := blobstore.NewFS(cfg.UploadDir, cfg.FilesBaseURL)

	if err := db.Seed(ctx, svc, store, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}

	scheduler, err := jobs.New(store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("job scheduler setup failed")
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := buildRouter(cfg, log, pool.Ping, store, svc, blobs)

	log.Info().Str("addr", cfg.Addr).Msg("portal server listening")
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func buildRouter(
	cfg config.Config,
	log zerolog.Logger,
	ping func(context.Context) error,
	store docstore.Store,
	svc *authsvc.Service,
	blobs *blobstore.FS,
) http.Handler {
	usersCol := cfg.UsersCollection()
	announceCol := cfg.AnnouncementsCollection()
	paymentsCol := cfg.PaymentsCollection()

	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log, collector))
	router.Use(middleware.Recoverer(log))
	router.Use(middleware.Auth(svc))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Get("/metricsz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(collector.Snapshot())
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(svc, store, usersCol, cfg.SessionTTL, cfg.InitialAuthToken, log).RegisterRoutes(r)

		announceSvc := announce.NewService(store, announceCol)
		announcehandler.NewHandler(store, announceSvc, announceCol, usersCol).RegisterRoutes(r)

		coordinator := directory.NewCoordinator(store, svc, usersCol, log)
		alerts := notice.NewCenter(cfg.AlertTTL)
		directoryhandler.NewHandler(store, coordinator, usersCol, alerts).RegisterRoutes(r)

		paymentshandler.NewHandler(store, paymentsCol, usersCol).RegisterRoutes(r)

		profileSvc := profile.NewService(store, blobs, usersCol)
		profilehandler.NewHandler(profileSvc, store, usersCol).RegisterRoutes(r)

		cols := dashboard.Collections{Announcements: announceCol, Users: usersCol}
		streamhandler.NewHandler(store, cols, paymentsCol, collector).RegisterRoutes(r)
	})

	router.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(blobs.Root()))))

	return router
}
