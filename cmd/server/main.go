package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pairup/backend/internal/bootstrap"
	"github.com/pairup/backend/internal/cache"
	"github.com/pairup/backend/internal/config"
	"github.com/pairup/backend/internal/handlers"
	"github.com/pairup/backend/internal/logger"
	"github.com/pairup/backend/internal/metrics"
	appMiddleware "github.com/pairup/backend/internal/middleware"
	"github.com/pairup/backend/internal/services"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(&logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		logger.InitDefault()
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("pairup-api", reg)

	// Firebase app: ID-token verification, user admin and the Firestore client.
	var authClient *auth.Client
	fbApp, err := appMiddleware.NewFirebaseApp(ctx, bootstrap.FirebaseConfig(cfg))
	if err != nil {
		logger.Warn("Firebase unavailable", zap.Error(err))
	} else if authClient, err = appMiddleware.NewFirebaseAuthClient(ctx, fbApp); err != nil {
		logger.Warn("Firebase Auth unavailable", zap.Error(err))
	}

	st, err := bootstrap.OpenStore(ctx, cfg, fbApp, m)
	if err != nil {
		logger.Fatal("Failed to open document store", zap.Error(err))
	}
	defer st.Close()

	var profileCache services.ProfileCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Redis unreachable; public profiles will not be cached", zap.Error(err))
		} else {
			profileCache = cache.NewPublicProfileCache(rdb, cfg.PublicProfileCacheTTL)
		}
		cancel()
	}

	// Services
	profileService := services.NewProfileService(st, profileCache, m)
	eventService := services.NewEventService(st)

	var mailer services.InviteMailer
	if cfg.SendGridAPIKey != "" {
		mailer = services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.InviteFromEmail)
	}
	inviteService := services.NewInviteService(st, mailer, m, services.InviteServiceConfig{
		CodeLength: cfg.InviteCodeLength,
		TTL:        time.Duration(cfg.InviteTTLDays) * 24 * time.Hour,
		AppBaseURL: cfg.AppBaseURL,
	})

	authDeps := services.AuthDeps{
		Passwords: services.NewIdentityToolkit(cfg.FirebaseAPIKey),
		Profiles:  profileService,
		Events:    eventService,
		Store:     st,
		Metrics:   m,
	}
	if authClient != nil {
		authDeps.Admin = authClient
	}
	if cfg.RecaptchaSecret != "" {
		bot := services.NewRecaptchaVerifier(cfg.RecaptchaSecret)
		bot.Hostname = cfg.RecaptchaHostname
		authDeps.Bot = bot
	}
	authService := services.NewAuthService(authDeps)
	defer authService.Close()

	var photoService *services.PhotoService
	photos, err := bootstrap.NewPhotoPipeline(ctx, cfg, st, profileService)
	if err != nil {
		logger.Warn("Photo pipeline unavailable", zap.Error(err))
	} else if photos != nil {
		defer photos.Close()
		photoService = photos.Service
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	accountHandler := handlers.NewAccountHandler(authService)
	profileHandler := handlers.NewProfileHandler(profileService)
	photoHandler := handlers.NewPhotoHandler(photoService, cfg.MaxUploadSizeMB)
	eventHandler := handlers.NewEventHandler(eventService, inviteService)
	inviteHandler := handlers.NewInviteHandler(inviteService)
	webHandler := handlers.NewWebHandler(cfg.WebDir)

	requireAuth := appMiddleware.FirebaseAuth(nil)
	if cfg.AuthMode == "jwt" {
		logger.Warn("AUTH_MODE=jwt: accepting locally signed tokens")
		requireAuth = appMiddleware.JWTAuth(cfg.JWTSecret)
	} else if authClient != nil {
		requireAuth = appMiddleware.FirebaseAuth(authClient)
	}

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appMiddleware.RequestLogger)
	r.Use(appMiddleware.Recovery)
	r.Use(appMiddleware.Prometheus(m))
	r.Use(handlers.RedirectShim)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.SignUp)
		r.Post("/auth/signin", authHandler.SignIn)
		r.Post("/auth/password-reset", authHandler.PasswordReset)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/auth/signout", authHandler.SignOut)
			r.Delete("/account", accountHandler.DeleteAccount)

			r.Route("/users/{userId}", func(r chi.Router) {
				r.Get("/private", profileHandler.GetPrivate)
				r.Post("/private", profileHandler.CreatePrivate)
				r.Put("/private", profileHandler.SavePrivate)
				r.Get("/public", profileHandler.GetPublic)
				r.Post("/public", profileHandler.CreatePublic)
				r.Put("/public", profileHandler.SavePublic)
				r.Patch("/", profileHandler.SaveUpdates)
			})
			r.Get("/profiles/{userId}", profileHandler.GetPublicProfile)
			r.Post("/profile/photo", photoHandler.UploadProfilePhoto)

			r.Route("/events", func(r chi.Router) {
				r.Post("/", eventHandler.CreateDraft)
				r.Get("/", eventHandler.List)
				r.Get("/draft", eventHandler.GetDraft)

				r.Route("/{eventId}", func(r chi.Router) {
					r.Patch("/", eventHandler.Update)
					r.Delete("/", eventHandler.Delete)
					r.Post("/preview", eventHandler.ApplyPreview)
					r.Get("/chat", eventHandler.GetChat)
					r.Post("/chat", eventHandler.PostChat)
					r.Post("/invites", eventHandler.CreateInvite)
				})
			})

			r.Route("/invites/{code}", func(r chi.Router) {
				r.Get("/", inviteHandler.Get)
				r.Post("/redeem", inviteHandler.Redeem)
				r.Post("/email", inviteHandler.SendEmail)
			})
		})
	})

	// Web app
	webHandler.Mount(r)

	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("PairUp API server starting", zap.String("addr", cfg.ServerAddress), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
}
