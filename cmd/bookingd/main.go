// Command bookingd runs the HCMUT room booking API server.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/application"
	"github.com/nguyen2966/hcmut-rooms-booking/internal/config"
	httptransport "github.com/nguyen2966/hcmut-rooms-booking/internal/http"
	"github.com/nguyen2966/hcmut-rooms-booking/internal/obs"
	"github.com/nguyen2966/hcmut-rooms-booking/internal/persistence/sqlite"
	"github.com/nguyen2966/hcmut-rooms-booking/internal/stream"
	"github.com/nguyen2966/hcmut-rooms-booking/internal/token"
)

// Populated through -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

const (
	policyCacheTTL         = 30 * time.Second
	sessionCleanupInterval = time.Hour
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("failed to load timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	tokenManager, err := token.NewManager(cfg.JWTSecret, cfg.AccessTTL)
	if err != nil {
		logger.Error("failed to build token manager", "error", err)
		os.Exit(1)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	userRepo := newUserStoreAdapter(sqlite.NewUserRepository(storage))
	roomRepo := newRoomStoreAdapter(sqlite.NewRoomRepository(storage))
	deviceRepo := newDeviceStoreAdapter(sqlite.NewDeviceRepository(storage))
	bookingRepo := newBookingStoreAdapter(sqlite.NewBookingRepository(storage))
	feedbackRepo := newFeedbackStoreAdapter(sqlite.NewFeedbackRepository(storage))
	configRepo := newConfigStoreAdapter(sqlite.NewConfigRepository(storage))
	sessionRepo := newSessionStoreAdapter(sqlite.NewSessionRepository(storage))
	credentialStore := newCredentialStoreAdapter(sqlite.NewUserRepository(storage))

	hub := stream.NewHub(logger)
	defer hub.Close()

	policyService := application.NewPolicyService(configRepo, location, now, policyCacheTTL, logger)
	userService := application.NewUserService(userRepo, nil, idGenerator, now, logger)
	roomService := application.NewRoomService(roomRepo, deviceRepo, idGenerator, now, logger)
	deviceService := application.NewDeviceService(deviceRepo, roomRepo, idGenerator, now, logger)
	bookingService := application.NewBookingService(bookingRepo, roomRepo, policyService, hub, idGenerator, now, logger)
	feedbackService := application.NewFeedbackService(feedbackRepo, bookingRepo, idGenerator, now, logger)
	configService := application.NewConfigService(configRepo, policyService, now, logger)
	authService := application.NewAuthService(credentialStore, sessionRepo, tokenManager, nil, idGenerator, tokenGenerator, now, cfg.SessionTTL, logger)

	meteredBookings := newMeteredBookingService(bookingService)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:     httptransport.NewAuthHandler(authService, logger),
		Users:    httptransport.NewUserHandler(userService, logger),
		Rooms:    httptransport.NewRoomHandler(roomService, feedbackService, bookingService, logger),
		Bookings: httptransport.NewBookingHandler(meteredBookings, logger),
		Devices:  httptransport.NewDeviceHandler(deviceService, logger),
		Feedback: httptransport.NewFeedbackHandler(feedbackService, logger),
		Config:   httptransport.NewConfigHandler(configService, logger),
		Stream:   stream.NewHandler(hub, logger),
		Metrics:  obs.Handler(),
		Health:   healthHandler(storage),
	})

	protected := httptransport.RequireAccessToken(tokenManager, logger)(router)
	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicRoute(r) {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	})
	handler := httptransport.RequestLogger(logger)(obs.Instrument(root))

	go cleanupExpiredSessions(ctx, sessionRepo, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("booking API listening", "addr", server.Addr, "version", version)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// isPublicRoute lists the endpoints reachable without an access token:
// the auth endpoints, self-registration and the operational probes. Logout
// belongs here because it authenticates through the refresh credential in
// its body; a client whose access token already expired must still be able
// to revoke its session. The WebSocket stream stays protected; browser
// clients pass the token as a query parameter.
func isPublicRoute(r *http.Request) bool {
	switch r.URL.Path {
	case "/auth/login", "/auth/refresh-token", "/auth/logout":
		return r.Method == http.MethodPost
	case "/users":
		return r.Method == http.MethodPost
	case "/healthz", "/metrics":
		return r.Method == http.MethodGet
	}
	return false
}

func healthHandler(storage *sqlite.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := storage.Ping(ctx); err != nil {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// cleanupExpiredSessions periodically deletes refresh sessions past their
// expiry so the sessions table does not grow without bound.
func cleanupExpiredSessions(ctx context.Context, sessions application.SessionRepository, logger *slog.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sessions.DeleteExpiredSessions(ctx, time.Now().UTC()); err != nil {
				logger.Warn("failed to delete expired sessions", "error", err)
			}
		}
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
