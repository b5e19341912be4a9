package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/northfield/backend/internal/config"
	"github.com/northfield/backend/internal/handler"
	"github.com/northfield/backend/internal/logging"
	"github.com/northfield/backend/internal/notify"
	"github.com/northfield/backend/internal/ratelimit"
	"github.com/northfield/backend/internal/repository"
	"github.com/northfield/backend/internal/service"
	"github.com/northfield/backend/pkg/resend"
	"github.com/northfield/backend/pkg/sheets"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Setup("INFO", nil)
		logging.Fatal("invalid configuration", "error", err)
	}
	logging.Setup(cfg.LogLevel, nil)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	limiter, closeLimiter := newLimiter(ctx, cfg)
	defer closeLimiter()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logging.Fatal("failed to connect to database", "error", err)
		}
		defer pool.Close()
	}

	failures, closeFailures := newFailureRecorder(ctx, cfg)
	defer closeFailures()

	verifier := service.NewBotVerifier(service.BotDefenseConfig{
		SiteKey:   cfg.RecaptchaSiteKey,
		SecretKey: cfg.RecaptchaSecretKey,
		MinScore:  cfg.RecaptchaMinScore,
	}, nil)
	mailer := resend.NewClient(cfg.ResendAPIKey, cfg.MailFrom, cfg.MailRatePerSecond)
	records := newRecordStore(ctx, cfg, pool)

	newDispatcher := func(route, rawPolicy string) *notify.Dispatcher {
		policy, err := notify.ParsePolicy(rawPolicy)
		if err != nil {
			logging.Fatal("invalid dispatch policy", "route", route, "error", err)
		}
		opts := []notify.Option{
			notify.WithEssential(&notify.OwnerEmail{Mailer: mailer, To: cfg.OwnerEmail}),
			notify.WithEssential(&notify.SubmitterConfirmation{Mailer: mailer, Business: cfg.BusinessName, ReplyTo: cfg.OwnerEmail}),
			notify.WithTimeout(cfg.ChannelTimeout),
		}
		if records != nil {
			opts = append(opts, notify.WithOptional(&notify.RecordLog{Store: records}))
		}
		if cfg.WebhookURL != "" {
			opts = append(opts, notify.WithOptional(&notify.Webhook{URL: cfg.WebhookURL}))
		}
		if failures != nil {
			opts = append(opts, notify.WithFailureRecorder(failures))
		}
		d := notify.NewDispatcher(policy, opts...)
		if err := d.Preflight(); err != nil {
			slog.Warn("notification channels not ready; submissions will be refused", "route", route, "error", err)
		}
		slog.Info("dispatcher ready", "route", route, "policy", d.Policy().String(), "channels", d.Channels())
		return d
	}

	contactService := service.NewInquiryService(service.InquiryDeps{
		Form:       service.ContactForm,
		Limiter:    limiter,
		Verifier:   verifier,
		Dispatcher: newDispatcher("contact", cfg.ContactPolicy),
	})
	consultationService := service.NewInquiryService(service.InquiryDeps{
		Form:       service.ConsultationForm,
		Limiter:    limiter,
		Verifier:   verifier,
		Dispatcher: newDispatcher("consultation", cfg.ConsultationPolicy),
	})

	var db repository.DB
	if pool != nil {
		db = pool
	}
	h := handler.New(db, cfg.FrontendURL)
	contactHandler := handler.NewInquiryHandler(contactService, cfg.TrustForwarded)
	consultationHandler := handler.NewInquiryHandler(consultationService, cfg.TrustForwarded)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("POST /api/contact", contactHandler.Submit)
	mux.HandleFunc("POST /api/consultation", consultationHandler.Submit)

	server := &http.Server{
		Addr: cfg.Addr,
		Handler: middleware.RequestID(
			handler.RequestLogger(
				handler.Recover(
					handler.SecurityHeaders(
						h.CORS(mux))))),
		ReadTimeout: 10 * time.Second,
		// Leave room for every channel to hit its own timeout.
		WriteTimeout: cfg.ChannelTimeout + 10*time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newLimiter returns the Redis-backed store when REDIS_URL is set so several
// instances share one budget; otherwise an in-process store with a janitor.
func newLimiter(ctx context.Context, cfg config.Config) (ratelimit.Store, func()) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logging.Fatal("invalid REDIS_URL", "error", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable at startup; rate limiting will fail open", "error", err)
		}
		store := ratelimit.NewRedisStore(rdb,
			ratelimit.WithRedisLimit(cfg.RateLimitMax),
			ratelimit.WithRedisWindow(cfg.RateLimitWindow),
		)
		return store, func() { _ = rdb.Close() }
	}

	store := ratelimit.NewMemoryStore(
		ratelimit.WithLimit(cfg.RateLimitMax),
		ratelimit.WithWindow(cfg.RateLimitWindow),
		ratelimit.WithSweepEvery(cfg.RateLimitSweepEvery),
	)
	go store.StartJanitor(ctx)
	return store, func() {}
}

// newRecordStore prefers the spreadsheet and falls back to the database table.
// It returns nil when neither is configured, which leaves the record channel out.
func newRecordStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) notify.RecordAppender {
	if cfg.SheetsCredentialsJSON != "" && cfg.SheetsSpreadsheetID != "" {
		client, err := sheets.NewClient(ctx, []byte(cfg.SheetsCredentialsJSON), cfg.SheetsSpreadsheetID, cfg.SheetsRange)
		if err != nil {
			logging.Fatal("invalid sheets credentials", "error", err)
		}
		return client
	}
	if pool != nil {
		return repository.NewPgRecordRepository(pool)
	}
	return nil
}

// newFailureRecorder connects to MongoDB when MONGO_URI is set. Failing to
// connect is not fatal; failed attempts are then only logged.
func newFailureRecorder(ctx context.Context, cfg config.Config) (notify.FailureRecorder, func()) {
	if cfg.MongoURI == "" {
		return nil, func() {}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		slog.Warn("mongo connect failed; failed notifications will not be stored", "error", err)
		return nil, func() {}
	}

	coll := client.Database(cfg.MongoDatabase).Collection(cfg.FailedNotificationCollection)
	if _, err := coll.Indexes().CreateMany(connectCtx, repository.FailureIndexes()); err != nil {
		slog.Warn("failed to ensure failed_notifications indexes", "error", err)
	}

	return repository.NewMongoFailureStore(coll), func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			slog.Error("mongo disconnect error", "error", err)
		}
	}
}
