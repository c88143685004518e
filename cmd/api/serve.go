package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/spf13/cobra"

	"github.com/skillshare/backend/internal/auth"
	"github.com/skillshare/backend/internal/chat"
	"github.com/skillshare/backend/internal/config"
	"github.com/skillshare/backend/internal/database"
	"github.com/skillshare/backend/internal/handlers"
	"github.com/skillshare/backend/internal/ledger"
	"github.com/skillshare/backend/internal/models"
	"github.com/skillshare/backend/internal/mq"
	"github.com/skillshare/backend/internal/obs"
	"github.com/skillshare/backend/internal/repository"
	"github.com/skillshare/backend/internal/router"
	"github.com/skillshare/backend/internal/services"
	"github.com/skillshare/backend/internal/workers"
)

// version is set with -ldflags at release build time.
var version = "dev"

const shutdownTimeout = 15 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("migrate", false, "Apply migrations before serving")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background workers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.OTLPEndpoint, version, cfg.Environment)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}()

	pool, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("cannot reach PostgreSQL, is it running? %w", err)
	}
	defer pool.Close()
	logger.Info("connected to PostgreSQL")

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return err
		}
	}

	fanout, closeFanout, err := newFanout(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFanout()

	userRepo := repository.NewUserRepo(pool)
	creditRepo := repository.NewCreditRepo(pool)
	skillRepo := repository.NewSkillRepo(pool)
	bookingRepo := repository.NewBookingRepo(pool)
	reviewRepo := repository.NewReviewRepo(pool)
	projectRepo := repository.NewProjectRepo(pool)

	ledgerSvc := ledger.NewService(pool, userRepo, creditRepo)
	auditor := ledger.NewAuditor(userRepo, creditRepo)

	// Job inserts are wired after the River client exists; services only
	// see these closures.
	var insertMu sync.Mutex
	var riverClient *river.Client[pgx.Tx]
	insertTx := func(ctx context.Context, tx pgx.Tx, args river.JobArgs) error {
		insertMu.Lock()
		c := riverClient
		insertMu.Unlock()
		if c == nil {
			return errors.New("job queue not started")
		}
		_, err := c.InsertTx(ctx, tx, args, nil)
		return err
	}
	enqueueNotify := func(ctx context.Context, tx pgx.Tx, ev models.ChatEvent) error {
		return insertTx(ctx, tx, workers.ChatNotifyArgs{Event: ev})
	}
	enqueueRating := func(ctx context.Context, tx pgx.Tx, skillID uuid.UUID) error {
		return insertTx(ctx, tx, workers.RatingRecalcArgs{SkillID: skillID})
	}

	jobWorkers := river.NewWorkers()
	river.AddWorker(jobWorkers, workers.NewChatNotifyWorker(fanout))
	river.AddWorker(jobWorkers, workers.NewRatingRecalcWorker(skillRepo, logger))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.RiverMaxWorkers},
		},
		Workers: jobWorkers,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("create river client: %w", err)
	}
	insertMu.Lock()
	riverClient = client
	insertMu.Unlock()

	authSvc := auth.NewService(pool, userRepo, ledgerSvc, auth.Options{
		Secret:         cfg.JWTSecret,
		TokenTTL:       cfg.JWTTTL,
		WelcomeCredits: cfg.WelcomeCredits,
	})
	chatSvc := chat.NewService(pool, chat.NewRepository(pool), userRepo, enqueueNotify, logger)

	validator, err := services.NewValidator()
	if err != nil {
		return fmt.Errorf("compile request schemas: %w", err)
	}

	api := router.New(router.Handlers{
		Auth: auth.NewHandler(authSvc, logger),
		Skills: &handlers.SkillHandler{
			Catalog: services.NewSkillService(skillRepo, userRepo, logger),
			Search:  services.NewSkillFinder(skillRepo),
			Reviews: services.NewReviewService(pool, skillRepo, bookingRepo, reviewRepo, userRepo, enqueueRating, logger),
			Logger:  logger,
		},
		Bookings: &handlers.BookingHandler{
			Bookings: services.NewBookingService(pool, skillRepo, bookingRepo, ledgerSvc, logger),
			Logger:   logger,
		},
		Accounts: &handlers.AccountHandler{
			Users:  userRepo,
			Ledger: auditor,
			Donor:  ledgerSvc,
			Logger: logger,
		},
		Projects: &handlers.ProjectHandler{
			Projects: services.NewProjectService(pool, projectRepo, logger),
			Logger:   logger,
		},
		Chat: chat.NewHandler(chatSvc, fanout, logger),
	}, router.Options{
		Tokens:         authSvc,
		Validator:      validator,
		AllowedOrigins: cfg.AllowedOrigins,
		MetricsEnabled: cfg.MetricsEnabled,
		Logger:         logger,
	})

	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("start river client: %w", err)
	}

	// No WriteTimeout: chat streams stay open. BaseContext ends them on shutdown.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr, "version", version)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := client.Stop(shutdownCtx); err != nil {
		logger.Error("river shutdown", "error", err)
	}
	return nil
}

// newFanout picks the chat delivery path: RabbitMQ when configured so that
// several API replicas share streams, otherwise an in-process hub.
func newFanout(cfg config.Config, logger *slog.Logger) (chat.Fanout, func(), error) {
	if cfg.RabbitURL == "" {
		return chat.NewHub(), func() {}, nil
	}
	conn, err := mq.Dial(cfg.RabbitURL)
	if err != nil {
		return nil, nil, err
	}
	pub, err := mq.NewPublisher(conn, cfg.ChatExchange)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("chat publisher: %w", err)
	}
	logger.Info("chat fan-out via rabbitmq", "exchange", cfg.ChatExchange)
	return chat.NewBrokerFanout(conn, cfg.ChatExchange, pub, logger), func() {
		_ = pub.Close()
		_ = conn.Close()
	}, nil
}
