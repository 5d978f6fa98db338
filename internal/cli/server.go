package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/infra/memory"
	pgloader "quiz-attempt-service/internal/infra/postgres"
	rediscache "quiz-attempt-service/internal/infra/redis"
	"quiz-attempt-service/internal/infra/sqlstore"
	"quiz-attempt-service/internal/infra/sqlstore/migrations"
	transport "quiz-attempt-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	store, err := openStorage(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer store.close()
	catalog := store.catalog

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	// grading reads go through pgx when a postgres url is configured
	var loader app.QuizLoader = catalog
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var (
		quizRepo app.QuizRepository
		locker   app.Locker
	)
	if redisClient != nil {
		quizRepo = rediscache.NewQuizRepository(redisClient, loader, quizTTL)
		locker = rediscache.NewLocker(redisClient, config.TTLDuration(cfg.Redis.TTL, 10*time.Second))
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		locker = memory.NewLocker()
	}

	if cfg.Auth.Secret == config.DevSecret {
		log.Printf("warning: using the built-in development token secret")
	}
	auth := transport.NewAuthenticator(cfg.Auth.Secret, cfg.Auth.Issuer, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))

	attempts := app.NewAttemptService(quizRepo, catalog, store.attempts, locker)
	handlers := transport.NewHandlers(
		attempts,
		app.NewCatalogService(catalog, quizRepo),
		app.NewStatisticsService(catalog, quizRepo, store.attempts),
	)
	router := transport.NewRouter(handlers, transport.NewWSHandler(attempts), auth, transport.RouterOptions{
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: config.TTLDuration(cfg.Server.RequestTimeout, 30*time.Second),
	})

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("starting quiz service on :%s (database=%s, redis=%t)", finalPort, cfg.Database.Driver, redisClient != nil)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve on :%s: %w", finalPort, err)
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

type catalogStore interface {
	app.CatalogRepository
	app.QuizLoader
}

type storage struct {
	catalog  catalogStore
	attempts app.AttemptRepository
	close    func() error
}

// openStorage selects the repositories for the configured driver. "memory" keeps everything
// in process; sqlite and postgres go through bun and are migrated on open.
func openStorage(ctx context.Context, driver, dsn string) (storage, error) {
	if strings.EqualFold(driver, "memory") {
		log.Printf("using in-memory storage, data is lost on exit")
		st := memory.NewStore()
		return storage{catalog: st.Catalog(), attempts: st.Attempts(), close: func() error { return nil }}, nil
	}

	db, err := sqlstore.Open(driver, dsn)
	if err != nil {
		return storage{}, err
	}
	if err := migrations.Apply(ctx, db); err != nil {
		_ = db.Close()
		return storage{}, err
	}
	st := sqlstore.New(db)
	return storage{catalog: st.Catalog(), attempts: st.Attempts(), close: db.Close}, nil
}
