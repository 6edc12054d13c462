package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stay-web/internal/apiclient"
	"stay-web/internal/config"
	"stay-web/internal/handlers"
	"stay-web/internal/services"
	"stay-web/internal/session"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Run is the process entry point
func Run() {
	// Load configuration
	cfgPath := os.Getenv("STAY_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	client, err := apiclient.New(cfg.API.BaseURL, apiclient.WithTimeout(cfg.API.Timeout))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create API client")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	a := newApp(cfg, client, os.Stdout)
	err = a.run(ctx, os.Args[1:])
	a.close()
	stop()

	if err != nil {
		log.Debug().Err(err).Msg("Command failed")
		fmt.Fprintln(os.Stderr, apiclient.Message(err))
		os.Exit(1)
	}
}

// app holds what every command shares
type app struct {
	cfg    *config.Config
	client *apiclient.Client
	out    io.Writer

	sess    *session.Session
	closers []func()
}

func newApp(cfg *config.Config, client *apiclient.Client, out io.Writer) *app {
	return &app{cfg: cfg, client: client, out: out}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// session returns the command-line session, opening its store on first use
func (a *app) session(ctx context.Context) (*session.Session, error) {
	if a.sess != nil {
		return a.sess, nil
	}

	var store session.Store
	switch a.cfg.Session.Backend {
	case "", "file":
		path := a.cfg.Session.File
		if path == "" {
			var err error
			if path, err = session.DefaultFilePath(); err != nil {
				return nil, err
			}
		}
		store = session.NewFileStore(path)
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: a.cfg.Session.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		a.closers = append(a.closers, func() { rdb.Close() })
		store = session.NewRedisStore(rdb, a.cfg.Session.RedisKey)
	case "memory":
		store = session.NewMemoryStore("")
	default:
		return nil, fmt.Errorf("unknown session backend %q", a.cfg.Session.Backend)
	}

	a.sess = session.New(store)
	return a.sess, nil
}

// authed returns ctx carrying the command-line session
func (a *app) authed(ctx context.Context) (context.Context, error) {
	s, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	return session.WithSession(ctx, s), nil
}

func (a *app) imageStore(ctx context.Context) services.ImageStore {
	if a.cfg.AWS.S3Bucket == "" {
		return nil
	}
	media, err := services.NewMediaService(ctx, a.cfg.AWS)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create media service, image uploads disabled")
		return nil
	}
	return media
}

// serve runs the web server until ctx is cancelled
func (a *app) serve(ctx context.Context, args []string) error {
	router := handlers.NewRouter(handlers.RouterConfig{
		Client:        a.client,
		Images:        a.imageStore(ctx),
		RedirectDelay: a.cfg.Booking.RedirectDelay,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("api", a.cfg.API.BaseURL).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal for graceful shutdown
	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
