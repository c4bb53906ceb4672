package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/auth"
	"github.com/erazemk/auberge/internal/chat"
	"github.com/erazemk/auberge/internal/config"
	"github.com/erazemk/auberge/internal/db"
	"github.com/erazemk/auberge/internal/notify"
	"github.com/erazemk/auberge/internal/store"
	"github.com/erazemk/auberge/internal/web"
)

const sessionSweepInterval = time.Hour

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	fs := flag.NewFlagSet("auberge", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")

	var envFile string
	fs.StringVar(&envFile, "env", ".env", "")
	fs.StringVar(&envFile, "e", ".env", "")

	var dbPath string
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: auberge [flags]

Flags:
  -c, -config <path>      YAML configuration file (default: none)
  -e, -env <path>         dotenv file, ignored when missing (default: .env)
  -d, -db <path>          SQLite database path (default: auberge.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

The backend is configured with AUBERGE_API_URL (or NEXT_PUBLIC_API_URL)
and AUBERGE_HOTEL_ID (or NEXT_PUBLIC_HOTEL_ID).
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	// Flags win over the file and the environment.
	if dbPath != "" {
		cfg.DB = dbPath
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if logPath != "" {
		cfg.LogPath = logPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", cfg.DB)

	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading jwt secret: %w", err)
	}
	sealKey, err := store.GetSealKey(ctx, database)
	if err != nil {
		return fmt.Errorf("loading seal key: %w", err)
	}
	sealer, err := auth.NewSealer(sealKey)
	if err != nil {
		return err
	}

	api, err := apiclient.New(apiclient.Config{
		BaseURL:    cfg.API.URL,
		HotelID:    cfg.API.HotelID,
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
	})
	if err != nil {
		return err
	}

	// Browser subscriptions are bound to the public key, so configured keys
	// replace the stored pair and stay in use if the config later drops them.
	if cfg.Push.PublicKey != "" {
		if err := store.SetSetting(ctx, database, store.KeyVAPIDPublic, cfg.Push.PublicKey); err != nil {
			return err
		}
		if err := store.SetSetting(ctx, database, store.KeyVAPIDPrivate, cfg.Push.PrivateKey); err != nil {
			return err
		}
	}
	publicKey, privateKey, err := store.GetVAPIDKeys(ctx, database, webpush.GenerateVAPIDKeys)
	if err != nil {
		return fmt.Errorf("loading vapid keys: %w", err)
	}
	notifier := notify.New(database, notify.Config{
		PublicKey:  publicKey,
		PrivateKey: privateKey,
		Subscriber: cfg.Push.Subscriber,
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
	})

	router, err := web.NewRouter(ctx, web.Config{
		DB:        database,
		JWTSecret: jwtSecret,
		Sealer:    sealer,
		API:       api,
		Notifier:  notifier,
		Polling: web.Polling{
			Chat:          cfg.Polling.Chat,
			Conversations: cfg.Polling.Conversations,
			Dashboard:     cfg.Polling.Dashboard,
		},
		LoginMaxAttempts: cfg.Login.MaxAttempts,
		LoginLockout:     cfg.Login.Lockout,
	})
	if err != nil {
		return fmt.Errorf("setting up router: %w", err)
	}

	// Sockets and event streams are long lived, so there is no write timeout.
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server started", "addr", cfg.Addr, "api", cfg.API.URL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		sweepSessions(gctx, database)
		return nil
	})

	if cfg.API.ServiceToken != "" {
		monitor := chat.NewMonitor(api.WithToken(cfg.API.ServiceToken), cfg.Polling.Conversations, notifier.ChatAlerts)
		monitor.Start(gctx)
		defer monitor.Stop()
		slog.Info("chat monitor started", "interval", cfg.Polling.Conversations)
	} else {
		slog.Info("no service token, chat push alerts disabled")
	}

	return g.Wait()
}

// sweepSessions deletes expired sessions until ctx ends.
func sweepSessions(ctx context.Context, database *sql.DB) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		n, err := store.DeleteExpiredSessions(ctx, database)
		if err != nil && ctx.Err() == nil {
			slog.Error("failed to delete expired sessions", "error", err)
		} else if n > 0 {
			slog.Info("expired sessions deleted", "count", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
