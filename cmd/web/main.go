// cmd/web/main.go
//
// Sendero – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Start daily rotating logger (tees to console when running in a TTY).
//
//  2. Connect to Vault when VAULT_ADDR is set, then load configuration so
//     `vault:` references resolve.
//
//  3. Open the submission store (MySQL, PostgreSQL, or in-memory) and run
//     every component's migrations.
//
//  4. Build the optional collaborators: notification sender, issue
//     tracker, screenshot bucket, Redis rate limiter, and GeoIP reader.
//
//  5. Init components and mount their routes on one chi router behind the
//     shared middleware stack.  /healthz and /metrics sit beside them.
//
//  6. Serve until SIGINT or SIGTERM, then drain in-flight requests and
//     pending notifications.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/senderotrails/site/internal/component"
	"github.com/senderotrails/site/internal/config"
	"github.com/senderotrails/site/internal/logger"
	"github.com/senderotrails/site/internal/middleware"
	"github.com/senderotrails/site/internal/requestinfo"
	"github.com/senderotrails/site/internal/server"
	"github.com/senderotrails/site/internal/vault"

	_ "github.com/senderotrails/site/components/contact"
	_ "github.com/senderotrails/site/components/feedback"
	_ "github.com/senderotrails/site/components/waitlist"
)

// shutdownGrace bounds both the HTTP drain and the notification drain.
const shutdownGrace = 15 * time.Second

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.Root()
	logOut, err := logger.New(root, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	if err := run(ctx, root, logOut); err != nil {
		logOut.Fatalw("sendero stopped", "err", err)
	}
	logOut.Info("sendero stopped cleanly")
}

func run(ctx context.Context, root string, logOut *zap.SugaredLogger) error {
	//
	// ── 1.  Configuration (Vault first, when present) ──────────────────
	//
	var secrets config.SecretGetter
	if os.Getenv("VAULT_ADDR") != "" {
		vc, err := vault.New(ctx, logOut)
		if err != nil {
			return err
		}
		secrets = vc
	}
	cfg, err := config.LoadFrom(ctx, root, secrets)
	if err != nil {
		return err
	}

	//
	// ── 2.  Collaborators ──────────────────────────────────────────────
	//
	deps, err := buildDeps(ctx, cfg, logOut)
	if err != nil {
		return err
	}
	defer deps.Close()

	//
	// ── 3.  Components: init, migrate, and mount ───────────────────────
	//
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		logger.Middleware,
		requestinfo.Enrich,
		middleware.Security,
		middleware.CORS(cfg.HTTP.AllowedOrigins),
	)
	r.Get("/healthz", server.Health(deps.pinger()))
	r.Handle("/metrics", promhttp.Handler())

	for _, c := range component.All() {
		if err := c.Init(deps.services); err != nil {
			return err
		}
		if err := deps.migrate(ctx, c); err != nil {
			return err
		}
		c.Routes(r)
		logOut.Infow("component ready", "component", c.Name())
	}

	//
	// ── 4.  Serve until signalled ──────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS, r))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		logOut.Info("shutting down")
		err := srv.Shutdown(shutCtx)
		if n := deps.services.Notifier; n != nil {
			if werr := n.Wait(shutCtx); werr != nil {
				logOut.Warnw("pending notifications abandoned", "err", werr)
			}
		}
		return err
	})
	return g.Wait()
}
