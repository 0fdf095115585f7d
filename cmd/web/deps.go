// cmd/web/deps.go
//
// Sendero – collaborator construction for the web entry point.
//
// Context
//   Each optional feature is switched on by its config block.  A disabled
//   feature leaves its Services member nil, and components treat nil as
//   "off".  Interfaces are only assigned when the concrete value exists so
//   a typed nil never masquerades as a live collaborator.
//
//------------------------------------------------------------------------------

package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/senderotrails/site/internal/blob"
	"github.com/senderotrails/site/internal/component"
	"github.com/senderotrails/site/internal/config"
	"github.com/senderotrails/site/internal/database"
	"github.com/senderotrails/site/internal/message"
	"github.com/senderotrails/site/internal/middleware"
	"github.com/senderotrails/site/internal/requestinfo"
	"github.com/senderotrails/site/internal/server"
	"github.com/senderotrails/site/internal/store"
	"github.com/senderotrails/site/internal/tracker"
)

// deps owns every long-lived resource main opens.
type deps struct {
	services component.Services
	db       *sqlx.DB      // nil for the memory driver
	rdb      *redis.Client // nil without redis.addr
	log      *zap.SugaredLogger
}

func buildDeps(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*deps, error) {
	d := &deps{log: log, services: component.Services{Config: cfg}}

	if err := d.openStore(cfg.Database); err != nil {
		return nil, err
	}

	sender, err := newSender(ctx, cfg.Notify)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.services.Notifier = message.NewDispatcher(sender, cfg.Notify.Timeout)
	log.Infow("notifications ready", "provider", cfg.Notify.Provider)

	if cfg.Tracker.Enabled {
		d.services.Tracker = tracker.NewLinear(cfg.Tracker.Endpoint, cfg.Tracker.APIKey, nil)
		log.Infow("issue tracker ready", "endpoint", cfg.Tracker.Endpoint)
	}

	if cfg.Blob.Bucket != "" {
		bs, err := blob.NewS3Store(ctx, blob.S3Config{
			Bucket:        cfg.Blob.Bucket,
			Region:        cfg.Blob.Region,
			Prefix:        cfg.Blob.Prefix,
			PublicBaseURL: cfg.Blob.PublicBaseURL,
			AccessKey:     cfg.Blob.AWSAccessKey,
			SecretKey:     cfg.Blob.AWSSecretKey,
		})
		if err != nil {
			d.Close()
			return nil, err
		}
		d.services.Blob = bs
		log.Infow("screenshot bucket ready", "bucket", cfg.Blob.Bucket)
	}

	if cfg.Redis.Addr != "" {
		d.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		// Limiter fails open, so an unreachable Redis is a warning only.
		if err := d.rdb.Ping(ctx).Err(); err != nil {
			log.Warnw("redis unreachable, rate limit fails open", "addr", cfg.Redis.Addr, "err", err)
		}
		lim := middleware.NewLimiter(d.rdb, middleware.RateLimitConfig{
			Name:   "feedback",
			Limit:  cfg.Redis.FeedbackLimit,
			Window: cfg.Redis.Window,
		})
		d.services.Limiter = lim.Middleware
	}

	if err := requestinfo.InitGeo(cfg.GeoIP.CityDB); err != nil {
		log.Warnw("geoip disabled", "path", cfg.GeoIP.CityDB, "err", err)
	}
	return d, nil
}

// openStore connects the submission sink.
func (d *deps) openStore(c config.Database) error {
	if c.Driver == "memory" {
		d.services.Sink = store.NewMemory()
		d.log.Warn("using in-memory store; submissions are lost on restart")
		return nil
	}
	db, err := database.Open(c.Driver, c.DSN)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.Driver, err)
	}
	d.db = db
	d.services.Sink = store.NewSQLSink(db)
	d.log.Infow("database online", "driver", c.Driver)
	return nil
}

// migrate runs c's schema for the active driver.
func (d *deps) migrate(ctx context.Context, c component.Component) error {
	if d.db == nil {
		return nil
	}
	stmts := c.Migrations(d.db.DriverName())
	if len(stmts) == 0 {
		return nil
	}
	if err := database.Migrate(ctx, d.db, stmts); err != nil {
		return fmt.Errorf("%s: %w", c.Name(), err)
	}
	return nil
}

// pinger returns the health check target, nil for the memory driver.
func (d *deps) pinger() server.Pinger {
	if d.db == nil {
		return nil
	}
	return d.db
}

// Close releases the database, Redis, and GeoIP handles.
func (d *deps) Close() {
	if d.db != nil {
		_ = d.db.Close()
	}
	if d.rdb != nil {
		_ = d.rdb.Close()
	}
	_ = requestinfo.CloseGeo()
}

// newSender selects the provider named in cfg.
func newSender(ctx context.Context, cfg config.Notify) (message.Sender, error) {
	switch cfg.Provider {
	case "ses":
		return message.NewSESSender(ctx, cfg.SESRegion, cfg.AWSAccessKey, cfg.AWSSecretKey, cfg.From)
	case "noop":
		return message.NoopSender{}, nil
	default:
		return message.NewResendSender(cfg.ResendAPIKey, cfg.From), nil
	}
}
