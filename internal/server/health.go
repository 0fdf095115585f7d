package server

import (
	"context"
	"net/http"
	"time"

	"github.com/senderotrails/site/internal/form"
	"github.com/senderotrails/site/internal/logger"
)

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health answers 200 {"status":"ok"} when db responds within two seconds,
// else 503.  A nil db (memory sink) is always healthy.
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				logger.FromContext(r.Context()).Warnw("health check failed", "err", err)
				form.WriteJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		form.WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
