// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web calls Init() with
// the shared Services, applies every component's Migrations(), and then
// lets each component attach its endpoints through Routes().

package component

import (
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/senderotrails/site/internal/blob"
	"github.com/senderotrails/site/internal/config"
	"github.com/senderotrails/site/internal/message"
	"github.com/senderotrails/site/internal/store"
	"github.com/senderotrails/site/internal/tracker"
)

// Services exposes shared resources to Components during Init.  Optional
// members are nil when their feature is disabled.
type Services struct {
	Config   *config.Config
	Sink     store.Sink
	Notifier *message.Dispatcher             // nil: no notifications
	Tracker  tracker.Client                  // nil: feedback disabled
	Blob     blob.Store                      // nil: screenshots dropped
	Limiter  func(http.Handler) http.Handler // nil: no rate limit
}

// Component contract.
//
// Migrations(driver) may return nil if the component has no schema.
// Routes registers endpoints on the shared router, e.g:
//
//	r.Handle("/api/waitlist", form.Endpoint("waitlist", c.submit))
type Component interface {
	Name() string
	Init(Services) error
	Migrations(driver string) []string
	Routes(r chi.Router)
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name, so migrations
// run in a stable order.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
