// components/waitlist/waitlist.go
//
// Sendero waitlist component – tour interest signup.
//
// Context
//   POST /api/waitlist accepts the signup form, validates it again on the
//   server, and inserts one row.  The email column is unique, so a second
//   signup with the same address answers 409 instead of 500.
//
//------------------------------------------------------------------------------

package waitlist

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/senderotrails/site/internal/component"
	"github.com/senderotrails/site/internal/database"
	"github.com/senderotrails/site/internal/form"
	"github.com/senderotrails/site/internal/logger"
	"github.com/senderotrails/site/internal/metrics"
	"github.com/senderotrails/site/internal/store"
)

// Route and response texts.
const (
	FormID = "waitlist"
	Path   = "/api/waitlist"

	MsgJoined    = "Successfully added to waitlist"
	MsgDuplicate = "This email is already on the waitlist"
	MsgFailed    = "Failed to join waitlist. Please try again."
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component owns the waitlist endpoint.
type Component struct {
	sink store.Sink
}

// New returns a Component writing to sink.
func New(sink store.Sink) *Component { return &Component{sink: sink} }

// Register component at program start.
func init() { component.Register(&Component{}) }

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return FormID }

// Init picks up the shared sink.
func (c *Component) Init(s component.Services) error {
	if s.Sink == nil {
		return errors.New("waitlist: no persistence sink")
	}
	c.sink = s.Sink
	return nil
}

// Migrations returns the table DDL for driver.
func (c *Component) Migrations(driver string) []string {
	if driver == database.DriverPostgres {
		return []string{`CREATE TABLE IF NOT EXISTS waitlist (
  id              BIGSERIAL PRIMARY KEY,
  email           TEXT NOT NULL UNIQUE,
  tour_duration   TEXT NOT NULL,
  interest_types  TEXT NOT NULL,
  fitness_level   TEXT NOT NULL,
  travel_timeline TEXT NOT NULL,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`}
	}
	return []string{`CREATE TABLE IF NOT EXISTS waitlist (
  id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
  email           VARCHAR(320) NOT NULL UNIQUE,
  tour_duration   VARCHAR(32)  NOT NULL,
  interest_types  TEXT         NOT NULL,
  fitness_level   VARCHAR(32)  NOT NULL,
  travel_timeline VARCHAR(32)  NOT NULL,
  created_at      TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
)`}
}

// Routes registers POST /api/waitlist.  Other verbs reach the handler and
// receive 405 from form.PostOnly.
func (c *Component) Routes(r chi.Router) {
	r.Handle(Path, c.Handler())
}

// Handler returns the guarded endpoint.
func (c *Component) Handler() http.Handler { return form.Endpoint(FormID, c.submit) }

/*──────────────────────────── Handler ──────────────────────────────────────*/

func (c *Component) submit(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context()).With("form", FormID)
	count := func(outcome string) { metrics.FormSubmissions.WithLabelValues(FormID, outcome).Inc() }

	var in form.WaitlistInput
	if err := form.DecodeJSON(r, &in, form.MaxBodyBytes); err != nil {
		form.FailDecode(w, r, FormID, err)
		return
	}

	if errs := form.ValidateWaitlistForm(in); len(errs) > 0 {
		log.Debugw("validation failed", "stage", "validating", "fields", errs.ByField())
		count(metrics.OutcomeInvalid)
		form.Fail(w, r, http.StatusBadRequest, errs.Join())
		return
	}

	if err := c.sink.Insert(r.Context(), in.ToRow()); err != nil {
		if store.IsUniqueViolation(err) {
			count(metrics.OutcomeConflict)
			form.Fail(w, r, http.StatusConflict, MsgDuplicate)
			return
		}
		log.Errorw("insert failed", "stage", "persisting", "err", err)
		count(metrics.OutcomeError)
		form.Fail(w, r, http.StatusInternalServerError, MsgFailed)
		return
	}

	count(metrics.OutcomeCreated)
	form.Succeed(w, r, http.StatusCreated, form.Confirmation{Message: MsgJoined})
}
