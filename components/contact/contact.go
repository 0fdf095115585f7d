// components/contact/contact.go
//
// Sendero contact component – "get in touch" form.
//
// Context
//   The contact form posts to /{locale}/api/contact from localized pages
//   and to /api/contact from anywhere else (locale "en").  The handler
//   validates, stores the message, answers 201, and only then hands the
//   owner notification to the detached dispatcher.  A failed or slow
//   email therefore never changes what the visitor sees.
//
// Stages
//   received → parsing → validating → persisting → responding → notifying
//
//------------------------------------------------------------------------------

package contact

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/senderotrails/site/internal/component"
	"github.com/senderotrails/site/internal/config"
	"github.com/senderotrails/site/internal/database"
	"github.com/senderotrails/site/internal/form"
	"github.com/senderotrails/site/internal/i18n"
	"github.com/senderotrails/site/internal/logger"
	"github.com/senderotrails/site/internal/message"
	"github.com/senderotrails/site/internal/metrics"
	"github.com/senderotrails/site/internal/store"
)

// Routes and response texts.
const (
	FormID        = "contact"
	Path          = "/api/contact"
	LocalizedPath = "/{locale}/api/contact"

	MsgSent   = "Message sent successfully"
	MsgFailed = "Failed to send message. Please try again."
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component owns the contact endpoints.
type Component struct {
	sink     store.Sink
	notifier *message.Dispatcher
	notify   config.Notify
	newID    func() string
}

// New returns a Component.  notifier may be nil to skip notifications.
func New(sink store.Sink, notifier *message.Dispatcher, notify config.Notify) *Component {
	return &Component{sink: sink, notifier: notifier, notify: notify, newID: uuid.NewString}
}

// Register component at program start.
func init() { component.Register(&Component{newID: uuid.NewString}) }

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return FormID }

// Init picks up the sink, the dispatcher, and the notify settings.
func (c *Component) Init(s component.Services) error {
	if s.Sink == nil {
		return errors.New("contact: no persistence sink")
	}
	c.sink = s.Sink
	c.notifier = s.Notifier
	if s.Config != nil {
		c.notify = s.Config.Notify
	}
	return nil
}

// Migrations returns the table DDL for driver.
func (c *Component) Migrations(driver string) []string {
	if driver == database.DriverPostgres {
		return []string{`CREATE TABLE IF NOT EXISTS contact (
  id         UUID PRIMARY KEY,
  email      TEXT NOT NULL,
  name       TEXT NOT NULL,
  subject    TEXT NULL,
  message    TEXT NOT NULL,
  locale     TEXT NOT NULL DEFAULT 'en',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`}
	}
	return []string{`CREATE TABLE IF NOT EXISTS contact (
  id         CHAR(36)     NOT NULL PRIMARY KEY,
  email      VARCHAR(320) NOT NULL,
  name       VARCHAR(200) NOT NULL,
  subject    VARCHAR(32)  NULL,
  message    TEXT         NOT NULL,
  locale     VARCHAR(8)   NOT NULL DEFAULT 'en',
  created_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
)`}
}

// Routes registers both the localized and the bare path.
func (c *Component) Routes(r chi.Router) {
	h := c.Handler()
	r.Handle(LocalizedPath, h)
	r.Handle(Path, h)
}

// Handler returns the guarded endpoint.
func (c *Component) Handler() http.Handler { return form.Endpoint(FormID, c.submit) }

/*──────────────────────────── Handler ──────────────────────────────────────*/

func (c *Component) submit(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context()).With("form", FormID)
	count := func(outcome string) { metrics.FormSubmissions.WithLabelValues(FormID, outcome).Inc() }

	var in form.ContactInput
	if err := form.DecodeJSON(r, &in, form.MaxBodyBytes); err != nil {
		form.FailDecode(w, r, FormID, err)
		return
	}

	if errs := form.ValidateContactForm(in); len(errs) > 0 {
		log.Debugw("validation failed", "stage", "validating", "fields", errs.ByField())
		count(metrics.OutcomeInvalid)
		form.Fail(w, r, http.StatusBadRequest, errs.Join())
		return
	}

	row := in.ToRow(c.newID(), i18n.Normalize(chi.URLParam(r, "locale")))
	if err := c.sink.Insert(r.Context(), row); err != nil {
		log.Errorw("insert failed", "stage", "persisting", "err", err)
		count(metrics.OutcomeError)
		form.Fail(w, r, http.StatusInternalServerError, MsgFailed)
		return
	}

	count(metrics.OutcomeCreated)
	form.Succeed(w, r, http.StatusCreated, form.Confirmation{Message: MsgSent})

	if c.notifier != nil {
		c.notifier.Go(r.Context(), FormID, Notification(c.notify, row))
	}
}

// Notification builds the owner email for a stored contact row.  Replies
// go straight to the visitor.
func Notification(cfg config.Notify, row form.ContactRow) message.Email {
	subject := "general"
	if row.Subject != nil {
		subject = *row.Subject
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", row.Name)
	fmt.Fprintf(&b, "Email: %s\n", row.Email)
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	fmt.Fprintf(&b, "Locale: %s\n", row.Locale)
	fmt.Fprintf(&b, "Reference: %s\n\n", row.ID)
	b.WriteString(row.Message)
	b.WriteString("\n")

	var to []string
	if cfg.To != "" {
		to = []string{cfg.To}
	}
	return message.Email{
		From:    cfg.From,
		To:      to,
		ReplyTo: row.Email,
		Subject: "New contact form submission: " + subject,
		Text:    b.String(),
	}
}
