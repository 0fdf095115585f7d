// internal/submission/controller.go
//
// Sendero – Client-side submission controller.
//
// Context
//   Any Go client of the form API (the signup CLI, integration tests, a
//   kiosk app) drives a form through the same small state machine:
//
//       idle → submitting → success
//                         ↘ error (field errors or one general error)
//
//   Submit runs the same validator the server runs, so obviously bad
//   input never costs a round trip.  Only one submission may be in flight
//   per controller; a second Submit while the first is running returns
//   the current state and ErrBusy.  There is no automatic retry.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/senderotrails/site/internal/form"
)

// Fallback texts when no Translator is configured.
const (
	FallbackGeneric = "Something went wrong. Please try again."
	FallbackNetwork = "Network error. Please check your connection and try again."
)

// Catalog keys for the fallbacks.
const (
	KeyGeneric = "genericError"
	KeyNetwork = "networkError"
)

// ErrBusy is returned by Submit while another submission is in flight.
var ErrBusy = errors.New("submission: already submitting")

// Translator turns a message key into user-facing text.  Unknown keys
// should come back unchanged.
type Translator interface {
	Translate(key string) string
}

// Form is one submittable form.
type Form interface {
	// Endpoint is the request path, e.g. "/api/waitlist".
	Endpoint() string
	// Validate runs the client-side check on the current values.
	Validate() form.Errors
	// Payload is the JSON request body for the current values.
	Payload() any
	// Reset clears the values after a successful submission.
	Reset()
	// ConflictField names the field a 409 is reported on, or "".
	ConflictField() string
}

// State is a snapshot of the controller.  GeneralError is empty when no
// general error is showing.
type State struct {
	Submitting   bool
	FieldErrors  map[string]string
	GeneralError string
	Success      bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithHTTPClient replaces the default 15 s timeout client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Controller) { c.http = hc } }

// WithTranslator sets the message translator.
func WithTranslator(t Translator) Option { return func(c *Controller) { c.tr = t } }

// Controller drives one Form against one API base URL.
type Controller struct {
	mu    sync.Mutex
	base  string
	form  Form
	http  *http.Client
	tr    Translator
	state State
}

// New returns an idle controller.
func New(baseURL string, f Form, opts ...Option) *Controller {
	c := &Controller{
		base: strings.TrimRight(baseURL, "/"),
		form: f,
		http: &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() State {
	s := c.state
	s.FieldErrors = maps.Clone(c.state.FieldErrors)
	return s
}

// Submit validates, posts, and folds the response into State.
func (c *Controller) Submit(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.state.Submitting {
		s := c.snapshot()
		c.mu.Unlock()
		return s, ErrBusy
	}

	c.state = State{}
	if errs := c.form.Validate(); len(errs) > 0 {
		c.state.FieldErrors = make(map[string]string, len(errs))
		for _, e := range errs {
			c.state.FieldErrors[e.Field] = c.translate(e.Message)
		}
		s := c.snapshot()
		c.mu.Unlock()
		return s, nil
	}

	c.state.Submitting = true
	body, err := json.Marshal(c.form.Payload())
	c.mu.Unlock()
	if err != nil {
		return c.finish(func() { c.state.GeneralError = c.translateOr(KeyGeneric, FallbackGeneric) }), nil
	}

	status, env, err := c.post(ctx, body)
	if err != nil {
		return c.finish(func() { c.state.GeneralError = c.translateOr(KeyNetwork, FallbackNetwork) }), nil
	}

	return c.finish(func() {
		switch {
		case status >= 200 && status < 300:
			c.state.Success = true
			c.form.Reset()
		case status == http.StatusConflict && c.form.ConflictField() != "":
			c.state.FieldErrors = map[string]string{c.form.ConflictField(): c.serverMessage(env)}
		default:
			c.state.GeneralError = c.serverMessage(env)
		}
	}), nil
}

// finish clears Submitting and applies fn under the lock.
func (c *Controller) finish(fn func()) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Submitting = false
	fn()
	return c.snapshot()
}

func (c *Controller) post(ctx context.Context, body []byte) (int, form.Envelope, error) {
	var env form.Envelope
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+c.form.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return 0, env, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, env, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, env, err
	}
	_ = json.Unmarshal(raw, &env) // non-JSON bodies fall back to generic text
	return resp.StatusCode, env, nil
}

func (c *Controller) serverMessage(env form.Envelope) string {
	if env.Error != "" {
		return c.translate(env.Error)
	}
	return c.translateOr(KeyGeneric, FallbackGeneric)
}

func (c *Controller) translate(key string) string {
	if c.tr == nil {
		return key
	}
	return c.tr.Translate(key)
}

func (c *Controller) translateOr(key, fallback string) string {
	if c.tr == nil {
		return fallback
	}
	if s := c.tr.Translate(key); s != "" && s != key {
		return s
	}
	return fallback
}
