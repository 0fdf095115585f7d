// internal/form/respond.go
//
// Sendero – Forms subsystem: HTTP envelope and handler guards.
//
// Context
//   Every form endpoint answers with the same JSON envelope:
//
//       {"success": true,  "data":  {"message": "…"}}
//       {"success": false, "error": "…"}
//
//   The one exception is 405, which carries only {"error": "Method not
//   allowed"}.  PostOnly and Recover wrap component handlers so neither a
//   stray verb nor a panic ever reaches the framework default pages.
//
//   Framing is checked on the whole body: trailing bytes after the value
//   make it malformed (500), while any well-formed JSON value decodes and
//   goes on to validation, so `[]`, `42`, and `null` all end in a 400.
//   Bodies over the cap get a 413 of their own.
//
//------------------------------------------------------------------------------

package form

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/senderotrails/site/internal/logger"
	"github.com/senderotrails/site/internal/metrics"
)

// Shared response texts.
const (
	MsgMethodNotAllowed = "Method not allowed"
	MsgUnexpected       = "An unexpected error occurred. Please try again."
	MsgTooLarge         = "Request body is too large"
)

// MaxBodyBytes caps a text form body.  Field lengths have no upper bound
// of their own; this is a transport limit answered with 413.
const MaxBodyBytes = 1 << 20

// Decode failures.
var (
	ErrBodyTooLarge = errors.New("form: request body too large")
	ErrMalformed    = errors.New("form: malformed JSON")
)

// Envelope is the uniform response body.
type Envelope struct {
	Success bool          `json:"success"`
	Data    *Confirmation `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Confirmation is the data payload of a successful submission.
type Confirmation struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// WriteJSON encodes v with status.  Encoding errors are logged only; the
// header is already on the wire by then.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Warnw("response encode failed", "err", err)
	}
}

// Succeed writes a success envelope.
func Succeed(w http.ResponseWriter, r *http.Request, status int, c Confirmation) {
	WriteJSON(w, r, status, Envelope{Success: true, Data: &c})
}

// Fail writes a failure envelope.
func Fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteJSON(w, r, status, Envelope{Success: false, Error: msg})
}

// DecodeJSON reads at most limit bytes of r.Body into dst.  It fails with
// ErrBodyTooLarge past the limit and ErrMalformed when the body is not
// exactly one JSON value.  A well-formed value of the wrong shape (an
// array where an object is expected, a number for a string field) is not
// an error; the mismatched parts stay zero for the validator to report.
func DecodeJSON(r *http.Request, dst any, limit int64) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return err
	}
	if int64(len(raw)) > limit {
		return ErrBodyTooLarge
	}
	if !json.Valid(raw) {
		return ErrMalformed
	}
	var te *json.UnmarshalTypeError
	if err := json.Unmarshal(raw, dst); err != nil && !errors.As(err, &te) {
		return err
	}
	return nil
}

// FailDecode answers a DecodeJSON error.  An oversized body is the
// client's problem (413, warn); anything else is a 500 logged as an error.
func FailDecode(w http.ResponseWriter, r *http.Request, formID string, err error) {
	log := logger.FromContext(r.Context()).With("form", formID, "stage", "parsing")
	if errors.Is(err, ErrBodyTooLarge) {
		log.Warnw("request body too large", "err", err)
		metrics.FormSubmissions.WithLabelValues(formID, metrics.OutcomeInvalid).Inc()
		Fail(w, r, http.StatusRequestEntityTooLarge, MsgTooLarge)
		return
	}
	log.Errorw("request body unreadable", "err", err)
	metrics.FormSubmissions.WithLabelValues(formID, metrics.OutcomeError).Inc()
	Fail(w, r, http.StatusInternalServerError, MsgUnexpected)
}

// -----------------------------------------------------------------------------
// Guards
// -----------------------------------------------------------------------------

// PostOnly answers every verb except POST with 405 before next runs.
func PostOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			WriteJSON(w, r, http.StatusMethodNotAllowed, map[string]string{"error": MsgMethodNotAllowed})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Recover converts a panic in next into a logged 500 with the generic
// message.
func Recover(formID string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.FromContext(r.Context()).Errorw("form handler panic",
					"form", formID, "panic", rec)
				Fail(w, r, http.StatusInternalServerError, MsgUnexpected)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Endpoint stacks Recover and PostOnly around h.
func Endpoint(formID string, h http.HandlerFunc) http.Handler {
	return Recover(formID, PostOnly(h))
}
