// internal/form/errors.go
//
// Sendero – Forms subsystem: validation error values.
//
// Context
//   Validators return errors as data, never as panics.  Errors is the slice
//   type every aggregate validator returns; it also satisfies the error
//   interface so service code can pass it up and let handlers recognise a
//   user error with IsValidationError.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"strings"
)

// ValidationError describes one failed field.  Message is user-facing text
// for the waitlist and an i18n key for the contact form.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is an ordered list of field failures.  Order follows field
// declaration order.
type Errors []ValidationError

func (e Errors) Error() string { return "form validation failed: " + e.Join() }

// Join concatenates the messages with "," in order.  This is the body of a
// 400 response.
func (e Errors) Join() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, ",")
}

// ByField folds the list into field → message.  The first message wins,
// although validators never emit two for one field.
func (e Errors) ByField() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		if _, dup := out[fe.Field]; !dup {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

// IsValidationError reports whether err carries Errors.
func IsValidationError(err error) bool {
	var ve Errors
	return errors.As(err, &ve)
}
