// internal/form/contact.go
//
// Sendero – Forms subsystem: contact form.
//
// Context
//   Messages to the operators carry a name, an email, an optional subject,
//   and free text.  Error messages here are i18n keys; the client resolves
//   them through its catalog.  The stored row keeps camelCase keys and adds
//   the locale taken from the route.
//
//------------------------------------------------------------------------------

package form

import (
	"strings"
	"unicode/utf8"
)

// Contact i18n keys.
const (
	KeyNameRequired    = "nameRequired"
	KeyNameTooShort    = "nameTooShort"
	KeyEmailRequired   = "emailRequired"
	KeyEmailInvalid    = "emailInvalid"
	KeySubjectInvalid  = "subjectInvalid"
	KeyMessageRequired = "messageRequired"
	KeyMessageTooShort = "messageTooShort"
)

// Length floors, counted in characters after trimming.
const (
	NameMinLength    = 2
	MessageMinLength = 10
)

// DefaultLocale is stored when the route carries none.
const DefaultLocale = "en"

// ContactInput is the request body of POST /{locale}/api/contact.
type ContactInput struct {
	Name    Text `json:"name,omitzero"`
	Email   Text `json:"email,omitzero"`
	Subject Text `json:"subject,omitzero"`
	Message Text `json:"message,omitzero"`
}

// ValidateContactForm checks name, email, subject, and message in that
// order.  An absent or empty subject produces no error.
func ValidateContactForm(in ContactInput) Errors {
	errs := Errors{}

	switch name := in.Name.Trimmed(); {
	case in.Name.Blank():
		errs = append(errs, ValidationError{"name", KeyNameRequired})
	case utf8.RuneCountInString(name) < NameMinLength:
		errs = append(errs, ValidationError{"name", KeyNameTooShort})
	}

	switch {
	case in.Email.Blank():
		errs = append(errs, ValidationError{"email", KeyEmailRequired})
	case !IsValidEmail(in.Email.Trimmed()):
		errs = append(errs, ValidationError{"email", KeyEmailInvalid})
	}

	if in.Subject.Present && in.Subject.Value != "" && !IsValidContactSubject(in.Subject.Value) {
		errs = append(errs, ValidationError{"subject", KeySubjectInvalid})
	}

	switch msg := in.Message.Trimmed(); {
	case in.Message.Blank():
		errs = append(errs, ValidationError{"message", KeyMessageRequired})
	case utf8.RuneCountInString(msg) < MessageMinLength:
		errs = append(errs, ValidationError{"message", KeyMessageTooShort})
	}

	return errs
}

// -----------------------------------------------------------------------------
// Persistence shape
// -----------------------------------------------------------------------------

// ContactRow is one row of the contact table.  Subject is nil when the
// visitor chose none.
type ContactRow struct {
	ID      string  `db:"id"      json:"id"`
	Email   string  `db:"email"   json:"email"`
	Name    string  `db:"name"    json:"name"`
	Subject *string `db:"subject" json:"subject"`
	Message string  `db:"message" json:"message"`
	Locale  string  `db:"locale"  json:"locale"`
}

// Table names the destination table.
func (ContactRow) Table() string { return "contact" }

// Columns lists the insert columns in order.
func (ContactRow) Columns() []string {
	return []string{"id", "email", "name", "subject", "message", "locale"}
}

// ToRow builds the stored shape for a validated input.  id is generated by
// the caller; locale falls back to DefaultLocale.
func (in ContactInput) ToRow(id, locale string) ContactRow {
	var subject *string
	if in.Subject.Present && in.Subject.Value != "" {
		s := in.Subject.Value
		subject = &s
	}
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == "" {
		locale = DefaultLocale
	}
	return ContactRow{
		ID:      id,
		Email:   NormalizeEmail(in.Email.Value),
		Name:    in.Name.Trimmed(),
		Subject: subject,
		Message: in.Message.Trimmed(),
		Locale:  locale,
	}
}
