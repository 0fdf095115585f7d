// internal/submission/forms.go
//
// Sendero – Client-side form values.
//
// Context
//   WaitlistForm and ContactForm hold what a visitor typed as plain
//   strings.  They build the same input model the server decodes, so the
//   client pre-check and the authoritative check share one validator.
//
//------------------------------------------------------------------------------

package submission

import (
	"github.com/senderotrails/site/internal/form"
)

// WaitlistForm holds the waitlist signup values.
type WaitlistForm struct {
	Email          string
	TourDuration   string
	InterestTypes  []string
	FitnessLevel   string
	TravelTimeline string
}

func (f *WaitlistForm) input() form.WaitlistInput {
	return form.WaitlistInput{
		Email:          form.T(f.Email),
		TourDuration:   form.T(f.TourDuration),
		InterestTypes:  form.L(f.InterestTypes...),
		FitnessLevel:   form.T(f.FitnessLevel),
		TravelTimeline: form.T(f.TravelTimeline),
	}
}

// Endpoint returns the waitlist API path.
func (f *WaitlistForm) Endpoint() string { return "/api/waitlist" }

// Validate runs ValidateWaitlistForm on the current values.
func (f *WaitlistForm) Validate() form.Errors { return form.ValidateWaitlistForm(f.input()) }

// Payload is the camelCase request body.
func (f *WaitlistForm) Payload() any { return f.input() }

// Reset clears every value.
func (f *WaitlistForm) Reset() { *f = WaitlistForm{} }

// ConflictField names the field a duplicate signup is reported on.
func (f *WaitlistForm) ConflictField() string { return "email" }

// ContactForm holds the contact values.  Locale selects the localized
// endpoint and survives Reset.
type ContactForm struct {
	Name    string
	Email   string
	Subject string
	Message string
	Locale  string
}

func (f *ContactForm) input() form.ContactInput {
	in := form.ContactInput{
		Name:    form.T(f.Name),
		Email:   form.T(f.Email),
		Message: form.T(f.Message),
	}
	if f.Subject != "" {
		in.Subject = form.T(f.Subject)
	}
	return in
}

// Endpoint returns the localized path, or the bare one without a Locale.
func (f *ContactForm) Endpoint() string {
	if f.Locale == "" {
		return "/api/contact"
	}
	return "/" + f.Locale + "/api/contact"
}

// Validate runs ValidateContactForm on the current values.
func (f *ContactForm) Validate() form.Errors { return form.ValidateContactForm(f.input()) }

// Payload is the request body; an empty subject is left out.
func (f *ContactForm) Payload() any { return f.input() }

// Reset clears the values and keeps Locale.
func (f *ContactForm) Reset() { *f = ContactForm{Locale: f.Locale} }

// ConflictField is empty; the contact form has no uniqueness rule.
func (f *ContactForm) ConflictField() string { return "" }
