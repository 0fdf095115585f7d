// internal/form/fields.go
//
// Sendero – Forms subsystem: field validators.
//
// Context
//   Each helper is a total predicate over one raw value.  Aggregate
//   validators (waitlist.go, contact.go) call them after the presence check,
//   and the client controller calls them again for inline feedback, so the
//   rules live in exactly one place.
//
//------------------------------------------------------------------------------

package form

import "regexp"

// emailPattern accepts the conventional local@domain.tld shape.  It is not
// RFC 5322; whitespace anywhere is rejected and the domain needs a dot.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Closed option sets.  Order is the display order used by the site.
var (
	TourDurations   = []string{"one_day", "weekend", "one_week"}
	InterestTypes   = []string{"hike", "bike", "e_bike", "women_only", "coffee_farm"}
	FitnessLevels   = []string{"beginner", "moderate"}
	TravelTimelines = []string{"next_3_months", "next_6_months", "later"}
	ContactSubjects = []string{"general", "tour", "custom", "feedback"}
)

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool { return emailPattern.MatchString(s) }

// IsValidTourDuration reports membership in TourDurations.
func IsValidTourDuration(s string) bool { return optionAllowed(TourDurations, s) }

// IsValidFitnessLevel reports membership in FitnessLevels.
func IsValidFitnessLevel(s string) bool { return optionAllowed(FitnessLevels, s) }

// IsValidTravelTimeline reports membership in TravelTimelines.
func IsValidTravelTimeline(s string) bool { return optionAllowed(TravelTimelines, s) }

// IsValidContactSubject reports membership in ContactSubjects.  Callers
// decide whether an empty subject counts as "not provided".
func IsValidContactSubject(s string) bool { return optionAllowed(ContactSubjects, s) }

// IsValidInterestTypes is true when vals is non-empty and every element is
// a known interest.  There is no partial acceptance.
func IsValidInterestTypes(vals []string) bool {
	if len(vals) == 0 {
		return false
	}
	for _, v := range vals {
		if !optionAllowed(InterestTypes, v) {
			return false
		}
	}
	return true
}

func optionAllowed(opts []string, v string) bool {
	for _, o := range opts {
		if o == v {
			return true
		}
	}
	return false
}
