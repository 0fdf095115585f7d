// internal/form/waitlist.go
//
// Sendero – Forms subsystem: waitlist form.
//
// Context
//   Prospective riders register interest with five required fields.  The
//   API speaks camelCase; the waitlist table uses snake_case.  ToRow is the
//   only place that renaming happens, and it changes no values apart from
//   normalising the email address.
//
//------------------------------------------------------------------------------

package form

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Waitlist messages.  These are shown to the user verbatim.
const (
	MsgEmailRequired          = "Email is required"
	MsgEmailInvalid           = "Please enter a valid email address"
	MsgTourDurationRequired   = "Please select a tour duration"
	MsgTourDurationInvalid    = "Invalid tour duration"
	MsgInterestTypesRequired  = "Please select at least one interest"
	MsgInterestTypesInvalid   = "Invalid interest type"
	MsgFitnessLevelRequired   = "Please select a fitness level"
	MsgFitnessLevelInvalid    = "Invalid fitness level"
	MsgTravelTimelineRequired = "Please select a travel timeline"
	MsgTravelTimelineInvalid  = "Invalid travel timeline"
)

// WaitlistInput is the request body of POST /api/waitlist.
type WaitlistInput struct {
	Email          Text     `json:"email,omitzero"`
	TourDuration   Text     `json:"tourDuration,omitzero"`
	InterestTypes  TextList `json:"interestTypes,omitzero"`
	FitnessLevel   Text     `json:"fitnessLevel,omitzero"`
	TravelTimeline Text     `json:"travelTimeline,omitzero"`
}

// ValidateWaitlistForm checks every field in declaration order and returns
// one error per invalid field.  The result is never nil.
func ValidateWaitlistForm(in WaitlistInput) Errors {
	errs := Errors{}

	switch {
	case in.Email.Blank():
		errs = append(errs, ValidationError{"email", MsgEmailRequired})
	case !IsValidEmail(in.Email.Trimmed()):
		errs = append(errs, ValidationError{"email", MsgEmailInvalid})
	}

	errs = checkEnum(errs, "tourDuration", in.TourDuration,
		IsValidTourDuration, MsgTourDurationRequired, MsgTourDurationInvalid)

	switch {
	case !in.InterestTypes.Present || len(in.InterestTypes.Values) == 0:
		errs = append(errs, ValidationError{"interestTypes", MsgInterestTypesRequired})
	case !IsValidInterestTypes(in.InterestTypes.Values):
		errs = append(errs, ValidationError{"interestTypes", MsgInterestTypesInvalid})
	}

	errs = checkEnum(errs, "fitnessLevel", in.FitnessLevel,
		IsValidFitnessLevel, MsgFitnessLevelRequired, MsgFitnessLevelInvalid)
	errs = checkEnum(errs, "travelTimeline", in.TravelTimeline,
		IsValidTravelTimeline, MsgTravelTimelineRequired, MsgTravelTimelineInvalid)

	return errs
}

// checkEnum applies presence then membership to a required enum field.
// The raw value is compared, so " weekend" is not "weekend".
func checkEnum(errs Errors, field string, t Text, valid func(string) bool, required, invalid string) Errors {
	switch {
	case !t.Present || t.Value == "":
		return append(errs, ValidationError{field, required})
	case !valid(t.Value):
		return append(errs, ValidationError{field, invalid})
	}
	return errs
}

// -----------------------------------------------------------------------------
// Persistence shape
// -----------------------------------------------------------------------------

// WaitlistRow is one row of the waitlist table.
type WaitlistRow struct {
	Email          string   `db:"email"           json:"email"`
	TourDuration   string   `db:"tour_duration"   json:"tour_duration"`
	InterestTypes  JSONList `db:"interest_types"  json:"interest_types"`
	FitnessLevel   string   `db:"fitness_level"   json:"fitness_level"`
	TravelTimeline string   `db:"travel_timeline" json:"travel_timeline"`
}

// Table names the destination table.
func (WaitlistRow) Table() string { return "waitlist" }

// Columns lists the insert columns in order.
func (WaitlistRow) Columns() []string {
	return []string{"email", "tour_duration", "interest_types", "fitness_level", "travel_timeline"}
}

// UniqueKey is the value guarded by the waitlist email constraint.
func (r WaitlistRow) UniqueKey() string { return r.Email }

// ToRow renames a validated input into its table shape.  Call only after
// ValidateWaitlistForm returned no errors.
func (in WaitlistInput) ToRow() WaitlistRow {
	return WaitlistRow{
		Email:          NormalizeEmail(in.Email.Value),
		TourDuration:   in.TourDuration.Value,
		InterestTypes:  append(JSONList{}, in.InterestTypes.Values...),
		FitnessLevel:   in.FitnessLevel.Value,
		TravelTimeline: in.TravelTimeline.Value,
	}
}

// NormalizeEmail trims and lowercases an address for storage.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// -----------------------------------------------------------------------------
// JSONList
// -----------------------------------------------------------------------------

// JSONList stores a string slice as a JSON array column.
type JSONList []string

// Value implements driver.Valuer.
func (l JSONList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *JSONList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("JSONList: cannot scan %T", src)
	}
	return json.Unmarshal(raw, (*[]string)(l))
}
