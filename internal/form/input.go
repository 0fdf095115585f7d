// internal/form/input.go
//
// Sendero – Forms subsystem: untrusted input model.
//
// Context
//   Browsers post JSON that may omit fields, send null, or carry the wrong
//   type.  Text and TextList decode any of those shapes without failing so
//   only malformed JSON aborts a request.  Validators then reason about
//   presence explicitly instead of guessing from zero values.
//
// Rules
//   •  A JSON string sets Present.  null, numbers, bools, objects, and
//      arrays leave Text absent.
//   •  A JSON array sets TextList.Present.  Non-string elements decode to
//      "", which no enum accepts, so one bad element spoils the list.
//   •  Absent values are dropped on encode (omitzero) so a Go client can
//      leave an optional field out of the payload entirely.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Text is an optional string field.
type Text struct {
	Value   string
	Present bool
}

// T returns a present Text holding s.
func T(s string) Text { return Text{Value: s, Present: true} }

// Trimmed returns the value without surrounding whitespace.
func (t Text) Trimmed() string { return strings.TrimSpace(t.Value) }

// Blank reports whether the field is absent or whitespace only.
func (t Text) Blank() bool { return !t.Present || t.Trimmed() == "" }

// IsZero lets encoding/json omit absent fields under omitzero.
func (t Text) IsZero() bool { return !t.Present }

// UnmarshalJSON implements json.Unmarshaler.  It never returns an error for
// well-formed JSON.
func (t *Text) UnmarshalJSON(b []byte) error {
	*t = Text{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '"' {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t.Value, t.Present = s, true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Present {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// TextList is an optional array-of-strings field.
type TextList struct {
	Values  []string
	Present bool
}

// L returns a present TextList holding vals.
func L(vals ...string) TextList {
	return TextList{Values: append([]string{}, vals...), Present: true}
}

// IsZero lets encoding/json omit absent lists under omitzero.
func (l TextList) IsZero() bool { return !l.Present }

// UnmarshalJSON implements json.Unmarshaler.
func (l *TextList) UnmarshalJSON(b []byte) error {
	*l = TextList{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	l.Present = true
	l.Values = make([]string, 0, len(raw))
	for _, r := range raw {
		var el Text
		if err := el.UnmarshalJSON(r); err != nil {
			return err
		}
		l.Values = append(l.Values, el.Value) // "" when not a string
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l TextList) MarshalJSON() ([]byte, error) {
	if !l.Present {
		return []byte("null"), nil
	}
	if l.Values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Values)
}
