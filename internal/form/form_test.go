package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*──────────────────────────── field predicates ─────────────────────────────*/

func TestIsValidEmail(t *testing.T) {
	cases := map[string]bool{
		"rider@example.com":    true,
		"a.b+c@sub.domain.io":  true,
		"no-at-sign.com":       false,
		"two@@example.com":     false,
		"nodot@example":        false,
		"space in@example.com": false,
		"":                     false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsValidEmail(in), in)
	}
}

func TestEnumPredicates(t *testing.T) {
	assert.True(t, IsValidTourDuration("weekend"))
	assert.False(t, IsValidTourDuration(" weekend"))
	assert.True(t, IsValidFitnessLevel("moderate"))
	assert.False(t, IsValidFitnessLevel("elite"))
	assert.True(t, IsValidTravelTimeline("later"))
	assert.False(t, IsValidTravelTimeline("never"))
	assert.True(t, IsValidContactSubject("custom"))
	assert.False(t, IsValidContactSubject(""))
}

func TestIsValidInterestTypes(t *testing.T) {
	assert.True(t, IsValidInterestTypes([]string{"hike", "coffee_farm"}))
	assert.False(t, IsValidInterestTypes(nil))
	assert.False(t, IsValidInterestTypes([]string{}))
	assert.False(t, IsValidInterestTypes([]string{"hike", "skydive"}))
}

/*──────────────────────────── input decoding ───────────────────────────────*/

func TestTextDecodesLoosely(t *testing.T) {
	var in WaitlistInput
	body := `{"email":42,"tourDuration":null,"interestTypes":"hike","fitnessLevel":"beginner"}`
	require.NoError(t, json.Unmarshal([]byte(body), &in))

	assert.False(t, in.Email.Present)
	assert.False(t, in.TourDuration.Present)
	assert.False(t, in.InterestTypes.Present)
	assert.Equal(t, T("beginner"), in.FitnessLevel)
	assert.False(t, in.TravelTimeline.Present)
}

func TestTextListNonStringElements(t *testing.T) {
	var l TextList
	require.NoError(t, json.Unmarshal([]byte(`["hike", 3, null]`), &l))
	assert.True(t, l.Present)
	assert.Equal(t, []string{"hike", "", ""}, l.Values)
	assert.False(t, IsValidInterestTypes(l.Values))
}

func TestMalformedJSONFails(t *testing.T) {
	var in ContactInput
	assert.Error(t, json.Unmarshal([]byte(`{"name":`), &in))
}

func TestEncodeOmitsAbsent(t *testing.T) {
	b, err := json.Marshal(ContactInput{Name: T("Ana"), Email: T("a@b.co"), Message: T("hello there")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ana","email":"a@b.co","message":"hello there"}`, string(b))
	assert.NotContains(t, string(b), "subject")

	b, err = json.Marshal(WaitlistInput{InterestTypes: L()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"interestTypes":[]}`, string(b))
}

/*──────────────────────────── waitlist ─────────────────────────────────────*/

func validWaitlist() WaitlistInput {
	return WaitlistInput{
		Email:          T("Rider@Example.com "),
		TourDuration:   T("weekend"),
		InterestTypes:  L("hike", "bike"),
		FitnessLevel:   T("moderate"),
		TravelTimeline: T("next_3_months"),
	}
}

func TestValidateWaitlistForm(t *testing.T) {
	assert.Empty(t, ValidateWaitlistForm(validWaitlist()))

	errs := ValidateWaitlistForm(WaitlistInput{})
	assert.Equal(t, strings.Join([]string{
		MsgEmailRequired,
		MsgTourDurationRequired,
		MsgInterestTypesRequired,
		MsgFitnessLevelRequired,
		MsgTravelTimelineRequired,
	}, ","), errs.Join())

	bad := WaitlistInput{
		Email:          T("nope"),
		TourDuration:   T("fortnight"),
		InterestTypes:  L("hike", "surf"),
		FitnessLevel:   T("elite"),
		TravelTimeline: T("someday"),
	}
	assert.Equal(t, map[string]string{
		"email":          MsgEmailInvalid,
		"tourDuration":   MsgTourDurationInvalid,
		"interestTypes":  MsgInterestTypesInvalid,
		"fitnessLevel":   MsgFitnessLevelInvalid,
		"travelTimeline": MsgTravelTimelineInvalid,
	}, ValidateWaitlistForm(bad).ByField())
}

func TestValidateWaitlistEmptyList(t *testing.T) {
	in := validWaitlist()
	in.InterestTypes = L()
	errs := ValidateWaitlistForm(in)
	require.Len(t, errs, 1)
	assert.Equal(t, ValidationError{"interestTypes", MsgInterestTypesRequired}, errs[0])
}

func TestWaitlistToRow(t *testing.T) {
	row := validWaitlist().ToRow()
	assert.Equal(t, "rider@example.com", row.Email)
	assert.Equal(t, "weekend", row.TourDuration)
	assert.Equal(t, JSONList{"hike", "bike"}, row.InterestTypes)
	assert.Equal(t, "rider@example.com", row.UniqueKey())
	assert.Equal(t, "waitlist", row.Table())
	assert.Len(t, row.Columns(), 5)
}

func TestJSONList(t *testing.T) {
	v, err := JSONList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = JSONList{"hike"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["hike"]`, v)

	var l JSONList
	require.NoError(t, l.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, JSONList{"a", "b"}, l)
	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)
	assert.Error(t, l.Scan(12))
}

/*──────────────────────────── contact ──────────────────────────────────────*/

func TestValidateContactForm(t *testing.T) {
	tests := []struct {
		name string
		in   ContactInput
		want string
	}{
		{"valid", ContactInput{Name: T("Ana"), Email: T("a@b.co"), Message: T("I want a tour")}, ""},
		{"empty", ContactInput{}, "nameRequired,emailRequired,messageRequired"},
		{"short", ContactInput{Name: T(" A "), Email: T("a@b.co"), Message: T("hi there")}, "nameTooShort,messageTooShort"},
		{"bad email", ContactInput{Name: T("Ana"), Email: T("a@b"), Message: T("I want a tour")}, "emailInvalid"},
		{"bad subject", ContactInput{Name: T("Ana"), Email: T("a@b.co"), Subject: T("spam"), Message: T("I want a tour")}, "subjectInvalid"},
		{"empty subject", ContactInput{Name: T("Ana"), Email: T("a@b.co"), Subject: T(""), Message: T("I want a tour")}, ""},
		{"multibyte name", ContactInput{Name: T("Él"), Email: T("a@b.co"), Message: T("Quiero un tour")}, ""},
		{"two-letter name", ContactInput{Name: T("Ab"), Email: T("a@b.co"), Message: T("I want a tour")}, ""},
		{"message of ten", ContactInput{Name: T("Ana"), Email: T("a@b.co"), Message: T("  0123456789  ")}, ""},
		{"message of nine", ContactInput{Name: T("Ana"), Email: T("a@b.co"), Message: T("  012345678  ")}, "messageTooShort"},
		{"whitespace name", ContactInput{Name: T(" \t "), Email: T("a@b.co"), Message: T("I want a tour")}, "nameRequired"},
		{"whitespace message", ContactInput{Name: T("Ana"), Email: T("a@b.co"), Message: T("   \n  ")}, "messageRequired"},
		{"very long message", ContactInput{Name: T("Ana"), Email: T("a@b.co"), Message: T(strings.Repeat("ride ", 20000))}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidateContactForm(tc.in).Join())
		})
	}
}

func TestValidatorsAreIdempotent(t *testing.T) {
	contacts := []ContactInput{
		{},
		{Name: T("A"), Email: T("nope"), Subject: T("spam"), Message: T("short")},
		{Name: T("Ana"), Email: T("a@b.co"), Message: T("I want a tour")},
	}
	for _, in := range contacts {
		first := ValidateContactForm(in)
		assert.Equal(t, first, ValidateContactForm(in))
		assert.NotNil(t, first)
	}

	waitlists := []WaitlistInput{{}, validWaitlist(), {Email: T("x"), InterestTypes: L("surf")}}
	for _, in := range waitlists {
		first := ValidateWaitlistForm(in)
		assert.Equal(t, first, ValidateWaitlistForm(in))
		assert.NotNil(t, first)
	}
}

func TestContactToRow(t *testing.T) {
	in := ContactInput{Name: T("  Ana "), Email: T("A@B.co"), Message: T(" I want a tour ")}
	row := in.ToRow("id-1", "")
	assert.Equal(t, ContactRow{ID: "id-1", Email: "a@b.co", Name: "Ana", Message: "I want a tour", Locale: "en"}, row)
	assert.Nil(t, row.Subject)

	in.Subject = T("tour")
	row = in.ToRow("id-2", " ES ")
	require.NotNil(t, row.Subject)
	assert.Equal(t, "tour", *row.Subject)
	assert.Equal(t, "es", row.Locale)
}

/*──────────────────────────── errors ───────────────────────────────────────*/

func TestIsValidationError(t *testing.T) {
	errs := Errors{{"email", MsgEmailRequired}}
	assert.True(t, IsValidationError(fmt.Errorf("submit: %w", errs)))
	assert.False(t, IsValidationError(errors.New("boom")))
	assert.Contains(t, errs.Error(), MsgEmailRequired)
}

/*──────────────────────────── respond ──────────────────────────────────────*/

func TestEnvelopeShapes(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	Succeed(rec, r, http.StatusCreated, Confirmation{Message: "ok"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"success":true,"data":{"message":"ok"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Fail(rec, r, http.StatusBadRequest, "nope")
	assert.JSONEq(t, `{"success":false,"error":"nope"}`, rec.Body.String())
}

func TestEndpointGuards(t *testing.T) {
	called := false
	h := Endpoint("test", func(w http.ResponseWriter, r *http.Request) {
		called = true
		panic("boom")
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
	assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
	assert.False(t, called)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}")))
	assert.True(t, called)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"`+MsgUnexpected+`"}`, rec.Body.String())
}

func TestDecodeJSONLimit(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("a", 64)+`"}`))
	var in ContactInput
	assert.ErrorIs(t, DecodeJSON(r, &in, 16), ErrBodyTooLarge)
}

func TestDecodeJSONFraming(t *testing.T) {
	tests := []struct {
		body    string
		wantErr error
		want    ContactInput
	}{
		{`{"name":"Ana"}`, nil, ContactInput{Name: T("Ana")}},
		{`{"name":"Ana"}xyz`, ErrMalformed, ContactInput{}},
		{`{"name":"Ana"}{}`, ErrMalformed, ContactInput{}},
		{``, ErrMalformed, ContactInput{}},
		{`[]`, nil, ContactInput{}},
		{`"x"`, nil, ContactInput{}},
		{`42`, nil, ContactInput{}},
		{`null`, nil, ContactInput{}},
	}
	for _, tc := range tests {
		t.Run(tc.body, func(t *testing.T) {
			var in ContactInput
			err := DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body)), &in, MaxBodyBytes)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, in)
		})
	}
}

func TestDecodeJSONPlainFieldTypeMismatch(t *testing.T) {
	var dst struct {
		Category string `json:"category"`
		Message  string `json:"message"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"category":5,"message":"hello"}`))
	require.NoError(t, DecodeJSON(r, &dst, MaxBodyBytes))
	assert.Empty(t, dst.Category)
	assert.Equal(t, "hello", dst.Message)
}

func TestFailDecode(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)

	rec := httptest.NewRecorder()
	FailDecode(rec, r, "test", ErrBodyTooLarge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	FailDecode(rec, r, "test", ErrMalformed)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"`+MsgUnexpected+`"}`, rec.Body.String())
}
