package waitlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senderotrails/site/internal/component"
	"github.com/senderotrails/site/internal/database"
	"github.com/senderotrails/site/internal/form"
	"github.com/senderotrails/site/internal/store"
)

const validBody = `{"email":"test@example.com","tourDuration":"weekend","interestTypes":["hike","bike"],` +
	`"fitnessLevel":"beginner","travelTimeline":"next_3_months"}`

type spySink struct {
	calls int
	err   error
	rows  []store.Row
}

func (s *spySink) Insert(_ context.Context, row store.Row) error {
	s.calls++
	s.rows = append(s.rows, row)
	return s.err
}

func serve(t *testing.T, sink store.Sink, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	New(sink).Routes(r)

	req := httptest.NewRequest(method, Path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSubmitCreated(t *testing.T) {
	sink := &spySink{}
	rec := serve(t, sink, http.MethodPost, validBody)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"message":"Successfully added to waitlist"}}`, rec.Body.String())
	require.Len(t, sink.rows, 1)
	assert.Equal(t, form.WaitlistRow{
		Email:          "test@example.com",
		TourDuration:   "weekend",
		InterestTypes:  form.JSONList{"hike", "bike"},
		FitnessLevel:   "beginner",
		TravelTimeline: "next_3_months",
	}, sink.rows[0])
}

func TestSubmitNormalizesEmail(t *testing.T) {
	sink := &spySink{}
	body := strings.Replace(validBody, "test@example.com", "  Test@Example.COM ", 1)
	rec := serve(t, sink, http.MethodPost, body)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "test@example.com", sink.rows[0].(form.WaitlistRow).Email)
}

func TestSubmitDuplicate(t *testing.T) {
	sink := &spySink{err: &store.Error{Code: "23505", Message: "duplicate key"}}
	rec := serve(t, sink, http.MethodPost, validBody)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"This email is already on the waitlist"}`, rec.Body.String())
}

func TestSubmitDuplicateMemorySink(t *testing.T) {
	sink := store.NewMemory()
	assert.Equal(t, http.StatusCreated, serve(t, sink, http.MethodPost, validBody).Code)

	upper := strings.Replace(validBody, "test@example.com", "TEST@example.com", 1)
	assert.Equal(t, http.StatusConflict, serve(t, sink, http.MethodPost, upper).Code)
}

func TestSubmitStoreFailure(t *testing.T) {
	sink := &spySink{err: &store.Error{Code: "08006", Message: "connection failure"}}
	rec := serve(t, sink, http.MethodPost, validBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Failed to join waitlist. Please try again."}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "connection failure")
}

func TestSubmitValidation(t *testing.T) {
	sink := &spySink{}
	rec := serve(t, sink, http.MethodPost, `{"email":"nope","interestTypes":["hike","ski"]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"`+strings.Join([]string{
		form.MsgEmailInvalid,
		form.MsgTourDurationRequired,
		form.MsgInterestTypesInvalid,
		form.MsgFitnessLevelRequired,
		form.MsgTravelTimelineRequired,
	}, ",")+`"}`, rec.Body.String())
	assert.Zero(t, sink.calls)
}

func TestSubmitWrongTypesAreInvalidNotFatal(t *testing.T) {
	sink := &spySink{}
	rec := serve(t, sink, http.MethodPost, `{"email":42,"tourDuration":true,"interestTypes":"hike",`+
		`"fitnessLevel":"beginner","travelTimeline":"later"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), form.MsgEmailRequired)
	assert.Contains(t, rec.Body.String(), form.MsgInterestTypesRequired)
}

func TestSubmitMalformedJSON(t *testing.T) {
	sink := &spySink{}
	rec := serve(t, sink, http.MethodPost, `{"email":`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"`+form.MsgUnexpected+`"}`, rec.Body.String())
	assert.Zero(t, sink.calls)
}

func TestSubmitTrailingDataIsMalformed(t *testing.T) {
	sink := &spySink{}
	rec := serve(t, sink, http.MethodPost, validBody+"xyz")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"`+form.MsgUnexpected+`"}`, rec.Body.String())
	assert.Zero(t, sink.calls)
}

func TestSubmitNonObjectBodiesAreInvalid(t *testing.T) {
	all := strings.Join([]string{
		form.MsgEmailRequired,
		form.MsgTourDurationRequired,
		form.MsgInterestTypesRequired,
		form.MsgFitnessLevelRequired,
		form.MsgTravelTimelineRequired,
	}, ",")
	for _, body := range []string{`[]`, `"x"`, `42`, `null`, ` {} `} {
		t.Run(body, func(t *testing.T) {
			sink := &spySink{}
			rec := serve(t, sink, http.MethodPost, body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"success":false,"error":"`+all+`"}`, rec.Body.String())
			assert.Zero(t, sink.calls)
		})
	}
}

func TestSubmitOversizedBody(t *testing.T) {
	sink := &spySink{}
	body := `{"email":"` + strings.Repeat("a", form.MaxBodyBytes) + `@example.com"}`
	rec := serve(t, sink, http.MethodPost, body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"`+form.MsgTooLarge+`"}`, rec.Body.String())
	assert.Zero(t, sink.calls)
}

func TestMethodNotAllowed(t *testing.T) {
	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		sink := &spySink{}
		rec := serve(t, sink, m, validBody)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, m)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
		assert.Zero(t, sink.calls, m)
	}
}

type panicSink struct{}

func (panicSink) Insert(context.Context, store.Row) error { panic("driver bug") }

func TestSubmitPanicRecovered(t *testing.T) {
	rec := serve(t, panicSink{}, http.MethodPost, validBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"`+form.MsgUnexpected+`"}`, rec.Body.String())
}

func TestInitRequiresSink(t *testing.T) {
	c := &Component{}
	assert.Error(t, c.Init(component.Services{}))
	require.NoError(t, c.Init(component.Services{Sink: store.NewMemory()}))
}

func TestMigrationsPerDriver(t *testing.T) {
	c := &Component{}
	assert.Contains(t, c.Migrations(database.DriverMySQL)[0], "AUTO_INCREMENT")
	assert.Contains(t, c.Migrations(database.DriverPostgres)[0], "BIGSERIAL")
}
