package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunWaitlistSuccess(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/waitlist", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"message":"Successfully added to waitlist"}}`))
	}))
	defer srv.Close()

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"waitlist",
		"-base", srv.URL,
		"-email", "rider@example.com",
		"-duration", "weekend",
		"-interests", "hike, coffee_farm",
		"-fitness", "beginner",
		"-timeline", "later",
	}, &out, &errOut)

	assert.Equal(t, 0, code, errOut.String())
	assert.Equal(t, "Successfully added to waitlist\n", out.String())
	assert.Equal(t, []any{"hike", "coffee_farm"}, got["interestTypes"])
}

func TestRunContactValidationInSpanish(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"contact",
		"-base", "http://127.0.0.1:0",
		"-locale", "es",
		"-email", "ana@example.com",
	}, &out, &errOut)

	assert.Equal(t, 1, code)
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "message: ")
	assert.Contains(t, errOut.String(), "name: ")
}

func TestRunUsage(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), nil, &out, &errOut))
	assert.Equal(t, 2, run(context.Background(), []string{"survey"}, &out, &errOut))
	assert.Equal(t, 2, run(context.Background(), []string{"contact", "-bogus"}, &out, &errOut))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a,,b ,"))
	assert.Nil(t, splitList(""))
}
