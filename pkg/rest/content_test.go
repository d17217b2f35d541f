package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutBodyRoundTrip(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x00, 0xFE, 0xFF}

	var gotBody []byte
	var gotLength int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLength = r.ContentLength
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	c := NewClient()
	res, err := c.Resource(srv.URL).
		Content(payload).
		Put(context.Background())

	require.NoError(t, err)
	require.True(t, res.Ok())
	assert.Equal(t, payload, gotBody, "transmitted body must equal the exact bytes passed in")
	assert.Equal(t, int64(len(payload)), gotLength, "Content-Length must equal the byte count")
}

func TestPostTextPayload(t *testing.T) {
	var gotBody string
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = io.WriteString(w, "created")
	}))
	defer srv.Close()

	c := NewClient()
	res, err := c.Resource(srv.URL).
		ContentType("text/plain").
		Text("hello there").
		Post(context.Background())

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "hello there", gotBody)
	assert.Equal(t, "created", res.Text())
}

func TestEmptyTextPayloadIsValid(t *testing.T) {
	var gotLength int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLength = r.ContentLength
	}))
	defer srv.Close()

	c := NewClient()
	res, err := c.Resource(srv.URL).Text("").Put(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Ok())
	assert.Equal(t, int64(0), gotLength)
}

func TestContentRequestRetryConfiguration(t *testing.T) {
	srv, calls := flakyServer(t, 2, http.StatusBadGateway, "stored")

	c := fastClient()
	res, err := c.Resource(srv.URL).
		Text("payload").
		Retry(3, false).
		Put(context.Background())

	require.NoError(t, err)
	assert.True(t, res.Ok())
	assert.Equal(t, "stored", res.Text())
	assert.Equal(t, int32(3), calls.Load(), "each retry must resend the full body")
}
