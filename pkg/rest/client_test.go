package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avalab/restcore/pkg/retry"
)

// fastClient returns a client whose default backoff is short enough for
// tests that exercise the retry loop.
func fastClient(opts ...ClientOption) *Client {
	return NewClient(append(opts, WithBackoff(time.Millisecond, 5*time.Millisecond))...)
}

func flakyServer(t *testing.T, failures int, failStatus int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= int32(failures) {
			http.Error(w, "try later", failStatus)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRetrySucceedsWithinBudget(t *testing.T) {
	srv, calls := flakyServer(t, 2, http.StatusServiceUnavailable, `{"items":[]}`)

	handlerCalled := false
	c := fastClient()
	res, err := c.Resource(srv.URL).
		Retry(3, false).
		Get(context.Background(), OnFailure(func(string, int, []byte) []byte {
			handlerCalled = true
			return nil
		}))

	require.NoError(t, err)
	assert.True(t, res.Ok())
	assert.Equal(t, `{"items":[]}`, res.Text())
	assert.Equal(t, int32(3), calls.Load())
	assert.False(t, handlerCalled, "error handler must not run on eventual success")
}

func TestNotFoundIsNotRetriedByDefault(t *testing.T) {
	srv, calls := flakyServer(t, 10, http.StatusNotFound, "")

	var gotURI string
	var gotStatus int
	c := fastClient()
	res, err := c.Resource(srv.URL).
		Retry(3, false).
		Get(context.Background(), OnFailure(func(uri string, status int, _ []byte) []byte {
			gotURI = uri
			gotStatus = status
			return []byte("fallback")
		}))

	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "404 must not be retried")
	assert.Equal(t, http.StatusNotFound, gotStatus)
	assert.Equal(t, srv.URL, gotURI)
	assert.True(t, res.Ok())
	assert.Equal(t, "fallback", res.Text())
}

func TestNotFoundIsRetriedWhenOptedIn(t *testing.T) {
	srv, calls := flakyServer(t, 10, http.StatusNotFound, "")

	handlerCalls := 0
	c := fastClient()
	_, err := c.Resource(srv.URL).
		Retry(3, true).
		Get(context.Background(), OnFailure(func(string, int, []byte) []byte {
			handlerCalls++
			return nil
		}))

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load(), "opted-in 404 must exhaust the budget")
	assert.Equal(t, 1, handlerCalls, "handler runs exactly once per failed operation")
}

func TestFailedResultWithoutHandler(t *testing.T) {
	srv, _ := flakyServer(t, 10, http.StatusInternalServerError, "")

	c := fastClient()
	res, err := c.Resource(srv.URL).
		Policy(retry.Constant{Attempts: 2, Delay: time.Millisecond}).
		Get(context.Background())

	require.NoError(t, err)
	assert.False(t, res.Ok())
	assert.Equal(t, http.StatusInternalServerError, res.Status())
	assert.Equal(t, "try later\n", res.Text())
	assert.Equal(t, "absent", res.OrElse("absent"))

	var statusErr *StatusError
	require.ErrorAs(t, res.Err(), &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
	assert.Equal(t, srv.URL, statusErr.URI)
}

func TestHandlerReturnBecomesResult(t *testing.T) {
	srv, calls := flakyServer(t, 10, http.StatusInternalServerError, "")

	c := fastClient()
	res, err := c.Resource(srv.URL).
		Retry(3, false).
		Get(context.Background(), OnFailure(func(_ string, status int, body []byte) []byte {
			require.Equal(t, http.StatusInternalServerError, status)
			require.Equal(t, "try later\n", string(body))
			return []byte("substituted")
		}))

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.True(t, res.Ok())
	assert.True(t, res.Recovered())
	assert.Equal(t, http.StatusInternalServerError, res.Status())
	assert.Equal(t, "substituted", res.Text())
}

func TestTransportFailureSurfacesAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	handlerCalled := false
	c := fastClient()
	_, err := c.Resource(url).
		Policy(retry.Constant{Attempts: 2, Delay: time.Millisecond}).
		Get(context.Background(), OnFailure(func(string, int, []byte) []byte {
			handlerCalled = true
			return nil
		}))

	require.Error(t, err)
	assert.False(t, handlerCalled, "no status or body exists to hand to the error callback")
}

func TestGetEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `{"items":[]}`)
	}))
	defer srv.Close()

	c := NewClient()
	res, err := c.Resource(srv.URL+"/items").
		Parameter("limit", "10").
		Get(context.Background())

	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, res.Text())
}

func TestDelete(t *testing.T) {
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient()
	res, err := c.Resource(srv.URL + "/items/42").Delete(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Ok())
	assert.Equal(t, http.MethodDelete, method)
}

func TestGetStreamIsSeekable(t *testing.T) {
	payload := []byte{0x00, 0xFF, 0x10, 0x20, 0x7F}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	c := NewClient()
	res, err := c.Resource(srv.URL).GetStream(context.Background())
	require.NoError(t, err)
	require.True(t, res.Ok())

	stream := res.Stream()
	first, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, payload, first)

	// Fully materialized in memory: rewinding works, no live handle.
	_, err = stream.Seek(0, io.SeekStart)
	require.NoError(t, err)
	second, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, payload, second)
}

func TestContextCancellationStopsRetrying(t *testing.T) {
	srv, _ := flakyServer(t, 100, http.StatusServiceUnavailable, "")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	c := NewClient()
	_, err := c.Resource(srv.URL).
		Policy(retry.Constant{Attempts: 100, Delay: 20 * time.Millisecond}).
		Get(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProgressSinkReceivesEvents(t *testing.T) {
	srv, _ := flakyServer(t, 1, http.StatusServiceUnavailable, "done")

	var events []string
	sink := SinkFunc(func(msg string) { events = append(events, msg) })

	c := fastClient()
	res, err := c.Resource(srv.URL).
		Retry(2, false).
		Get(context.Background(), WithProgressSink(sink))

	require.NoError(t, err)
	require.True(t, res.Ok())

	require.GreaterOrEqual(t, len(events), 3, "request, backoff and response events expected")
	assert.Contains(t, events[0], "GET")
	assert.Contains(t, events[0], srv.URL)
	assert.Contains(t, events[len(events)-1], "200")
}

func TestBreakerStopsRetryLoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := fastClient(WithBreaker("test"))
	_, err := c.Resource(url).
		Policy(retry.Constant{Attempts: 20, Delay: time.Millisecond}).
		Get(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState), "breaker should open and short-circuit: %v", err)
}

func TestRequestLevelPolicyOverridesClientDefault(t *testing.T) {
	srv, calls := flakyServer(t, 10, http.StatusServiceUnavailable, "")

	c := fastClient(WithRetryPolicy(retry.Constant{Attempts: 5, Delay: time.Millisecond}))
	_, err := c.Resource(srv.URL).
		Policy(retry.Constant{Attempts: 2, Delay: time.Millisecond}).
		Get(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
