package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oppnadata/orgsync/pkg/errors"
)

func newTestFetcher(retries int) *Fetcher {
	f := NewFetcher(2*time.Second, retries)
	f.interval = time.Millisecond
	return f
}

// dropConn closes the client connection without a response, which the
// client observes as a transport-level failure.
func dropConn(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic("response writer does not support hijacking")
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(err)
	}
	conn.Close()
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"Example","url":"https://example.se"}]`))
	}))
	defer srv.Close()

	body, err := newTestFetcher(5).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	raws, err := Parse(body)
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "Example", raws[0].Name)
}

func TestFetchRetriesTransportFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			dropConn(w)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	body, err := newTestFetcher(5).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "[]", string(body))
}

func TestFetchExhaustedRetriesIsUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		dropConn(w)
	}))
	defer srv.Close()

	_, err := newTestFetcher(5).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.IsUnavailable(err))
	assert.Equal(t, int32(6), calls.Load(), "1 initial attempt + 5 retries")
}

func TestFetchNon200IsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestFetcher(5).Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fe *errors.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestParsePreservesFieldBytes(t *testing.T) {
	// A Latin-1 byte inside a string field must survive parsing
	// untouched so normalization can detect and repair the encoding.
	body := []byte(`[{"name": "Statistiska centralbyr` + "\xe5" + `n", "url": "https://scb.se"}]`)

	raws, err := Parse(body)
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "Statistiska centralbyr\xe5n", raws[0].Name)
	assert.Equal(t, "https://scb.se", raws[0].URL)
}

func TestParseResolvesEscapes(t *testing.T) {
	body := []byte(`[{
		"name": "Region Örebro \"län\"",
		"url": "https:\/\/example.se\ndata",
		"email": "😀@example.se"
	}]`)

	raws, err := Parse(body)
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, `Region Örebro "län"`, raws[0].Name)
	assert.Equal(t, "https://example.se\ndata", raws[0].URL)
	assert.Equal(t, "😀@example.se", raws[0].Email)
}

func TestParseMissingAndNonStringFields(t *testing.T) {
	raws, err := Parse([]byte(`[{"name": "Example", "url": null}]`))
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "Example", raws[0].Name)
	assert.Empty(t, raws[0].URL)
	assert.Empty(t, raws[0].Email)
}

func TestParseMalformedFeed(t *testing.T) {
	_, err := Parse([]byte(`{"not": "an array"`))
	require.Error(t, err)

	var pe *errors.ParseError
	assert.ErrorAs(t, err, &pe)
}
