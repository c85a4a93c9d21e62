package verify

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher(t *testing.T) {
	body := bytes.Repeat([]byte{0xff}, 1200)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			_, _ = w.Write(body)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5 * time.Second)

	t.Run("success", func(t *testing.T) {
		data, err := fetcher.Fetch(context.Background(), server.URL+"/ok.jpg", 2000)
		require.NoError(t, err)
		assert.Equal(t, body, data)
	})

	t.Run("not found keeps status", func(t *testing.T) {
		_, err := fetcher.Fetch(context.Background(), server.URL+"/missing.jpg", 2000)
		var fetchErr *FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	})

	t.Run("over the cap", func(t *testing.T) {
		_, err := fetcher.Fetch(context.Background(), server.URL+"/ok.jpg", 1000)
		assert.ErrorIs(t, err, ErrImageTooLarge)
	})

	t.Run("unreachable host", func(t *testing.T) {
		_, err := fetcher.Fetch(context.Background(), "http://127.0.0.1:1/x.jpg", 2000)
		var fetchErr *FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, 0, fetchErr.StatusCode)
	})
}
