package compat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/lookup", r.URL.Path)
		assert.Equal(t, "twitter", r.URL.Query().Get("platform"))
		assert.Equal(t, "12345", r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pronouns":"tt"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	code, err := client.Lookup(context.Background(), "twitter", "12345")
	require.NoError(t, err)
	assert.Equal(t, "tt", code)
}

func TestLookupUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":404,"message":"not found"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Lookup(context.Background(), "twitter", "12345")
	require.Error(t, err)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusNotFound, upstream.StatusCode)
	assert.JSONEq(t, `{"error":404,"message":"not found"}`, string(upstream.Body))
}

func TestLookupUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.Lookup(context.Background(), "twitter", "12345")
	require.Error(t, err)

	var upstream *UpstreamError
	assert.False(t, errors.As(err, &upstream))
}
