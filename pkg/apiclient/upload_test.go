package apiclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUploadUsageErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	t.Run("no token store", func(t *testing.T) {
		client := NewCommerceClient(server.URL, nil)

		_, err := client.UploadForm(context.Background(), http.MethodPost, "/api/products/1/images", Form{})
		require.ErrorIs(t, err, ErrNoTokenStore)
	})

	t.Run("unsupported method", func(t *testing.T) {
		client := NewCommerceClient(server.URL, &testStore{})

		_, err := client.UploadForm(context.Background(), http.MethodGet, "/api/products/1/images", Form{})
		require.ErrorIs(t, err, ErrUploadMethod)
	})

	require.Zero(t, hits.Load(), "usage errors must fail before any network call")
}

func TestUploadMultipart(t *testing.T) {
	t.Parallel()

	var gotAuth, gotName, gotContent, gotField string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))

		gotField = r.FormValue("product_id")

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()

		gotName = header.Filename
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		gotContent = string(data)

		w.Write([]byte(`{"error":null,"data":{"url":"/media/p1.png"}}`))
	}))
	defer server.Close()

	tokens := &testStore{}
	require.NoError(t, tokens.SetToken(context.Background(), "T1"))
	client := NewCommerceClient(server.URL, tokens)

	body, err := client.UploadForm(context.Background(), http.MethodPost, "/api/products/1/images", Form{
		Fields: map[string]string{"product_id": "p1"},
		Files: []FormFile{{
			Field:   "image",
			Name:    "p1.png",
			Content: strings.NewReader("png-bytes"),
		}},
	})
	require.NoError(t, err)

	var result struct {
		URL string `json:"url"`
	}
	require.NoError(t, Unwrap(body, &result))
	require.Equal(t, "/media/p1.png", result.URL)

	require.Equal(t, "Bearer T1", gotAuth)
	require.Equal(t, "p1", gotField)
	require.Equal(t, "p1.png", gotName)
	require.Equal(t, "png-bytes", gotContent)
}

func TestUploadNeverRetries(t *testing.T) {
	t.Parallel()

	var refreshCalls, uploads atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/refresh" {
			refreshCalls.Add(1)
			w.Write([]byte(`{"error":null,"data":"T2"}`))
			return
		}
		uploads.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"token expired"}`))
	}))
	defer server.Close()

	tokens := &testStore{}
	require.NoError(t, tokens.SetToken(context.Background(), "T1"))
	client := NewCommerceClient(server.URL, tokens)

	_, err := client.UploadForm(context.Background(), http.MethodPut, "/api/products/1/images", Form{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	require.EqualValues(t, 1, uploads.Load())
	require.Zero(t, refreshCalls.Load(), "uploads bypass the refresh machinery")
}
