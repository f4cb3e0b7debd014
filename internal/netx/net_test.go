package netx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadToPresignedURL(t *testing.T) {
	var gotBody []byte
	var gotMethod, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u := NewUploader(nil)
	err := u.UploadToPresignedURL(context.Background(), srv.URL, []byte("ciphertext"))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "application/octet-stream", gotContentType)
	assert.Equal(t, []byte("ciphertext"), gotBody)
}

func TestUploadToPresignedURL_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	u := NewUploader(nil)
	err := u.UploadToPresignedURL(context.Background(), srv.URL, []byte("x"))
	assert.ErrorContains(t, err, "upload failed")
}

func TestDownloadFromPresignedURL_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("blob"))
	}))
	defer srv.Close()

	u := NewUploader(nil)
	body, err := u.DownloadFromPresignedURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDownloadFromPresignedURL_NotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	u := NewUploader(nil)
	_, err := u.DownloadFromPresignedURL(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}
