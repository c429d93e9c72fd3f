package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gunzip(t *testing.T, data []byte) string {
	t.Helper()

	zr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer zr.Close()

	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(out)
}

func TestGzipMiddleware_CompressesJSON(t *testing.T) {
	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", "99")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[{"deal":{"id":"deal1"},"active":true}]`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Empty(t, rec.Header().Get("Content-Length"))
	assert.Equal(t, `[{"deal":{"id":"deal1"},"active":true}]`, gunzip(t, rec.Body.Bytes()))
}

func TestGzipMiddleware_PlainWithoutAcceptEncoding(t *testing.T) {
	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/menu", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", rec.Body.String())
}

func TestGzipMiddleware_DecompressesRequestBody(t *testing.T) {
	var got struct {
		ItemID string `json:"itemId"`
	}
	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(`{"itemId":"main-beef-scallops"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/user/cart/items", &buf)
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "main-beef-scallops", got.ItemID)
}

func TestGzipMiddleware_RejectsBrokenRequestBody(t *testing.T) {
	called := false
	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/user/orders", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}

func TestGzipMiddleware_SkipsNoContentAndErrors(t *testing.T) {
	tests := []struct {
		name   string
		handle http.HandlerFunc
		status int
		body   string
	}{
		{
			name: "no content",
			handle: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			status: http.StatusNoContent,
		},
		{
			name: "not found",
			handle: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			},
			status: http.StatusNotFound,
			body:   "Not Found\n",
		},
		{
			name: "conflict",
			handle: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			},
			status: http.StatusConflict,
			body:   "Conflict\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/user/orders", nil)
			req.Header.Set("Accept-Encoding", "gzip")
			rec := httptest.NewRecorder()

			GzipMiddleware(tt.handle).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, rec.Header().Get("Content-Encoding"))
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestGzipMiddleware_FlushPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()

	var flushedLen int
	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"part":1}`))

		f, ok := w.(http.Flusher)
		require.True(t, ok)
		f.Flush()
		flushedLen = rec.Body.Len()

		_, _ = w.Write([]byte(`{"part":2}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	h.ServeHTTP(rec, req)

	assert.True(t, rec.Flushed)
	assert.Positive(t, flushedLen)
	assert.Equal(t, `{"part":1}{"part":2}`, gunzip(t, rec.Body.Bytes()))
}

func TestGzipMiddleware_SkipsEventStream(t *testing.T) {
	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("data: {}\n\n"))
		w.(http.Flusher).Flush()
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/deals/stream", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "data: {}\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}
