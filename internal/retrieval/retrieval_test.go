package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codectx/internal/blob"
	"github.com/standardbeagle/codectx/internal/xerrors"
)

func TestUploadBatchReturnsConfirmedIdentities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"blob_names": []string{"id1", "id2"}})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", 3, time.Millisecond)
	ids, err := c.UploadBatch(context.Background(), []blob.Blob{
		blob.New("a.go", -1, "package a"),
		blob.New("b.go", -1, "package b"),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"id1", "id2"}, ids)
}

func TestUploadBatch4xxIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", 3, time.Millisecond)
	_, err := c.UploadBatch(context.Background(), []blob.Blob{blob.New("a.go", -1, "x")})
	require.Error(t, err)
	assert.True(t, isUploadPermanent(err), "expected UploadPermanentError, got %T: %v", err, err)
}

func TestUploadBatch5xxExhaustsRetriesAsTransient(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", 3, time.Millisecond)
	_, err := c.UploadBatch(context.Background(), []blob.Blob{blob.New("a.go", -1, "x")})
	require.Error(t, err)
	assert.True(t, isUploadTransient(err), "expected UploadTransientError, got %T: %v", err, err)
	assert.Equal(t, 3, calls, "expected 3 attempts")
}

func TestSearchReturnsFormattedRetrieval(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"formatted_retrieval": "found it"})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", 3, 2*time.Second)
	text, err := c.Search(context.Background(), "where is main", []string{"id1"})
	require.NoError(t, err)
	assert.Equal(t, "found it", text)
}

func TestSearchEmptyRetrievalYieldsFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"formatted_retrieval": ""})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", 3, time.Millisecond)
	text, err := c.Search(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, noResultsMessage, text)
}

func isUploadPermanent(err error) bool {
	var permanent *xerrors.UploadPermanentError
	return errors.As(err, &permanent)
}

func isUploadTransient(err error) bool {
	var transient *xerrors.UploadTransientError
	return errors.As(err, &transient)
}
