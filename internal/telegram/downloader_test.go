package telegram

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestDownloadReturnsBody(t *testing.T) {
	payload := bytes.Repeat([]byte{0x25, 0x50, 0x44, 0x46}, 4096)
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write(payload)
	}))
	defer srv.Close()

	d := NewDownloader(srv.Client(), testToken, srv.URL+"/file/bot{token}/{filePath}", nil)
	data, err := d.Download(context.Background(), "documents/file_7.pdf")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "/file/bot"+testToken+"/documents/file_7.pdf", gotPath)
}

func TestDownloadEmptyPathIsInvalidURL(t *testing.T) {
	called := false
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("unexpected request")
	})}

	d := NewDownloader(client, testToken, "{filePath}", nil)
	_, err := d.Download(context.Background(), "")

	var urlErr *InvalidURLError
	require.True(t, errors.As(err, &urlErr), "got %T", err)
	assert.ErrorIs(t, err, ErrNotAbsoluteURL)
	assert.False(t, called)
}

func TestDownloadDisallowedCharacters(t *testing.T) {
	d := NewDownloader(nil, testToken, "https://api.telegram.org/file/bot{token}/{filePath}", nil)
	_, err := d.Download(context.Background(), "documents/\x7ffile.pdf")

	var urlErr *InvalidURLError
	require.True(t, errors.As(err, &urlErr), "got %T", err)
	assert.NotContains(t, err.Error(), testToken)
	assert.Contains(t, urlErr.URL, redacted)
}

func TestDownloadNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDownloader(srv.Client(), testToken, srv.URL+"/file/bot{token}/{filePath}", nil)
	_, err := d.Download(context.Background(), "documents/x.pdf")

	var transferErr *TransferError
	require.True(t, errors.As(err, &transferErr), "got %T", err)
	assert.Equal(t, http.StatusNotFound, transferErr.StatusCode)
	assert.NotContains(t, err.Error(), testToken)
}

func TestDownloadFailsMidStream(t *testing.T) {
	cause := errors.New("connection reset by peer")
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		body := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(cause))
		return &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Body:       io.NopCloser(body),
			Header:     make(http.Header),
			Request:    r,
		}, nil
	})}

	d := NewDownloader(client, testToken, "https://api.telegram.org/file/bot{token}/{filePath}", nil)
	data, err := d.Download(context.Background(), "documents/x.pdf")
	assert.Nil(t, data)

	var transferErr *TransferError
	require.True(t, errors.As(err, &transferErr), "got %T", err)
	assert.ErrorIs(t, err, cause)
}

func TestDownloadCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDownloader(srv.Client(), testToken, srv.URL+"/file/bot{token}/{filePath}", nil)
	_, err := d.Download(ctx, "documents/x.pdf")

	var transferErr *TransferError
	require.True(t, errors.As(err, &transferErr), "got %T", err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewHTTPClientWrapsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewHTTPClient(0, nil)
	d := NewDownloader(client, testToken, srv.URL+"/{filePath}", nil)
	data, err := d.Download(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
}
