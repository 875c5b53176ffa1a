package pixiv

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "pixivarc/pkg/errors"
	"pixivarc/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientOptions{
		Session:           "test-session",
		RequestsPerMinute: 6000,
		Timeout:           5 * time.Second,
		MaxRetries:        1,
	}, logger.NewTestLogger())
	client.SetBaseURL(server.URL)
	return client
}

func TestNewClient(t *testing.T) {
	client := NewClient(ClientOptions{Session: "abc"}, logger.NewTestLogger())

	require.NotNil(t, client)
	assert.Equal(t, BaseURL, client.baseURL)
	assert.Equal(t, "PHPSESSID=abc", client.headers["Cookie"])
	assert.NotEmpty(t, client.headers["User-Agent"])
}

func TestNewClientWithoutSession(t *testing.T) {
	client := NewClient(ClientOptions{}, logger.NewTestLogger())

	_, hasCookie := client.headers["Cookie"]
	assert.False(t, hasCookie)
}

func TestFetchDecodesEnvelope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ajax/illust/123", r.URL.Path)
		assert.Contains(t, r.Header.Get("Cookie"), "PHPSESSID=test-session")
		fmt.Fprint(w, `{"error":false,"message":"","body":{"total":7}}`)
	}))

	type body struct {
		Total int `json:"total"`
	}

	result, err := Fetch[body](context.Background(), client, "/ajax/illust/123")
	require.NoError(t, err)
	assert.Equal(t, 7, result.Total)
}

func TestFetchEnvelopeError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":true,"message":"work deleted","body":null}`)
	}))

	_, err := Fetch[map[string]string](context.Background(), client, "/ajax/illust/123")
	require.Error(t, err)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeEnvelope, apiErr.Type)
	assert.Contains(t, apiErr.Message, "work deleted")
}

func TestFetchStatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantType errs.ErrorType
	}{
		{"unauthorized", http.StatusUnauthorized, errs.ErrorTypeAuth},
		{"forbidden", http.StatusForbidden, errs.ErrorTypeAuth},
		{"not found", http.StatusNotFound, errs.ErrorTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			_, err := Fetch[map[string]string](context.Background(), client, "/ajax/illust/123")
			require.Error(t, err)

			var apiErr *errs.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantType, apiErr.Type)
			assert.Equal(t, tt.status, apiErr.Code)
		})
	}
}

func TestFetchRetriesServerError(t *testing.T) {
	attempts := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"error":false,"message":"","body":{}}`)
	}))
	client.maxRetries = 3

	_, err := Fetch[map[string]string](context.Background(), client, "/ajax/illust/123")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDownload(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "image bytes")
	}))

	path, err := client.Download(context.Background(), client.url("/img/original/1_p0.png"))
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "image bytes", string(data))
}

func TestDownloadNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.Download(context.Background(), client.url("/img/original/1_p0.png"))
	require.Error(t, err)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeNotFound, apiErr.Type)
}
