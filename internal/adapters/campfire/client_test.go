package campfire

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get(t *testing.T) {
	t.Run("успешный запрос возвращает тело ответа", func(t *testing.T) {
		var gotAuth, gotPath, gotQuery string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _, _ := r.BasicAuth()
			gotAuth = user
			gotPath = r.URL.Path
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte("<rooms></rooms>"))
		}))
		defer ts.Close()

		client := NewClient(ts.URL, "secret-token")
		body, err := client.Get(context.Background(), "/rooms.xml", nil)
		require.NoError(t, err)

		assert.Equal(t, "<rooms></rooms>", string(body))
		assert.Equal(t, "secret-token", gotAuth, "токен должен передаваться через basic auth")
		assert.Equal(t, "/rooms.xml", gotPath)
		assert.Empty(t, gotQuery)
	})

	t.Run("параметры запроса кодируются в URL", func(t *testing.T) {
		var gotLimit string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotLimit = r.URL.Query().Get("limit")
			_, _ = w.Write([]byte("<messages></messages>"))
		}))
		defer ts.Close()

		client := NewClient(ts.URL, "token")
		_, err := client.Get(context.Background(), "/room/1/recent.xml", url.Values{"limit": {"1"}})
		require.NoError(t, err)
		assert.Equal(t, "1", gotLimit)
	})

	t.Run("статус >= 400 возвращает APIError", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer ts.Close()

		client := NewClient(ts.URL, "token")
		_, err := client.Get(context.Background(), "/rooms.xml", nil)
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Contains(t, apiErr.Resource, "/rooms.xml")
		assert.False(t, IsNotFound(err))
	})

	t.Run("IsNotFound распознает 404", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()

		client := NewClient(ts.URL, "token")
		_, err := client.Get(context.Background(), "/room/1/uploads/1/gone.png", nil)
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("IsNotFound игнорирует посторонние ошибки", func(t *testing.T) {
		assert.False(t, IsNotFound(errors.New("boom")))
		assert.False(t, IsNotFound(nil))
	})
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Resource: "https://x.campfirenow.com/rooms.xml", Message: "Unauthorized", StatusCode: 401}
	assert.Equal(t, "<https://x.campfirenow.com/rooms.xml>: Unauthorized (401)", err.Error())

	err = &APIError{Resource: "campfire/room/file.txt", Message: "path escapes export dir"}
	assert.Equal(t, "<campfire/room/file.txt>: path escapes export dir", err.Error())
}
