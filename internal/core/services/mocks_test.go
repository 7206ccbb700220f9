package services

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"campfire-export/internal/adapters/campfire"
	"campfire-export/internal/cache"
)

// fakeAPI — мок транспорта: таблица ответов по пути запроса.
// Незарегистрированный путь отвечает 404, как и настоящий API.
type fakeAPI struct {
	mu        sync.Mutex
	responses map[string][]byte
	errors    map[string]error
	calls     []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		responses: make(map[string][]byte),
		errors:    make(map[string]error),
	}
}

func (f *fakeAPI) respond(path string, body string) {
	f.responses[path] = []byte(body)
}

func (f *fakeAPI) fail(path string, err error) {
	f.errors[path] = err
}

func (f *fakeAPI) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	key := path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}

	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()

	if err, ok := f.errors[key]; ok {
		return nil, err
	}
	if body, ok := f.responses[key]; ok {
		return body, nil
	}
	return nil, &campfire.APIError{Resource: key, Message: "Not Found", StatusCode: http.StatusNotFound}
}

func (f *fakeAPI) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == path {
			n++
		}
	}
	return n
}

// mockUserDirectory — мок справочника пользователей с фиксированной
// таблицей имен.
type mockUserDirectory struct {
	names map[string]string
}

func (m *mockUserDirectory) DisplayName(ctx context.Context, userID string) string {
	if name, ok := m.names[userID]; ok {
		return name
	}
	return cache.UnknownUser
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
