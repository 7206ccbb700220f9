package ports

import (
	"context"
	"net/url"

	"campfire-export/internal/domain"
)

// Transport определяет интерфейс аутентифицированного доступа к API.
type Transport interface {
	// Get выполняет GET-запрос по относительному пути и возвращает тело
	// ответа. Статус >= 400 возвращается как типизированная ошибка
	// транспорта.
	Get(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// UserDirectory определяет интерфейс разрешения отображаемого имени
// пользователя по его идентификатору.
type UserDirectory interface {
	// DisplayName возвращает отображаемое имя. Неудачный поиск дает
	// заглушку, а не ошибку: стенограмма важнее имени.
	DisplayName(ctx context.Context, userID string) string
}

// Exporter определяет интерфейс выгрузки сводки запуска во внешний формат.
type Exporter interface {
	Export(summary *domain.ExportSummary, path string) error
}
