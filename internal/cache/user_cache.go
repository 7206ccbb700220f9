// Package cache реализует мемоизирующий кэш отображаемых имен
// пользователей: один удаленный запрос на каждый уникальный id за запуск.
// Кэш принадлежит запуску и передается явно, без скрытого глобального
// состояния.
package cache

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"campfire-export/internal/adapters/parser"
	"campfire-export/internal/ports"
)

// UnknownUser — заглушка для пользователей, имя которых получить не
// удалось. Стенограмма экспортируется в любом случае.
const UnknownUser = "[unknown user]"

// UserCache разрешает отображаемые имена пользователей по id через API,
// запоминая результат (включая неудачи) на время запуска.
type UserCache struct {
	transport ports.Transport
	log       *slog.Logger

	mu    sync.RWMutex
	names map[string]string
}

// NewUserCache создает новый экземпляр UserCache.
func NewUserCache(transport ports.Transport, log *slog.Logger) *UserCache {
	if log == nil {
		log = slog.Default()
	}
	return &UserCache{
		transport: transport,
		log:       log,
		names:     make(map[string]string),
	}
}

// DisplayName возвращает отображаемое имя пользователя. Первый запрос по
// id обращается к API; результат мемоизируется, так что повторные вызовы
// не порождают сетевых вызовов. Неудачный поиск дает заглушку и тоже
// мемоизируется.
func (c *UserCache) DisplayName(ctx context.Context, userID string) string {
	c.mu.RLock()
	name, ok := c.names[userID]
	c.mu.RUnlock()
	if ok {
		return name
	}

	name = c.lookup(ctx, userID)

	c.mu.Lock()
	c.names[userID] = name
	c.mu.Unlock()
	return name
}

// Len возвращает число закэшированных имен.
func (c *UserCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

func (c *UserCache) lookup(ctx context.Context, userID string) string {
	body, err := c.transport.Get(ctx, "/users/"+userID+".xml", url.Values{})
	if err != nil {
		c.log.Warn("failed to look up user, using placeholder", "user_id", userID, "error", err)
		return UnknownUser
	}
	full, err := parser.ParseUserName(body)
	if err != nil {
		c.log.Warn("failed to parse user name, using placeholder", "user_id", userID, "error", err)
		return UnknownUser
	}
	return ShortenName(full)
}

// ShortenName сокращает полное имя до имени и инициала фамилии:
// "Jane Smith" -> "Jane S.". Одиночное имя возвращается как есть.
func ShortenName(full string) string {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}
	last := parts[len(parts)-1]
	parts[len(parts)-1] = string([]rune(last)[:1]) + "."
	return strings.Join(parts, " ")
}
