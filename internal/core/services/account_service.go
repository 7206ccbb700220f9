package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"campfire-export/internal/adapters/parser"
	"campfire-export/internal/domain"
	"campfire-export/internal/ports"
	"campfire-export/internal/timezone"
)

// AccountService разрешает настройки аккаунта: список комнат и часовой
// пояс. Это единственное место, где отказ законно прерывает весь запуск:
// без часового пояса все метки времени были бы неверны, а без списка
// комнат экспортировать нечего.
type AccountService struct {
	transport ports.Transport
	log       *slog.Logger
}

// NewAccountService создает новый экземпляр AccountService.
func NewAccountService(transport ports.Transport, log *slog.Logger) *AccountService {
	if log == nil {
		log = slog.Default()
	}
	return &AccountService{transport: transport, log: log}
}

// FindTimezone получает настройки аккаунта и разрешает идентификатор
// часового пояса. Ошибка не перехватывается на месте — она поднимается
// вверх и прерывает запуск.
func (s *AccountService) FindTimezone(ctx context.Context) (*time.Location, error) {
	body, err := s.transport.Get(ctx, "/account.xml", url.Values{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account settings: %w", err)
	}

	zone, err := parser.ParseTimezone(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read account timezone: %w", err)
	}

	loc, err := timezone.Resolve(zone)
	if err != nil {
		return nil, err
	}

	s.log.Info("resolved account timezone", "zone", zone, "location", loc.String())
	return loc, nil
}

// Rooms получает список комнат аккаунта. Времена создания переводятся в
// часовой пояс аккаунта. Комнаты возвращаются в порядке ответа API.
func (s *AccountService) Rooms(ctx context.Context, loc *time.Location) ([]domain.Room, error) {
	body, err := s.transport.Get(ctx, "/rooms.xml", url.Values{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch room list: %w", err)
	}

	rooms, err := parser.ParseRooms(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse room list: %w", err)
	}

	for i := range rooms {
		rooms[i].CreatedAt = rooms[i].CreatedAt.In(loc)
	}

	s.log.Info("resolved room list", "count", len(rooms))
	return rooms, nil
}
