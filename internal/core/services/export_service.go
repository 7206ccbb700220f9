package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"campfire-export/internal/adapters/parser"
	"campfire-export/internal/adapters/sink"
	"campfire-export/internal/domain"
	"campfire-export/internal/ports"
)

// DefaultRateInterval — пауза между днями одной комнаты, удерживающая
// запуск под лимитом запросов API.
const DefaultRateInterval = 100 * time.Millisecond

// Option — функциональная опция для настройки ExportService.
type Option func(*ExportService)

// WithRateInterval устанавливает паузу между экспортом соседних дней.
func WithRateInterval(d time.Duration) Option {
	return func(s *ExportService) {
		s.rateInterval = d
	}
}

// WithSleep подменяет функцию паузы (для тестов).
func WithSleep(fn func(time.Duration)) Option {
	return func(s *ExportService) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithClock подменяет источник текущего времени (для тестов).
func WithClock(fn func() time.Time) Option {
	return func(s *ExportService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithLogger устанавливает логгер для сервиса.
func WithLogger(l *slog.Logger) Option {
	return func(s *ExportService) {
		if l != nil {
			s.log = l
		}
	}
}

// ExportService — движок экспорта: обходит комнаты, календарные дни и
// сообщения строго последовательно, изолируя отказы на уровне
// комнаты/дня/ветки/загрузки. Ошибки этих уровней логируются и не
// прерывают обход.
type ExportService struct {
	transport ports.Transport
	users     ports.UserDirectory
	sink      *sink.DirSink
	uploads   *UploadService
	renderer  *Renderer

	subdomain    string
	loc          *time.Location
	rateInterval time.Duration
	sleep        func(time.Duration)
	now          func() time.Time
	log          *slog.Logger
}

// NewExportService создает движок экспорта для одного запуска.
func NewExportService(
	transport ports.Transport,
	users ports.UserDirectory,
	dirSink *sink.DirSink,
	subdomain string,
	loc *time.Location,
	opts ...Option,
) *ExportService {
	s := &ExportService{
		transport:    transport,
		users:        users,
		sink:         dirSink,
		subdomain:    subdomain,
		loc:          loc,
		rateInterval: DefaultRateInterval,
		sleep:        time.Sleep,
		now:          time.Now,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.uploads = NewUploadService(transport, dirSink, s.log)
	s.renderer = NewRenderer(s.log)
	return s
}

// ExportAccount экспортирует все комнаты в порядке списка. Нулевые
// границы означают "не ограничено с этой стороны".
func (s *ExportService) ExportAccount(ctx context.Context, rooms []domain.Room, start, end time.Time) *domain.ExportSummary {
	summary := &domain.ExportSummary{
		Subdomain: s.subdomain,
		StartedAt: s.now(),
		Rooms:     make([]domain.RoomSummary, 0, len(rooms)),
	}
	for i := range rooms {
		summary.Rooms = append(summary.Rooms, s.ExportRoom(ctx, &rooms[i], start, end))
		if ctx.Err() != nil {
			break
		}
	}
	summary.FinishedAt = s.now()
	return summary
}

// ExportRoom вычисляет действительный диапазон дней комнаты и экспортирует
// каждый день. Диапазон — [max(start, created_at), min(end, last_update)]:
// нет смысла запрашивать дни до создания комнаты или после последнего
// сообщения.
func (s *ExportService) ExportRoom(ctx context.Context, room *domain.Room, start, end time.Time) domain.RoomSummary {
	rs := domain.RoomSummary{RoomID: room.ID, RoomName: room.Name}
	s.log.Info("exporting room", "room", room.Name, "room_id", room.ID)

	s.findLastUpdate(ctx, room, &rs)

	from := s.dateOnly(room.CreatedAt)
	if !start.IsZero() {
		if d := s.dateOnly(start); d.After(from) {
			from = d
		}
	}
	to := s.dateOnly(room.LastUpdate)
	if !end.IsZero() {
		if d := s.dateOnly(end); d.Before(to) {
			to = d
		}
	}

	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		rs.DaysVisited++
		s.exportDay(ctx, room, date, &rs)
		if ctx.Err() != nil {
			break
		}
		// Пауза на комнату, не глобальная: лимит API считается по
		// последовательным запросам, а обход и так последовательный.
		s.sleep(s.rateInterval)
	}

	return rs
}

// findLastUpdate лениво определяет время последнего сообщения комнаты по
// recent.xml. Неудача не фатальна: комната экспортируется по сегодняшний
// день, а деградация логируется.
func (s *ExportService) findLastUpdate(ctx context.Context, room *domain.Room, rs *domain.RoomSummary) {
	body, err := s.transport.Get(ctx, fmt.Sprintf("/room/%s/recent.xml", room.ID), url.Values{"limit": {"1"}})
	if err == nil {
		var ts time.Time
		if ts, err = parser.ParseRecentTimestamp(body); err == nil {
			room.LastUpdate = ts.In(s.loc)
			return
		}
	}
	s.log.Error("couldn't get last update in room, defaulting to today",
		"room", room.Name, "room_id", room.ID, "error", err)
	rs.Errors++
	room.LastUpdate = s.now().In(s.loc)
}

// exportDay выгружает стенограмму одного дня и, если она непуста,
// материализует все четыре артефакта с независимой изоляцией отказов.
// Пустой день не оставляет каталога.
func (s *ExportService) exportDay(ctx context.Context, room *domain.Room, date time.Time, rs *domain.RoomSummary) {
	dir := s.sink.DayDir(s.subdomain, room.Name, date)
	s.log.Info("exporting day", "dir", dir)

	xmlBody, err := s.transport.Get(ctx, s.transcriptPath(room, date)+".xml", url.Values{})
	if err != nil {
		s.log.Error("transcript export failed", "dir", dir, "error", err)
		rs.Errors++
		return
	}

	rawMessages, err := parser.ParseMessages(xmlBody)
	if err != nil {
		s.log.Error("transcript parse failed", "dir", dir, "error", err)
		rs.Errors++
		return
	}

	if len(rawMessages) == 0 {
		s.log.Info("no messages", "dir", dir)
		return
	}

	messages := s.buildMessages(ctx, room, date, rawMessages)
	rs.Messages += len(messages)

	if err := s.sink.EnsureDir(dir); err != nil {
		s.log.Error("unable to create day directory", "dir", dir, "error", err)
		rs.Errors++
		return
	}

	s.exportXML(dir, xmlBody, rs)
	s.exportPlaintext(dir, room, date, messages, rs)
	s.exportHTML(ctx, dir, room, date, rs)
	s.exportUploads(ctx, dir, messages, rs)

	rs.DaysExported++
}

// buildMessages нормализует сырые сообщения: локальное время и
// разрешенный пользователь для типов, несущих автора.
func (s *ExportService) buildMessages(ctx context.Context, room *domain.Room, date time.Time, raw []parser.RawMessage) []domain.Message {
	messages := make([]domain.Message, 0, len(raw))
	for _, rm := range raw {
		msg := domain.Message{
			ID:        rm.ID,
			RoomID:    room.ID,
			Date:      date,
			Type:      rm.Type,
			Body:      rm.Body,
			Timestamp: rm.CreatedAt.In(s.loc),
		}
		if rm.Type.RequiresUser() {
			msg.User = s.users.DisplayName(ctx, rm.UserID)
		}
		messages = append(messages, msg)
	}
	return messages
}

// exportXML записывает исходный XML-документ дословно.
func (s *ExportService) exportXML(dir string, xmlBody []byte, rs *domain.RoomSummary) {
	if err := s.sink.WriteFile(dir, "transcript.xml", xmlBody); err != nil {
		s.log.Error("XML transcript export failed", "dir", dir, "error", err)
		rs.Errors++
		return
	}
	if err := s.sink.Verify(dir, "transcript.xml", int64(len(xmlBody))); err != nil {
		s.log.Error("XML transcript verification failed", "dir", dir, "error", err)
		rs.Errors++
	}
}

// exportPlaintext отображает сообщения в текстовую стенограмму с
// заголовком дня. Пустые отображения ничего не добавляют.
func (s *ExportService) exportPlaintext(dir string, room *domain.Room, date time.Time, messages []domain.Message, rs *domain.RoomSummary) {
	var b strings.Builder
	b.WriteString(strings.ToUpper(s.subdomain) + " CAMPFIRE\n")
	b.WriteString(room.Name + ": " + date.Format("Monday, January 2, 2006") + "\n\n")
	for i := range messages {
		b.WriteString(s.renderer.Render(&messages[i]))
	}

	content := []byte(b.String())
	if err := s.sink.WriteFile(dir, "transcript.txt", content); err != nil {
		s.log.Error("plaintext transcript export failed", "dir", dir, "error", err)
		rs.Errors++
		return
	}
	if err := s.sink.Verify(dir, "transcript.txt", int64(len(content))); err != nil {
		s.log.Error("plaintext transcript verification failed", "dir", dir, "error", err)
		rs.Errors++
	}
}

// exportHTML получает HTML-представление того же дня и переписывает
// ссылки на загрузки и миниатюры так, чтобы они работали относительно
// экспортированного дерева.
func (s *ExportService) exportHTML(ctx context.Context, dir string, room *domain.Room, date time.Time, rs *domain.RoomSummary) {
	body, err := s.transport.Get(ctx, s.transcriptPath(room, date), url.Values{})
	if err != nil {
		s.log.Error("HTML transcript export failed", "dir", dir, "error", err)
		rs.Errors++
		return
	}

	html := string(body)
	html = strings.ReplaceAll(html, `href="/room/`+room.ID+`/uploads/`, `href="uploads/`)
	html = strings.ReplaceAll(html, `src="/room/`+room.ID+`/thumb/`, `src="thumbs/`)

	content := []byte(html)
	if err := s.sink.WriteFile(dir, "transcript.html", content); err != nil {
		s.log.Error("HTML transcript export failed", "dir", dir, "error", err)
		rs.Errors++
		return
	}
	if err := s.sink.Verify(dir, "transcript.html", int64(len(content))); err != nil {
		s.log.Error("HTML transcript verification failed", "dir", dir, "error", err)
		rs.Errors++
	}
}

// exportUploads экспортирует загрузки дня по одной: запись и проверка
// каждой завершаются до начала следующей, отказ одной не останавливает
// остальные.
func (s *ExportService) exportUploads(ctx context.Context, dir string, messages []domain.Message, rs *domain.RoomSummary) {
	for i := range messages {
		if !messages[i].IsUpload() {
			continue
		}
		result := s.uploads.Export(ctx, dir, &messages[i])
		switch result.Status {
		case domain.UploadFound:
			rs.Uploads++
		case domain.UploadDeleted:
			rs.DeletedUploads++
		case domain.UploadFailed:
			path := dir
			if result.Upload != nil {
				path = filepath.Join(dir, "uploads", result.Upload.ID, result.Upload.Filename)
			}
			s.log.Error("upload export failed", "path", path, "message_id", messages[i].ID, "error", result.Err)
			rs.Errors++
		}
	}
}

// transcriptPath возвращает путь API стенограммы дня без расширения.
// Месяц и день в пути не дополняются нулями.
func (s *ExportService) transcriptPath(room *domain.Room, date time.Time) string {
	return fmt.Sprintf("/room/%s/transcript/%d/%d/%d", room.ID, date.Year(), int(date.Month()), date.Day())
}

// dateOnly отбрасывает время, оставляя календарную дату в поясе аккаунта.
func (s *ExportService) dateOnly(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}
