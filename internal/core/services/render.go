package services

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"

	"campfire-export/internal/domain"
)

// userColumnWidth — ширина колонки имени для текстовых сообщений.
const userColumnWidth = 12

// pasteIndent — отступ тела вставки в текстовой стенограмме.
const pasteIndent = 16

var newlineRuns = regexp.MustCompile(`\n+`)

// Renderer отображает сообщение в человекочитаемую строку текстовой
// стенограммы. Отображение тотально над закрытым набором типов:
// нераспознанный тип дает пустую строку и одну запись об ошибке в лог,
// а не панику.
type Renderer struct {
	log *slog.Logger
}

// NewRenderer создает новый экземпляр Renderer.
func NewRenderer(log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{log: log}
}

// Render возвращает строку сообщения с завершающим переводом строки.
// Типы без архивного содержимого дают пустую строку.
func (r *Renderer) Render(m *domain.Message) string {
	switch m.Type {
	case domain.TypeEnter:
		return fmt.Sprintf("[%s has entered the room]\n", m.User)
	case domain.TypeKick, domain.TypeLeave:
		return fmt.Sprintf("[%s has left the room]\n", m.User)
	case domain.TypeText:
		return fmt.Sprintf("[%s:] %s\n", padLeft(m.User, userColumnWidth), m.Body)
	case domain.TypeUpload:
		return fmt.Sprintf("[%s uploaded: %s]\n", m.User, m.Body)
	case domain.TypePaste:
		return "[" + padLeft(m.User+" pasted:]", userColumnWidth+2) + "\n" + indent(m.Body, pasteIndent) + "\n"
	case domain.TypeTopicChange:
		return fmt.Sprintf("[%s changed the topic to: %s]\n", m.User, m.Body)
	case domain.TypeConferenceCreated:
		return fmt.Sprintf("[%s created conference: %s]\n", m.User, m.Body)
	case domain.TypeAllowGuests:
		return fmt.Sprintf("[%s opened the room to guests]\n", m.User)
	case domain.TypeDisallowGuests:
		return fmt.Sprintf("[%s closed the room to guests]\n", m.User)
	case domain.TypeLock:
		return fmt.Sprintf("[%s locked the room]\n", m.User)
	case domain.TypeUnlock:
		return fmt.Sprintf("[%s unlocked the room]\n", m.User)
	case domain.TypeIdle:
		return fmt.Sprintf("[%s became idle]\n", m.User)
	case domain.TypeUnidle:
		return fmt.Sprintf("[%s became active]\n", m.User)
	case domain.TypeTweet:
		return fmt.Sprintf("[%s tweeted:] %s\n", m.User, m.Body)
	case domain.TypeSound:
		return fmt.Sprintf("[%s played a sound:] %s\n", m.User, m.Body)
	case domain.TypeTimestamp:
		return fmt.Sprintf("--- %s ---\n", m.Timestamp.Format("03:04 PM"))
	case domain.TypeSystem, domain.TypeAdvertisement:
		return ""
	default:
		r.log.Error("unknown message type", "type", string(m.Type), "body", m.Body, "message_id", m.ID)
		return ""
	}
}

// padLeft выравнивает строку вправо до заданной экранной ширины.
// Ширина считается в колонках терминала, а не в байтах, чтобы колонки
// не разъезжались на именах с широкими символами.
func padLeft(s string, width int) string {
	return runewidth.FillLeft(s, width)
}

// indent добавляет отступ к началу строки и после каждого перевода строки.
func indent(s string, count int) string {
	pad := strings.Repeat(" ", count)
	return pad + newlineRuns.ReplaceAllStringFunc(s, func(nl string) string {
		return nl + pad
	})
}
