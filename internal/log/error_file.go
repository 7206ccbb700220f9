package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrorFileName — имя журнала ошибок в корне экспорта.
const ErrorFileName = "export_errors.txt"

// ErrorFileHandler - обертка для slog.Handler, которая дублирует записи
// уровня ERROR и выше в текстовый журнал внутри дерева экспорта. Журнал
// только дописывается: файл открывается с O_APPEND на каждую запись,
// чтобы повторные запуски и параллельные задачи не затирали историю.
type ErrorFileHandler struct {
	handler slog.Handler
	path    string
	attrs   []slog.Attr

	mu *sync.Mutex
}

// NewErrorFileHandler создает обработчик, пишущий ошибки в
// {root}/export_errors.txt поверх переданного обработчика.
func NewErrorFileHandler(handler slog.Handler, root string) *ErrorFileHandler {
	return &ErrorFileHandler{
		handler: handler,
		path:    filepath.Join(root, ErrorFileName),
		mu:      &sync.Mutex{},
	}
}

// Enabled реализует интерфейс slog.Handler. Записи уровня ERROR
// пропускаются всегда: журнал ошибок не зависит от уровня основного
// обработчика.
func (h *ErrorFileHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelError || h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler
func (h *ErrorFileHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= slog.LevelError {
		if err := h.appendRecord(record); err != nil {
			// Журнал ошибок не должен ронять основной лог.
			fmt.Fprintf(os.Stderr, "unable to append to %s: %v\n", h.path, err)
		}
	}
	return h.handler.Handle(ctx, record)
}

// WithAttrs реализует интерфейс slog.Handler
func (h *ErrorFileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	combined := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	combined = append(combined, h.attrs...)
	combined = append(combined, attrs...)
	return &ErrorFileHandler{
		handler: h.handler.WithAttrs(attrs),
		path:    h.path,
		attrs:   combined,
		mu:      h.mu,
	}
}

// WithGroup реализует интерфейс slog.Handler
func (h *ErrorFileHandler) WithGroup(name string) slog.Handler {
	return &ErrorFileHandler{
		handler: h.handler.WithGroup(name),
		path:    h.path,
		attrs:   h.attrs,
		mu:      h.mu,
	}
}

// appendRecord дописывает одну строку журнала: время, сообщение и
// атрибуты записи.
func (h *ErrorFileHandler) appendRecord(record slog.Record) error {
	var b strings.Builder
	b.WriteString(record.Time.Format("2006-01-02 15:04:05"))
	b.WriteString(" ")
	b.WriteString(maskTokens(record.Message))
	for _, a := range h.attrs {
		writeAttr(&b, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, a)
		return true
	})
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(b.String())
	return err
}

func writeAttr(b *strings.Builder, a slog.Attr) {
	b.WriteString(" ")
	b.WriteString(a.Key)
	b.WriteString("=")
	b.WriteString(maskTokens(a.Value.String()))
}
