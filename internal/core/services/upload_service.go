package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"campfire-export/internal/adapters/campfire"
	"campfire-export/internal/adapters/parser"
	"campfire-export/internal/adapters/sink"
	"campfire-export/internal/domain"
	"campfire-export/internal/ports"
)

// UploadService получает и экспортирует файлы, прикрепленные к
// сообщениям типа UploadMessage. Результат получения — тегированное
// значение {Found, Deleted, Failed}: 404 на метаданных или содержимом
// означает, что файл был удален после публикации, и ошибкой не является.
type UploadService struct {
	transport ports.Transport
	sink      *sink.DirSink
	log       *slog.Logger
}

// NewUploadService создает новый экземпляр UploadService.
func NewUploadService(transport ports.Transport, dirSink *sink.DirSink, log *slog.Logger) *UploadService {
	if log == nil {
		log = slog.Default()
	}
	return &UploadService{transport: transport, sink: dirSink, log: log}
}

// Fetch получает метаданные и содержимое загрузки одного сообщения.
// Содержимое запрашивается ровно один раз.
func (s *UploadService) Fetch(ctx context.Context, msg *domain.Message) domain.UploadResult {
	metaPath := fmt.Sprintf("/room/%s/messages/%s/upload.xml", msg.RoomID, msg.ID)
	body, err := s.transport.Get(ctx, metaPath, url.Values{})
	if err != nil {
		if campfire.IsNotFound(err) {
			return domain.UploadResult{Status: domain.UploadDeleted}
		}
		return domain.UploadResult{Status: domain.UploadFailed, Err: fmt.Errorf("failed to fetch upload metadata: %w", err)}
	}

	meta, err := parser.ParseUpload(body)
	if err != nil {
		return domain.UploadResult{Status: domain.UploadFailed, Err: fmt.Errorf("failed to parse upload metadata: %w", err)}
	}

	upload := &domain.Upload{
		ID:          meta.ID,
		Filename:    meta.Filename,
		ByteSize:    meta.ByteSize,
		ContentType: meta.ContentType,
		MessageID:   msg.ID,
		RoomID:      msg.RoomID,
	}

	contentPath := fmt.Sprintf("/room/%s/uploads/%s/%s", msg.RoomID, meta.ID, url.PathEscape(meta.Filename))
	content, err := s.transport.Get(ctx, contentPath, url.Values{})
	if err != nil {
		if campfire.IsNotFound(err) {
			upload.Deleted = true
			return domain.UploadResult{Status: domain.UploadDeleted, Upload: upload}
		}
		return domain.UploadResult{Status: domain.UploadFailed, Upload: upload,
			Err: fmt.Errorf("failed to fetch upload content: %w", err)}
	}
	upload.Content = content

	return domain.UploadResult{Status: domain.UploadFound, Upload: upload}
}

// Export получает загрузку сообщения и записывает ее содержимое под
// {dayDir}/uploads/{id}/{filename}. Идентификатор загрузки входит в путь,
// чтобы два разных файла с одинаковым именем за один день не столкнулись.
// Для изображений дополнительно экспортируется миниатюра без проверки
// размера.
func (s *UploadService) Export(ctx context.Context, dayDir string, msg *domain.Message) domain.UploadResult {
	s.log.Info("exporting upload", "room_id", msg.RoomID, "message_id", msg.ID, "body", msg.Body)

	result := s.Fetch(ctx, msg)
	switch result.Status {
	case domain.UploadDeleted:
		// Файл удален после публикации сообщения — информационное
		// событие, не ошибка.
		s.log.Info("upload deleted upstream, skipping", "room_id", msg.RoomID, "message_id", msg.ID)
		return result
	case domain.UploadFailed:
		return result
	}

	// Запись идет относительно uploads/{id}, чтобы имя файла с "../" не
	// могло подняться даже до каталога дня.
	upload := result.Upload
	uploadDir := filepath.Join(dayDir, "uploads", upload.ID)
	if err := s.sink.WriteFile(uploadDir, upload.Filename, upload.Content); err != nil {
		return domain.UploadResult{Status: domain.UploadFailed, Upload: upload,
			Err: fmt.Errorf("failed to write upload: %w", err)}
	}
	if err := s.sink.Verify(uploadDir, upload.Filename, upload.ByteSize); err != nil {
		return domain.UploadResult{Status: domain.UploadFailed, Upload: upload,
			Err: fmt.Errorf("upload verification failed: %w", err)}
	}

	if upload.IsImage() {
		s.exportThumbnail(ctx, dayDir, upload)
	}

	s.log.Info("upload exported", "room_id", msg.RoomID, "upload_id", upload.ID, "filename", upload.Filename)
	return result
}

// exportThumbnail выгружает миниатюру изображения в thumbs/{id}/{filename},
// чтобы ссылки в переписанном HTML оставались рабочими. Миниатюра не
// проверяется по размеру, а ее отсутствие не считается ошибкой экспорта.
func (s *UploadService) exportThumbnail(ctx context.Context, dayDir string, upload *domain.Upload) {
	thumbPath := fmt.Sprintf("/room/%s/thumb/%s/%s", upload.RoomID, upload.ID, url.PathEscape(upload.Filename))
	content, err := s.transport.Get(ctx, thumbPath, url.Values{})
	if err != nil {
		s.log.Debug("failed to fetch thumbnail", "upload_id", upload.ID, "error", err)
		return
	}
	thumbDir := filepath.Join(dayDir, "thumbs", upload.ID)
	if err := s.sink.WriteFile(thumbDir, upload.Filename, content); err != nil {
		s.log.Debug("failed to write thumbnail", "upload_id", upload.ID, "error", err)
	}
}
