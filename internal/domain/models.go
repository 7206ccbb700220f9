package domain

import "time"

// MessageType представляет тип сообщения Campfire.
// Набор типов закрыт: API не возвращает других значений, а неизвестный
// тип обрабатывается рендерером как пустая строка с записью в лог.
type MessageType string

const (
	TypeEnter             MessageType = "EnterMessage"
	TypeKick              MessageType = "KickMessage"
	TypeLeave             MessageType = "LeaveMessage"
	TypeText              MessageType = "TextMessage"
	TypeUpload            MessageType = "UploadMessage"
	TypePaste             MessageType = "PasteMessage"
	TypeTopicChange       MessageType = "TopicChangeMessage"
	TypeConferenceCreated MessageType = "ConferenceCreatedMessage"
	TypeAllowGuests       MessageType = "AllowGuestsMessage"
	TypeDisallowGuests    MessageType = "DisallowGuestsMessage"
	TypeLock              MessageType = "LockMessage"
	TypeUnlock            MessageType = "UnlockMessage"
	TypeIdle              MessageType = "IdleMessage"
	TypeUnidle            MessageType = "UnidleMessage"
	TypeTweet             MessageType = "TweetMessage"
	TypeSound             MessageType = "SoundMessage"
	TypeTimestamp         MessageType = "TimestampMessage"
	TypeSystem            MessageType = "SystemMessage"
	TypeAdvertisement     MessageType = "AdvertisementMessage"
)

// RequiresUser сообщает, несет ли сообщение данного типа автора.
// Служебные типы (разделитель времени, системные и рекламные сообщения)
// автора не имеют.
func (t MessageType) RequiresUser() bool {
	switch t {
	case TypeTimestamp, TypeSystem, TypeAdvertisement:
		return false
	}
	return true
}

// Room представляет одну комнату чата.
type Room struct {
	ID        string
	Name      string
	CreatedAt time.Time // локальное время аккаунта

	// LastUpdate — время последнего сообщения в комнате. Заполняется
	// лениво из recent.xml; нулевое значение означает "еще не определено".
	LastUpdate time.Time
}

// Message представляет одно нормализованное сообщение стенограммы.
type Message struct {
	ID        string
	RoomID    string
	Date      time.Time // календарный день стенограммы
	Type      MessageType
	Body      string
	User      string    // отображаемое имя; пусто для типов без автора
	Timestamp time.Time // локальное время аккаунта
}

// IsUpload сообщает, ссылается ли сообщение на загруженный файл.
func (m *Message) IsUpload() bool {
	return m.Type == TypeUpload
}

// Upload представляет файл, прикрепленный к сообщению типа UploadMessage.
// Инвариант: Deleted и наличие Content взаимно исключают друг друга.
type Upload struct {
	ID          string
	Filename    string
	ByteSize    int64
	ContentType string
	Content     []byte
	Deleted     bool
	MessageID   string
	RoomID      string
}

// IsImage сообщает, является ли загрузка изображением. Для изображений
// дополнительно экспортируется миниатюра.
func (u *Upload) IsImage() bool {
	return len(u.ContentType) >= 6 && u.ContentType[:6] == "image/"
}

// UploadStatus — результат получения загрузки с сервера.
type UploadStatus int

const (
	// UploadFound — метаданные и содержимое получены.
	UploadFound UploadStatus = iota
	// UploadDeleted — сервер вернул 404: файл был удален после публикации
	// сообщения. Это не ошибка.
	UploadDeleted
	// UploadFailed — любая другая ошибка получения.
	UploadFailed
)

// UploadResult — тегированный результат получения загрузки вместо
// классификации исключений по коду ответа.
type UploadResult struct {
	Status UploadStatus
	Upload *Upload
	Err    error
}

// RoomSummary — счетчики экспорта по одной комнате.
type RoomSummary struct {
	RoomID         string `json:"room_id"`
	RoomName       string `json:"room_name"`
	DaysVisited    int    `json:"days_visited"`
	DaysExported   int    `json:"days_exported"`
	Messages       int    `json:"messages"`
	Uploads        int    `json:"uploads"`
	DeletedUploads int    `json:"deleted_uploads"`
	Errors         int    `json:"errors"`
}

// ExportSummary — итог одного запуска экспорта. Возвращается движком,
// отдается сервером как результат задачи и может быть выгружен в xlsx.
type ExportSummary struct {
	Subdomain  string        `json:"subdomain"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Rooms      []RoomSummary `json:"rooms"`
}

// TotalErrors возвращает суммарное число ошибок по всем комнатам.
func (s *ExportSummary) TotalErrors() int {
	total := 0
	for _, r := range s.Rooms {
		total += r.Errors
	}
	return total
}
