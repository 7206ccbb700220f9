// Package parser реализует типизированный разбор XML-ответов Campfire API.
// Каждое ожидаемое поле отображается в именованное типизированное значение
// на этапе разбора; отсутствие обязательного поля — явная ошибка, а не
// пустая строка.
package parser

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"campfire-export/internal/domain"
)

// RawMessage — одно сообщение стенограммы до разрешения пользователя и
// преобразования времени в часовой пояс аккаунта.
type RawMessage struct {
	ID        string
	Type      domain.MessageType
	Body      string
	UserID    string
	CreatedAt time.Time
}

// UploadMeta — метаданные загрузки из upload.xml.
type UploadMeta struct {
	ID          string
	Filename    string
	ByteSize    int64
	ContentType string
}

type roomXML struct {
	ID        string `xml:"id"`
	Name      string `xml:"name"`
	CreatedAt string `xml:"created-at"`
}

type roomsXML struct {
	Rooms []roomXML `xml:"room"`
}

type accountXML struct {
	TimeZone string `xml:"time-zone"`
}

type messageXML struct {
	ID        string `xml:"id"`
	Type      string `xml:"type"`
	Body      string `xml:"body"`
	UserID    string `xml:"user-id"`
	CreatedAt string `xml:"created-at"`
}

type messagesXML struct {
	Messages []messageXML `xml:"message"`
}

type uploadXML struct {
	ID          string `xml:"id"`
	Name        string `xml:"name"`
	ByteSize    string `xml:"byte-size"`
	ContentType string `xml:"content-type"`
}

type userXML struct {
	Name string `xml:"name"`
}

// ParseRooms разбирает rooms.xml в список комнат. Временные метки
// остаются в UTC; преобразование в часовой пояс аккаунта выполняет
// вызывающая сторона.
func ParseRooms(data []byte) ([]domain.Room, error) {
	var doc roomsXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rooms xml: %w", err)
	}

	rooms := make([]domain.Room, 0, len(doc.Rooms))
	for i, r := range doc.Rooms {
		if r.ID == "" {
			return nil, fmt.Errorf("room %d: missing id field", i)
		}
		if r.Name == "" {
			return nil, fmt.Errorf("room %s: missing name field", r.ID)
		}
		createdAt, err := parseTimestamp(r.CreatedAt, "created-at")
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", r.ID, err)
		}
		rooms = append(rooms, domain.Room{
			ID:        r.ID,
			Name:      r.Name,
			CreatedAt: createdAt,
		})
	}
	return rooms, nil
}

// ParseTimezone извлекает идентификатор часового пояса из account.xml.
func ParseTimezone(data []byte) (string, error) {
	var doc accountXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to unmarshal account xml: %w", err)
	}
	if doc.TimeZone == "" {
		return "", fmt.Errorf("account settings: missing time-zone field")
	}
	return doc.TimeZone, nil
}

// ParseMessages разбирает XML-стенограмму дня в упорядоченный список
// сообщений. Порядок сообщений сохраняется как в ответе API.
func ParseMessages(data []byte) ([]RawMessage, error) {
	var doc messagesXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript xml: %w", err)
	}

	messages := make([]RawMessage, 0, len(doc.Messages))
	for i, m := range doc.Messages {
		if m.ID == "" {
			return nil, fmt.Errorf("message %d: missing id field", i)
		}
		if m.Type == "" {
			return nil, fmt.Errorf("message %s: missing type field", m.ID)
		}
		createdAt, err := parseTimestamp(m.CreatedAt, "created-at")
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", m.ID, err)
		}
		messages = append(messages, RawMessage{
			ID:        m.ID,
			Type:      domain.MessageType(m.Type),
			Body:      m.Body,
			UserID:    m.UserID,
			CreatedAt: createdAt,
		})
	}
	return messages, nil
}

// ParseRecentTimestamp извлекает время последнего сообщения из ответа
// recent.xml?limit=1.
func ParseRecentTimestamp(data []byte) (time.Time, error) {
	messages, err := ParseMessages(data)
	if err != nil {
		return time.Time{}, err
	}
	if len(messages) == 0 {
		return time.Time{}, fmt.Errorf("recent messages: empty message list")
	}
	return messages[0].CreatedAt, nil
}

// ParseUpload разбирает upload.xml в метаданные загрузки.
func ParseUpload(data []byte) (*UploadMeta, error) {
	var doc uploadXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal upload xml: %w", err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("upload: missing id field")
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("upload %s: missing name field", doc.ID)
	}
	if doc.ByteSize == "" {
		return nil, fmt.Errorf("upload %s: missing byte-size field", doc.ID)
	}
	byteSize, err := strconv.ParseInt(doc.ByteSize, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("upload %s: invalid byte-size %q: %w", doc.ID, doc.ByteSize, err)
	}
	return &UploadMeta{
		ID:          doc.ID,
		Filename:    doc.Name,
		ByteSize:    byteSize,
		ContentType: doc.ContentType,
	}, nil
}

// ParseUserName извлекает полное имя пользователя из users/{id}.xml.
func ParseUserName(data []byte) (string, error) {
	var doc userXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to unmarshal user xml: %w", err)
	}
	if doc.Name == "" {
		return "", fmt.Errorf("user: missing name field")
	}
	return doc.Name, nil
}

func parseTimestamp(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing %s field", field)
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s value %q: %w", field, value, err)
	}
	return ts, nil
}
