package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campfire-export/internal/domain"
)

func TestParseRooms(t *testing.T) {
	t.Run("разбирает список комнат", func(t *testing.T) {
		data := []byte(`<rooms>
			<room><id>666</id><name>Test Room</name><created-at>2009-11-17T19:41:38Z</created-at></room>
			<room><id>667</id><name>General</name><created-at>2010-01-01T00:00:00Z</created-at></room>
		</rooms>`)

		rooms, err := ParseRooms(data)
		require.NoError(t, err)
		require.Len(t, rooms, 2)

		assert.Equal(t, "666", rooms[0].ID)
		assert.Equal(t, "Test Room", rooms[0].Name)
		assert.Equal(t, time.Date(2009, 11, 17, 19, 41, 38, 0, time.UTC), rooms[0].CreatedAt)
		assert.Equal(t, "General", rooms[1].Name)
	})

	t.Run("отсутствие id — ошибка", func(t *testing.T) {
		data := []byte(`<rooms><room><name>No ID</name><created-at>2009-11-17T19:41:38Z</created-at></room></rooms>`)
		_, err := ParseRooms(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing id")
	})

	t.Run("отсутствие created-at — ошибка", func(t *testing.T) {
		data := []byte(`<rooms><room><id>1</id><name>X</name></room></rooms>`)
		_, err := ParseRooms(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing created-at")
	})

	t.Run("пустой список комнат допустим", func(t *testing.T) {
		rooms, err := ParseRooms([]byte(`<rooms></rooms>`))
		require.NoError(t, err)
		assert.Empty(t, rooms)
	})
}

func TestParseTimezone(t *testing.T) {
	t.Run("извлекает идентификатор пояса", func(t *testing.T) {
		data := []byte(`<account><name>Acme</name><time-zone>Eastern Time (US &amp; Canada)</time-zone></account>`)
		zone, err := ParseTimezone(data)
		require.NoError(t, err)
		assert.Equal(t, "Eastern Time (US & Canada)", zone)
	})

	t.Run("отсутствие поля — ошибка", func(t *testing.T) {
		_, err := ParseTimezone([]byte(`<account><name>Acme</name></account>`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing time-zone")
	})
}

func TestParseMessages(t *testing.T) {
	t.Run("сохраняет порядок и поля сообщений", func(t *testing.T) {
		data := []byte(`<messages>
			<message><id>1</id><type>TextMessage</type><body>hello</body><user-id>10</user-id><created-at>2010-01-01T12:00:00Z</created-at></message>
			<message><id>2</id><type>TimestampMessage</type><body></body><user-id></user-id><created-at>2010-01-01T12:05:00Z</created-at></message>
			<message><id>3</id><type>UploadMessage</type><body>pic.png</body><user-id>11</user-id><created-at>2010-01-01T12:06:00Z</created-at></message>
		</messages>`)

		messages, err := ParseMessages(data)
		require.NoError(t, err)
		require.Len(t, messages, 3)

		assert.Equal(t, "1", messages[0].ID)
		assert.Equal(t, domain.TypeText, messages[0].Type)
		assert.Equal(t, "hello", messages[0].Body)
		assert.Equal(t, "10", messages[0].UserID)
		assert.Equal(t, domain.TypeTimestamp, messages[1].Type)
		assert.Empty(t, messages[1].UserID)
		assert.Equal(t, domain.TypeUpload, messages[2].Type)
	})

	t.Run("отсутствие type — ошибка", func(t *testing.T) {
		data := []byte(`<messages><message><id>1</id><body>x</body><created-at>2010-01-01T12:00:00Z</created-at></message></messages>`)
		_, err := ParseMessages(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing type")
	})

	t.Run("пустая стенограмма допустима", func(t *testing.T) {
		messages, err := ParseMessages([]byte(`<messages></messages>`))
		require.NoError(t, err)
		assert.Empty(t, messages)
	})
}

func TestParseRecentTimestamp(t *testing.T) {
	t.Run("возвращает время последнего сообщения", func(t *testing.T) {
		data := []byte(`<messages><message><id>99</id><type>TextMessage</type><created-at>2010-01-03T08:30:00Z</created-at></message></messages>`)
		ts, err := ParseRecentTimestamp(data)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2010, 1, 3, 8, 30, 0, 0, time.UTC), ts)
	})

	t.Run("пустой список — ошибка", func(t *testing.T) {
		_, err := ParseRecentTimestamp([]byte(`<messages></messages>`))
		require.Error(t, err)
	})
}

func TestParseUpload(t *testing.T) {
	t.Run("разбирает метаданные загрузки", func(t *testing.T) {
		data := []byte(`<upload>
			<id>42</id><name>Picture 1.png</name><byte-size>1024</byte-size><content-type>image/png</content-type>
		</upload>`)

		meta, err := ParseUpload(data)
		require.NoError(t, err)
		assert.Equal(t, "42", meta.ID)
		assert.Equal(t, "Picture 1.png", meta.Filename)
		assert.Equal(t, int64(1024), meta.ByteSize)
		assert.Equal(t, "image/png", meta.ContentType)
	})

	t.Run("нечисловой byte-size — ошибка", func(t *testing.T) {
		data := []byte(`<upload><id>42</id><name>f.txt</name><byte-size>huge</byte-size></upload>`)
		_, err := ParseUpload(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid byte-size")
	})

	t.Run("отсутствие byte-size — ошибка", func(t *testing.T) {
		data := []byte(`<upload><id>42</id><name>f.txt</name></upload>`)
		_, err := ParseUpload(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing byte-size")
	})
}

func TestParseUserName(t *testing.T) {
	t.Run("извлекает имя", func(t *testing.T) {
		name, err := ParseUserName([]byte(`<user><id>10</id><name>Jane Smith</name></user>`))
		require.NoError(t, err)
		assert.Equal(t, "Jane Smith", name)
	})

	t.Run("отсутствие имени — ошибка", func(t *testing.T) {
		_, err := ParseUserName([]byte(`<user><id>10</id></user>`))
		require.Error(t, err)
	})
}
