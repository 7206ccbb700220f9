// Package sink реализует запись дерева экспорта на диск: раскладку
// каталогов по дням, защиту от выхода за пределы каталога экспорта,
// отказ от перезаписи и проверку размера записанного файла.
package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PathViolationError — целевой путь записи выходит за пределы каталога
// экспорта. Запись отклоняется: имена файлов приходят с удаленного API
// и могут быть враждебными.
type PathViolationError struct {
	Path     string // запрошенный путь
	Resolved string // абсолютный путь после разрешения
	Dir      string // каталог, внутри которого должна остаться запись
}

func (e *PathViolationError) Error() string {
	return fmt.Sprintf("<%s>: path escapes export directory (expected under %s, resolved to %s)",
		e.Path, e.Dir, e.Resolved)
}

// FileExistsError — целевой файл уже существует. Повторный запуск по
// заполненному дереву не перезаписывает данные; каждый такой отказ
// логируется как ошибка.
type FileExistsError struct {
	Path string
}

func (e *FileExistsError) Error() string {
	return fmt.Sprintf("<%s>: file already exists", e.Path)
}

// VerificationError — записанный файл отсутствует или имеет неверный
// размер. Actual равен -1, если файл не найден на диске.
type VerificationError struct {
	Path     string
	Expected int64
	Actual   int64
}

func (e *VerificationError) Error() string {
	if e.Actual < 0 {
		return fmt.Sprintf("<%s>: file should have been exported but did not make it to disk", e.Path)
	}
	return fmt.Sprintf("<%s>: exported file exists but is not the right size (expected: %d, actual: %d)",
		e.Path, e.Expected, e.Actual)
}

// DirSink записывает артефакты экспорта внутрь корневого каталога.
type DirSink struct {
	root    string
	absRoot string
}

// NewDirSink создает DirSink для указанного корневого каталога.
func NewDirSink(root string) (*DirSink, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve export root %s: %w", root, err)
	}
	return &DirSink{root: root, absRoot: absRoot}, nil
}

// Root возвращает корневой каталог экспорта, как он был задан.
func (s *DirSink) Root() string {
	return s.root
}

// DayDir возвращает каталог экспорта одного дня комнаты:
// {root}/{subdomain}/{room}/{YYYY}/{MM}/{DD}.
func (s *DirSink) DayDir(subdomain, roomName string, date time.Time) string {
	return filepath.Join(s.root, subdomain, roomName,
		fmt.Sprintf("%04d", date.Year()),
		fmt.Sprintf("%02d", int(date.Month())),
		fmt.Sprintf("%02d", date.Day()))
}

// EnsureDir создает каталог (идемпотентно), предварительно проверив, что
// он лежит внутри корня экспорта: имя комнаты тоже приходит с API.
func (s *DirSink) EnsureDir(dir string) error {
	resolved, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}
	if !within(s.absRoot, resolved) {
		return &PathViolationError{Path: dir, Resolved: resolved, Dir: s.absRoot}
	}
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// WriteFile записывает содержимое в {dir}/{filename}. Перед записью
// разрешенный абсолютный путь проверяется на принадлежность каталогу dir
// и корню экспорта: сам dir собирается из данных API (имя комнаты,
// идентификатор загрузки) и тоже может быть враждебным. Существующий
// файл не перезаписывается.
func (s *DirSink) WriteFile(dir, filename string, content []byte) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}
	resolved, err := filepath.Abs(filepath.Join(dir, filename))
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", filename, err)
	}
	if !within(absDir, resolved) {
		return &PathViolationError{
			Path:     filepath.Join(dir, filename),
			Resolved: resolved,
			Dir:      absDir,
		}
	}
	if !within(s.absRoot, resolved) {
		return &PathViolationError{
			Path:     filepath.Join(dir, filename),
			Resolved: resolved,
			Dir:      s.absRoot,
		}
	}

	if _, err := os.Stat(resolved); err == nil {
		return &FileExistsError{Path: filepath.Join(dir, filename)}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", resolved, err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", filename, err)
	}
	if err := os.WriteFile(resolved, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// Verify проверяет, что файл {dir}/{filename} существует и имеет ровно
// ожидаемый размер. Расхождение означает усеченную или поврежденную
// передачу.
func (s *DirSink) Verify(dir, filename string, expectedSize int64) error {
	path := filepath.Join(dir, filename)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &VerificationError{Path: path, Expected: expectedSize, Actual: -1}
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() != expectedSize {
		return &VerificationError{Path: path, Expected: expectedSize, Actual: info.Size()}
	}
	return nil
}

// within сообщает, лежит ли resolved внутри dir (или совпадает с ним).
func within(dir, resolved string) bool {
	if resolved == dir {
		return true
	}
	return strings.HasPrefix(resolved, dir+string(filepath.Separator))
}
