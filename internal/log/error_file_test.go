package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestErrorFileHandler_Handle(t *testing.T) {
	root := t.TempDir()
	var buf bytes.Buffer
	handler := NewErrorFileHandler(slog.NewTextHandler(&buf, nil), root)
	logger := slog.New(handler)

	logger.Info("routine progress message")
	logger.Error("upload export failed", "path", "acme/General/2010/01/01/uploads/42/pic.png", "error", "boom")
	logger.Error("HTML transcript export failed", "dir", "acme/General/2010/01/02")

	data, err := os.ReadFile(filepath.Join(root, ErrorFileName))
	if err != nil {
		t.Fatalf("expected error log to exist: %v", err)
	}

	content := string(data)
	if strings.Contains(content, "routine progress message") {
		t.Errorf("INFO records must not reach the error log, got %q", content)
	}
	if !strings.Contains(content, "upload export failed path=acme/General/2010/01/01/uploads/42/pic.png error=boom") {
		t.Errorf("expected first error record in log, got %q", content)
	}
	if !strings.Contains(content, "HTML transcript export failed dir=acme/General/2010/01/02") {
		t.Errorf("expected second error record in log, got %q", content)
	}

	// Обе записи прошли и в основной обработчик.
	if !strings.Contains(buf.String(), "routine progress message") {
		t.Errorf("wrapped handler must still receive all records")
	}
}

func TestErrorFileHandler_AppendOnly(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ErrorFileName)
	if err := os.WriteFile(path, []byte("previous run failure\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	handler := NewErrorFileHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), root)
	slog.New(handler).Error("fresh failure")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "previous run failure\n") {
		t.Errorf("existing records must be preserved, got %q", content)
	}
	if !strings.Contains(content, "fresh failure") {
		t.Errorf("new record must be appended, got %q", content)
	}
}

func TestErrorFileHandler_WithAttrs(t *testing.T) {
	root := t.TempDir()
	handler := NewErrorFileHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), root)
	logger := slog.New(handler).With("room", "General")

	logger.Error("transcript export failed")

	data, err := os.ReadFile(filepath.Join(root, ErrorFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "room=General") {
		t.Errorf("attrs bound via With must appear in the error log, got %q", string(data))
	}
}

func TestErrorFileHandler_MasksTokens(t *testing.T) {
	root := t.TempDir()
	handler := NewErrorFileHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), root)

	slog.New(handler).Error("request failed",
		"error", `Get "https://6a7f9c0d1e2b3a4f5c6d7e8f9a0b1c2d3e4f5a6b:X@acme.campfirenow.com/rooms.xml": timeout`)

	data, err := os.ReadFile(filepath.Join(root, ErrorFileName))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "6a7f9c0d1e2b3a4f5c6d7e8f9a0b1c2d3e4f5a6b") {
		t.Errorf("token must not leak into the error log, got %q", string(data))
	}
}
