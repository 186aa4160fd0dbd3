package httpfactory

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// Light smoke tests ensuring exported logger APIs do not panic and remain
// callable.
func TestSimpleLoggerLevels(t *testing.T) {
	logger := NewSimpleLogger()

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")
}

func TestSimpleLoggerReusability(t *testing.T) {
	logger := NewSimpleLogger()
	for i := 0; i < 5; i++ {
		logger.Info("loop message")
	}
}

func TestSimpleLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := &SimpleLogger{logger: log.New(&buf, "", 0)}

	logger.Info("Starting request", "method", "GET", "url", "https://example.com")

	got := strings.TrimSpace(buf.String())
	want := "[INFO] Starting request method=GET url=https://example.com"
	if got != want {
		t.Errorf("Expected '%s', got '%s'", want, got)
	}
}

func TestSimpleLoggerNoFields(t *testing.T) {
	var buf bytes.Buffer
	logger := &SimpleLogger{logger: log.New(&buf, "", 0)}

	logger.Warn("plain message")

	got := strings.TrimSpace(buf.String())
	if got != "[WARN] plain message" {
		t.Errorf("Expected '[WARN] plain message', got '%s'", got)
	}
}

func TestSimpleLoggerOddFields(t *testing.T) {
	var buf bytes.Buffer
	logger := &SimpleLogger{logger: log.New(&buf, "", 0)}

	// A trailing key without a value must not panic
	logger.Error("broken pairs", "key1", "value1", "dangling")

	got := strings.TrimSpace(buf.String())
	want := "[ERROR] broken pairs key1=value1 dangling="
	if got != want {
		t.Errorf("Expected '%s', got '%s'", want, got)
	}
}

func TestNewZapLogger(t *testing.T) {
	zl := zap.NewNop()
	logger := NewZapLogger(zl)

	if logger == nil {
		t.Fatal("NewZapLogger() returned nil")
	}

	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "key", "value")
	logger.Warn("warn message", "key", "value")
	logger.Error("error message", "key", "value")
}

func TestDefaultDebugConfig(t *testing.T) {
	config := DefaultDebugConfig()

	if config == nil {
		t.Fatal("DefaultDebugConfig() returned nil")
	}

	if config.Enabled {
		t.Error("Expected debug to be disabled by default")
	}

	if !config.LogRequests || !config.LogRetries || !config.LogCache || !config.LogRateLimit || !config.LogCircuit {
		t.Error("Expected all concern flags to be selected by default")
	}

	if config.RequestIDGen == nil {
		t.Fatal("Expected RequestIDGen to be set")
	}

	id1 := config.RequestIDGen()
	id2 := config.RequestIDGen()
	if id1 == "" || id1 == id2 {
		t.Errorf("Expected unique non-empty request IDs, got '%s' and '%s'", id1, id2)
	}
}
