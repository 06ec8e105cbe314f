package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewConfigLevel(t *testing.T) {
	if got := NewConfig(false).Level.Level(); got != zap.InfoLevel {
		t.Errorf("expected info level, got %s", got)
	}
	if got := NewConfig(true).Level.Level(); got != zap.DebugLevel {
		t.Errorf("expected debug level, got %s", got)
	}
}

func TestNewLogger(t *testing.T) {
	l := NewLogger("armdyn", true)
	if l == nil {
		t.Fatal("expected logger")
	}
	if !l.Desugar().Core().Enabled(zap.DebugLevel) {
		t.Error("expected debug enabled")
	}
	l.Debugw("test message", "key", 1)
}
