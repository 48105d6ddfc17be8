package logging

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize_SilentWithoutLevel(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zap.ErrorLevel) {
		t.Error("logger should be silent when no level is configured")
	}
}

func TestInitialize_LevelFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zap.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !GetLogger().Core().Enabled(zap.WarnLevel) {
		t.Error("warn should be enabled at warn level")
	}
}

func TestInitialize_UnknownLevel(t *testing.T) {
	if err := Initialize("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestInitializeWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.log")
	if err := InitializeWithFile("debug", FileOptions{Path: path, MaxSizeMB: 1}); err != nil {
		t.Fatalf("InitializeWithFile() error = %v", err)
	}
	Info("file logging enabled")
	Sync()
}

func TestForConnAndPrintable(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	ForConn("10.0.0.9:5000").Info("Request received", Printable("body", []byte("{\"a\":1}\r\n")))
	Warn("plain")

	if logs.Len() != 2 {
		t.Fatalf("logged %d entries, want 2", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["remote_addr"] != "10.0.0.9:5000" {
		t.Errorf("remote_addr = %v", fields["remote_addr"])
	}
	if fields["body"] != "{\"a\":1}.." {
		t.Errorf("body = %q", fields["body"])
	}
}

func TestPrintable_Truncates(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	if got := Printable("b", long).String; len(got) != maxPrintable {
		t.Errorf("len = %d, want %d", len(got), maxPrintable)
	}
}

func TestSetLoggerNilIsSilent(t *testing.T) {
	SetLogger(nil)
	if GetLogger().Core().Enabled(zap.ErrorLevel) {
		t.Error("nil logger should be a no-op")
	}
	Error("dropped")
}
