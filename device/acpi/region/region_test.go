package region

import (
	"testing"

	"acpivm/device/acpi/aml"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestMemoryBackendReadWriteRoundTrip(t *testing.T) {
	b := NewMemoryBackend(16)

	if err := b.Write(aml.RegionSystemMemory, 4, 32, 0xdeadbeef); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	got, err := b.Read(aml.RegionSystemMemory, 4, 32)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got != 0xdeadbeef {
		t.Fatalf("expected 0xdeadbeef; got %#x", got)
	}
}

func TestMemoryBackendRejectsWrongSpace(t *testing.T) {
	b := NewMemoryBackend(16)
	if _, err := b.Read(aml.RegionSystemIO, 0, 8); err == nil {
		t.Fatal("expected an error reading a non-SystemMemory space")
	}
}

func TestMemoryBackendRejectsOutOfBounds(t *testing.T) {
	b := NewMemoryBackend(4)
	if err := b.Write(aml.RegionSystemMemory, 2, 32, 1); err == nil {
		t.Fatal("expected an error writing past the end of backing memory")
	}
}

func TestLogBackendForwardsAndLogs(t *testing.T) {
	next := NewMemoryBackend(8)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	b := NewLogBackend(next, logger)

	if err := b.Write(aml.RegionSystemMemory, 0, 16, 0x1234); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, err := b.Read(aml.RegionSystemMemory, 0, 16); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if len(hook.Entries) != 2 {
		t.Fatalf("expected 2 log entries for a write and a read; got %d", len(hook.Entries))
	}
}

func TestLogBackendLogsFailures(t *testing.T) {
	next := NewMemoryBackend(2)
	logger, hook := test.NewNullLogger()
	b := NewLogBackend(next, logger)

	if err := b.Write(aml.RegionSystemMemory, 10, 16, 1); err == nil {
		t.Fatal("expected an out-of-bounds write to fail")
	}

	found := false
	for _, e := range hook.Entries {
		if e.Level == logrus.WarnLevel {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the failed write to be logged at warn level")
	}
}
