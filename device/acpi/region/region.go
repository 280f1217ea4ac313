// Package region implements backends for the aml.RegionBackend interface,
// servicing OperationRegion reads and writes. The shape follows the rest
// of the device/ packages -- small, dependency injected, logged through
// the same structured logger the rest of the host boundary uses.
package region

import (
	"fmt"

	"acpivm/device/acpi/aml"

	"github.com/sirupsen/logrus"
)

// MemoryBackend services a SystemMemory OperationRegion against an
// in-process byte arena, letting tests and the amldump CLI exercise Field
// reads/writes without any real MMIO.
type MemoryBackend struct {
	mem []byte
}

// NewMemoryBackend allocates a backend with size bytes of zeroed storage.
func NewMemoryBackend(size int) *MemoryBackend {
	return &MemoryBackend{mem: make([]byte, size)}
}

// Read implements aml.RegionBackend.
func (b *MemoryBackend) Read(space aml.RegionSpace, offset uint64, width int) (uint64, error) {
	if space != aml.RegionSystemMemory {
		return 0, fmt.Errorf("region: MemoryBackend only services SystemMemory, got %v", space)
	}
	if int(offset)+width/8 > len(b.mem) {
		return 0, fmt.Errorf("region: read past end of backing memory at offset %d", offset)
	}
	var v uint64
	n := width / 8
	for i := 0; i < n; i++ {
		v |= uint64(b.mem[int(offset)+i]) << (8 * uint(i))
	}
	return v, nil
}

// Write implements aml.RegionBackend.
func (b *MemoryBackend) Write(space aml.RegionSpace, offset uint64, width int, value uint64) error {
	if space != aml.RegionSystemMemory {
		return fmt.Errorf("region: MemoryBackend only services SystemMemory, got %v", space)
	}
	if int(offset)+width/8 > len(b.mem) {
		return fmt.Errorf("region: write past end of backing memory at offset %d", offset)
	}
	n := width / 8
	for i := 0; i < n; i++ {
		b.mem[int(offset)+i] = byte(value >> (8 * uint(i)))
	}
	return nil
}

// LogBackend decorates another RegionBackend, logging every access through
// logrus. The amldump CLI's `dump` and `call` subcommands (via buildVM) use
// it to surface OperationRegion traffic without modifying the underlying
// backend.
type LogBackend struct {
	Next aml.RegionBackend
	Log  *logrus.Logger
}

// NewLogBackend wraps next, logging through log (or a default logger if nil).
func NewLogBackend(next aml.RegionBackend, log *logrus.Logger) *LogBackend {
	if log == nil {
		log = logrus.New()
	}
	return &LogBackend{Next: next, Log: log}
}

// Read implements aml.RegionBackend.
func (b *LogBackend) Read(space aml.RegionSpace, offset uint64, width int) (uint64, error) {
	v, err := b.Next.Read(space, offset, width)
	entry := b.Log.WithFields(logrus.Fields{
		"space":  space,
		"offset": offset,
		"width":  width,
		"value":  v,
	})
	if err != nil {
		entry.WithError(err).Warn("region read failed")
	} else {
		entry.Debug("region read")
	}
	return v, err
}

// Write implements aml.RegionBackend.
func (b *LogBackend) Write(space aml.RegionSpace, offset uint64, width int, value uint64) error {
	err := b.Next.Write(space, offset, width, value)
	entry := b.Log.WithFields(logrus.Fields{
		"space":  space,
		"offset": offset,
		"width":  width,
		"value":  value,
	})
	if err != nil {
		entry.WithError(err).Warn("region write failed")
	} else {
		entry.Debug("region write")
	}
	return err
}
