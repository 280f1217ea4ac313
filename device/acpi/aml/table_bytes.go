package aml

import (
	"reflect"
	"unsafe"

	"acpivm/device/acpi/table"
)

// tableBytesOf reconstructs the raw byte slice backing hdr, using an
// unsafe.Pointer + reflect.SliceHeader overlay. The backing memory is an
// ordinary Go []byte created by whatever table.Resolver produced hdr
// (acpi.StaticResolver, or a test fixture), so the resulting slice is safe
// to read: it simply reinterprets length bytes starting at hdr's own
// address, and hdr.Length is the authoritative size of that allocation.
func tableBytesOf(hdr *table.SDTHeader) []byte {
	var out []byte
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&out))
	sh.Data = uintptr(unsafe.Pointer(hdr))
	sh.Len = int(hdr.Length)
	sh.Cap = int(hdr.Length)
	return out
}
