package acpi

import (
	"reflect"
	"unsafe"

	"acpivm/device/acpi/table"
)

// StaticResolver implements table.Resolver over an in-memory map of raw
// table bytes, keyed by the table's 4-character signature. It exists so
// tests, the amldump CLI, and any hosted (non-freestanding) build can feed
// an aml.VM real DSDT/SSDT bytes (loaded from a file, embedded, or
// synthesized) without a raw-physical-memory RSDT/XSDT walk, which depends
// on kernel allocator/paging machinery this module does not own.
type StaticResolver struct {
	tables map[string]*table.SDTHeader
	// raw keeps the backing byte slices alive; *table.SDTHeader pointers
	// returned by LookupTable alias directly into these slices (see
	// AddTable), so they must not be garbage collected out from under
	// aml.tableBytesOf's unsafe reinterpretation.
	raw map[string][]byte
}

// NewStaticResolver returns an empty resolver; use AddTable to populate it.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{
		tables: make(map[string]*table.SDTHeader),
		raw:    make(map[string][]byte),
	}
}

// AddTable registers the raw bytes of one ACPI table (header included).
// Every table is keyed by name, not by the signature in its header, since
// several tables legitimately share the signature "SSDT".
func (r *StaticResolver) AddTable(name string, data []byte) {
	r.raw[name] = data
	r.tables[name] = headerFromBytes(data)
}

// LookupTable implements table.Resolver.
func (r *StaticResolver) LookupTable(name string) *table.SDTHeader {
	return r.tables[name]
}

// headerFromBytes reinterprets the first bytes of data as a table.SDTHeader
// via an unsafe.Pointer aliasing trick, pointed at an ordinary Go-managed
// buffer rather than mapped physical memory.
func headerFromBytes(data []byte) *table.SDTHeader {
	if len(data) < sdtHeaderSize {
		return nil
	}
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&data))
	return (*table.SDTHeader)(unsafe.Pointer(sh.Data))
}

const sdtHeaderSize = 36
