package acpi

import (
	"io/ioutil"
	"testing"
	"unsafe"

	"acpivm/device/acpi/aml"
	"acpivm/device/acpi/table"

	"github.com/stretchr/testify/require"
)

// buildTable assembles a raw ACPI table (36-byte SDTHeader plus body) with a
// valid checksum, the same unsafe-header-aliasing trick acpi.StaticResolver
// and aml.tableBytesOf rely on to hand a *table.SDTHeader back out of a plain
// []byte.
func buildTable(signature string, revision uint8, body []byte) []byte {
	buf := make([]byte, sdtHeaderSize+len(body))
	hdr := (*table.SDTHeader)(unsafe.Pointer(&buf[0]))
	copy(hdr.Signature[:], signature)
	hdr.Length = uint32(len(buf))
	hdr.Revision = revision
	copy(buf[sdtHeaderSize:], body)

	var sum uint8
	for _, b := range buf {
		sum += b
	}
	hdr.Checksum = -sum
	return buf
}

func TestDriverNameAndVersion(t *testing.T) {
	drv := NewDriver(nil)
	require.Equal(t, "ACPI", drv.DriverName())

	major, minor, patch := drv.DriverVersion()
	require.Equal(t, uint16(0), major)
	require.Equal(t, uint16(0), minor)
	require.Equal(t, uint16(1), patch)
}

func TestProbeForACPIAlwaysNil(t *testing.T) {
	// This driver only ever boots from an injected table.Resolver (see
	// NewDriver); probing for one on a hosted/test build never succeeds.
	require.Nil(t, probeForACPI())
}

func TestDriverInitRequiresResolver(t *testing.T) {
	drv := NewDriver(nil)
	err := drv.DriverInit(ioutil.Discard)
	require.Equal(t, errNoResolver, err)
}

func TestDriverInitLoadsDSDTIntoVM(t *testing.T) {
	// Name(X, 1)
	dsdtBody := []byte{0x08, 'X', '_', '_', '_', 0x0a, 0x01}

	resolver := NewStaticResolver()
	resolver.AddTable("DSDT", buildTable("DSDT", acpiRev2Plus, dsdtBody))
	resolver.AddTable(fadtSignature, buildTable(fadtSignature, acpiRev2Plus, nil))

	drv := NewDriver(resolver)
	require.Nil(t, drv.DriverInit(ioutil.Discard))

	obj, aerr := drv.VM().Lookup("\\X")
	require.Nil(t, aerr)
	require.Equal(t, aml.KindInteger, obj.Kind)
	require.Equal(t, "0x1", aml.Describe(obj))
}

func TestDriverInitPropagatesBadDSDT(t *testing.T) {
	// A lone BankField opcode with no PkgLength/body is truncated input, so
	// the DSDT fails to parse and DriverInit must surface that instead of
	// silently booting an empty namespace.
	resolver := NewStaticResolver()
	resolver.AddTable("DSDT", buildTable("DSDT", acpiRev2Plus, []byte{0x5b, 0x87}))

	drv := NewDriver(resolver)
	require.NotNil(t, drv.DriverInit(ioutil.Discard))
}

func TestEnumerateTablesDiscoversWellKnownTables(t *testing.T) {
	resolver := NewStaticResolver()
	resolver.AddTable("DSDT", buildTable("DSDT", acpiRev2Plus, nil))
	resolver.AddTable(fadtSignature, buildTable(fadtSignature, acpiRev2Plus, nil))
	resolver.AddTable("SSDT", buildTable("SSDT", acpiRev2Plus, nil))
	resolver.AddTable("SSDT2", buildTable("SSDT", acpiRev2Plus, nil))

	drv := &acpiDriver{resolver: resolver}
	require.Nil(t, drv.enumerateTables(ioutil.Discard))

	for _, name := range []string{"DSDT", fadtSignature, "SSDT", "SSDT2"} {
		require.NotNil(t, drv.tableMap[name], "expected enumerateTables to discover %q", name)
	}

	// Exercises the printTableInfo formatting path; nothing to assert on
	// beyond "it doesn't panic" since it only writes a human-readable dump.
	drv.printTableInfo(ioutil.Discard)
}

func TestEnumerateTablesStopsAtFirstMissingSSDT(t *testing.T) {
	resolver := NewStaticResolver()
	resolver.AddTable("DSDT", buildTable("DSDT", acpiRev2Plus, nil))
	resolver.AddTable("SSDT", buildTable("SSDT", acpiRev2Plus, nil))
	// No SSDT2: discovery must stop instead of scanning past the gap.
	resolver.AddTable("SSDT3", buildTable("SSDT", acpiRev2Plus, nil))

	drv := &acpiDriver{resolver: resolver}
	require.Nil(t, drv.enumerateTables(ioutil.Discard))

	require.NotNil(t, drv.tableMap["SSDT"])
	require.Nil(t, drv.tableMap["SSDT3"])
}

func TestValidTableChecksum(t *testing.T) {
	good := buildTable("DSDT", acpiRev2Plus, []byte{0x01, 0x02, 0x03})
	require.True(t, validTable(good))

	bad := append([]byte{}, good...)
	bad[len(bad)-1] ^= 0xff
	require.False(t, validTable(bad))
}
