package acpi

import (
	"acpivm/device"
	"acpivm/device/acpi/aml"
	"acpivm/device/acpi/table"
	"acpivm/kernel"
	"acpivm/kernel/kfmt"
	"io"

	"github.com/sirupsen/logrus"
)

const (
	acpiRev1     uint8 = 0
	acpiRev2Plus uint8 = 2
)

var (
	errTableChecksumMismatch = &kernel.Error{Module: "acpi", Message: "detected checksum mismatch while parsing ACPI table header"}
	errNoResolver            = &kernel.Error{Module: "acpi", Message: "acpi driver has no table resolver configured"}

	fadtSignature = "FACP"
)

// acpiDriver is the host-facing ACPI driver surfaced through
// device.RegisterDriver. Table discovery (locating the RSDT/XSDT and
// walking it down to DSDT/SSDTn) is treated as an external collaborator:
// this driver is backed by an injectable table.Resolver -- StaticResolver
// for hosted/test use, or a boot-time resolver supplied by the kernel's own
// ACPI table walker.
type acpiDriver struct {
	resolver table.Resolver
	tableMap map[string]*table.SDTHeader

	vm  *aml.VM
	log *logrus.Logger
}

// NewDriver builds an acpi.Driver around resolver without registering it;
// mainly for tests and the amldump CLI, which want to drive a VM directly
// rather than going through device.RegisterDriver's probe mechanism.
func NewDriver(resolver table.Resolver) *acpiDriver {
	return &acpiDriver{resolver: resolver, log: logrus.New()}
}

// DriverInit initializes this driver: it enumerates the well-known tables
// reachable from the resolver, then boots an aml.VM against the same
// resolver so the DSDT/SSDT AML bodies get parsed into a namespace.
func (drv *acpiDriver) DriverInit(w io.Writer) *kernel.Error {
	if drv.resolver == nil {
		return errNoResolver
	}

	if err := drv.enumerateTables(w); err != nil {
		return err
	}
	drv.printTableInfo(w)

	drv.vm = aml.NewVM(drv.resolver)
	drv.vm.SetErrWriter(w)
	if err := drv.vm.Init(); err != nil {
		return err
	}

	return nil
}

// VM returns the aml.VM booted by DriverInit, or nil before that runs.
func (drv *acpiDriver) VM() *aml.VM { return drv.vm }

// DriverName returns the name of this driver.
func (*acpiDriver) DriverName() string {
	return "ACPI"
}

// DriverVersion returns the version of this driver.
func (*acpiDriver) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

func (drv *acpiDriver) printTableInfo(w io.Writer) {
	for name, header := range drv.tableMap {
		kfmt.Fprintf(w, "%s %6x (%6s %8s)\n",
			name,
			header.Length,
			string(header.OEMID[:]),
			string(header.OEMTableID[:]),
		)
	}
}

// enumerateTables looks up the DSDT, the FADT ("FACP") and each SSDTn (up to
// the first missing one) by name through the resolver, so DriverInit can
// report what it found; the actual AML parsing path only needs
// resolver.LookupTable("DSDT") / "SSDTn", which aml.VM.Init calls directly.
func (drv *acpiDriver) enumerateTables(w io.Writer) *kernel.Error {
	drv.tableMap = make(map[string]*table.SDTHeader)

	if hdr := drv.resolver.LookupTable("DSDT"); hdr != nil {
		drv.tableMap["DSDT"] = hdr
	}

	if hdr := drv.resolver.LookupTable(fadtSignature); hdr != nil {
		drv.tableMap[fadtSignature] = hdr
	}

	for i := 1; ; i++ {
		name := "SSDT"
		if i > 1 {
			name = "SSDT" + string(rune('0'+i))
		}
		hdr := drv.resolver.LookupTable(name)
		if hdr == nil {
			break
		}
		drv.tableMap[name] = hdr
	}

	return nil
}

// validTable calculates the checksum over all of data (one whole ACPI
// table) and returns true if it is valid: all bytes of a well-formed table
// sum to zero mod 256.
func validTable(data []byte) bool {
	var sum uint8
	for _, b := range data {
		sum += b
	}
	return sum == 0
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderBeforeACPI,
		Probe: probeForACPI,
	})
}

// probeForACPI is invoked by the device subsystem's driver detection pass.
// It never succeeds on its own: a hosted kernel build has no notion of
// "the" ACPI tables without something handing it a table.Resolver first, so
// boot code is expected to call device.RegisterDriver with a pre-built
// *acpiDriver (see NewDriver) instead of relying on auto-probing. This stub
// is kept so the driver list shape matches the rest of the device package.
func probeForACPI() device.Driver {
	return nil
}
