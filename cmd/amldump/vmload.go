package main

import (
	"fmt"
	"os"

	"acpivm/device/acpi"
	"acpivm/device/acpi/aml"
	"acpivm/device/acpi/region"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// commonFlags are shared by every subcommand that needs to boot a VM from
// table files on disk.
type commonFlags struct {
	dsdt    string
	ssdts   []string
	strict  bool
	region  int
	logJSON bool
}

func addCommonFlags(fs *pflag.FlagSet, f *commonFlags) {
	fs.StringVar(&f.dsdt, "dsdt", "", "path to the raw DSDT table bytes (header included)")
	fs.StringSliceVar(&f.ssdts, "ssdt", nil, "path to a raw SSDT table's bytes; may be repeated")
	fs.BoolVar(&f.strict, "strict", false, "fail if any forward reference is left unresolved after loading")
	fs.IntVar(&f.region, "region-size", 4096, "size in bytes of the in-memory SystemMemory region backing OperationRegion access")
	fs.BoolVar(&f.logJSON, "log-json", false, "emit region/driver logs as JSON instead of text")
}

func newLogger(jsonFormat bool) *logrus.Logger {
	log := logrus.New()
	if jsonFormat {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

// resolverFromFlags reads the DSDT/SSDT files named by f into a fresh
// StaticResolver.
func resolverFromFlags(f *commonFlags) (*acpi.StaticResolver, error) {
	if f.dsdt == "" {
		return nil, fmt.Errorf("amldump: --dsdt is required")
	}

	resolver := acpi.NewStaticResolver()
	if err := loadTableFile(resolver, "DSDT", f.dsdt); err != nil {
		return nil, err
	}
	for i, path := range f.ssdts {
		name := "SSDT"
		if i > 0 {
			name = "SSDT" + string(rune('0'+i+1))
		}
		if err := loadTableFile(resolver, name, path); err != nil {
			return nil, err
		}
	}
	return resolver, nil
}

// buildVM reads the DSDT/SSDT files named by f into a StaticResolver, boots
// an aml.VM against it, and wires a SystemMemory backend so Field access in
// the loaded tables has somewhere to read/write.
func buildVM(f *commonFlags, log *logrus.Logger) (*aml.VM, error) {
	resolver, err := resolverFromFlags(f)
	if err != nil {
		return nil, err
	}

	vm := aml.NewVM(resolver)
	vm.SetErrWriter(os.Stderr)
	vm.SetRegionBackend(region.NewLogBackend(region.NewMemoryBackend(f.region), log))

	if err := vm.Init(); err != nil {
		return nil, fmt.Errorf("amldump: %s", err.Error())
	}
	if f.strict && vm.UnresolvedCount() > 0 {
		return nil, fmt.Errorf("amldump: %d unresolved forward reference(s) after loading", vm.UnresolvedCount())
	}
	return vm, nil
}

func loadTableFile(resolver *acpi.StaticResolver, name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("amldump: reading %s: %w", name, err)
	}
	resolver.AddTable(name, data)
	return nil
}
