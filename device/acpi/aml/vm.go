package aml

import (
	"acpivm/device/acpi/table"
	"acpivm/kernel"
	"acpivm/kernel/kfmt"
	"acpivm/kernel/sync"
)

var errParsingAML = &kernel.Error{Module: "aml", Message: "failed to parse AML bytecode"}

// VM is the top-level AML interpreter: it owns the namespace, the pending
// forward-reference backlog, and the per-VM settings (integer width,
// supported _OSI strings) that evaluation depends on. A process embedding
// this package typically creates exactly one VM and feeds it the DSDT
// followed by each SSDT in turn via LoadTable.
type VM struct {
	errWriter interface {
		Write(p []byte) (int, error)
	}

	resolver table.Resolver
	ns       *Namespace

	// nsLock serializes namespace mutation (LoadTable) against concurrent
	// evaluation: a busy-wait Spinlock rather than a blocking mutex, since
	// this code must also run in the freestanding build where
	// goroutines/channels are unavailable.
	nsLock sync.Spinlock

	sizeOfIntInBits int

	patchUp *patchUpList

	osCapabilities map[string]bool

	// regionBackend services every OperationRegion declared by a table
	// loaded after it is set; nil leaves Field reads/writes against those
	// regions erroring out, matching real firmware's behavior for an
	// address space nothing claims.
	regionBackend RegionBackend

	traceHook func(ev TraceEvent)

	nextObjSeq uint64
}

// TraceEvent is delivered to a VM's trace hook (SetTraceHook) on every
// method invocation and every raised Exception; the amldump CLI's `trace`
// subcommand is the primary consumer.
type TraceEvent struct {
	Kind   string // "call", "return", "exception"
	Method string
	Detail string
}

// NewVM creates a VM backed by resolver, which supplies DSDT/SSDT table
// bytes on demand.
func NewVM(resolver table.Resolver) *VM {
	vm := &VM{
		resolver:        resolver,
		ns:              NewNamespace(),
		sizeOfIntInBits: 64,
		patchUp:         newPatchUpList(),
		osCapabilities:  map[string]bool{"Windows 2015": true, "Linux": true, "Darwin": true},
	}
	registerPredefinedMethods(vm)
	return vm
}

// SetErrWriter directs diagnostic output (e.g. unhandled parse warnings) to
// w. Without one, that output goes to kfmt's early-print ring buffer, which
// is where kfmt.Fprintf sends output for a nil writer.
func (vm *VM) SetErrWriter(w interface{ Write(p []byte) (int, error) }) {
	vm.errWriter = w
}

// SetRegionBackend installs backend to service every OperationRegion parsed
// by a subsequent LoadTable/Init call. Must be called before loading any
// table whose Fields should actually be readable/writable.
func (vm *VM) SetRegionBackend(backend RegionBackend) {
	vm.regionBackend = backend
}

// SetTraceHook installs fn to receive a TraceEvent for every method call,
// return, and raised exception. Passing nil disables tracing.
func (vm *VM) SetTraceHook(fn func(ev TraceEvent)) {
	vm.traceHook = fn
}

// SetOSCapabilities replaces the set of strings the \_OSI native method
// recognizes. Overwriting rather than appending lets a host emulate a
// specific OS exactly.
func (vm *VM) SetOSCapabilities(names ...string) {
	vm.osCapabilities = make(map[string]bool, len(names))
	for _, n := range names {
		vm.osCapabilities[n] = true
	}
}

func (vm *VM) trace(ev TraceEvent) {
	if vm.traceHook != nil {
		vm.traceHook(ev)
	}
}

// Namespace exposes the underlying Namespace for read-only inspection (the
// amldump CLI walks it to implement `dump`).
func (vm *VM) Namespace() *Namespace { return vm.ns }

// UnresolvedCount reports how many forward references are still pending
// across every table loaded so far.
func (vm *VM) UnresolvedCount() int { return vm.patchUp.UnresolvedCount() }

// Lookup resolves an absolute or relative path string against the
// namespace root, mainly a convenience for tests and the CLI.
func (vm *VM) Lookup(path string) (*Object, *Error) {
	s := newStream([]byte(path+"\x00"), 0)
	ns, aerr := decodeNameString(s)
	if aerr != nil {
		return nil, newError(ExcBadName, path)
	}
	return vm.ns.Find(vm.ns.root, ns)
}

// Invoke looks up path in the namespace and invokes it as a Method with the
// given arguments, using a fresh execContext (its own mutex stack) as if the
// call came from outside any running method -- the entry point a host driver
// or the amldump CLI uses to run a control method directly.
func (vm *VM) Invoke(path string, args ...*Object) (*Object, *Error) {
	target, aerr := vm.Lookup(path)
	if aerr != nil {
		return nil, aerr
	}
	vm.nsLock.Acquire()
	defer vm.nsLock.Release()
	ctx := newExecContext(vm, args)
	return vm.invokeMethod(ctx, target, args)
}

// Init loads the DSDT (via resolver.LookupTable("DSDT")) and every SSDTn
// table present, in order, committing each load's namespace overlay only
// if the whole table parses successfully.
func (vm *VM) Init() *kernel.Error {
	dsdt := vm.resolver.LookupTable("DSDT")
	if dsdt == nil {
		return errParsingAML
	}
	if err := vm.LoadTable(dsdt); err != nil {
		kfmt.Fprintf(vm.sink(), "aml: failed to load DSDT: %s\n", err.Error())
		return errParsingAML
	}

	for i := 1; ; i++ {
		name := "SSDT"
		if i > 1 {
			name = "SSDT" + itoa(i)
		}
		hdr := vm.resolver.LookupTable(name)
		if hdr == nil {
			break
		}
		if err := vm.LoadTable(hdr); err != nil {
			kfmt.Fprintf(vm.sink(), "aml: failed to load %s: %s\n", name, err.Error())
			continue
		}
	}

	vm.patchUp.ResolveAll(vm.ns)
	return nil
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := v < 0
	if neg {
		v = -v
	}
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func (vm *VM) sink() interface{ Write(p []byte) (int, error) } {
	return vm.errWriter
}

// LoadTable parses the body of a single DSDT/SSDT table, pushing a
// namespace overlay for the duration so a mid-parse failure can be rolled
// back cleanly.
func (vm *VM) LoadTable(hdr *table.SDTHeader) *Error {
	vm.nsLock.Acquire()
	defer vm.nsLock.Release()

	if hdr.Revision < 2 {
		vm.sizeOfIntInBits = 32
	} else {
		vm.sizeOfIntInBits = 64
	}

	data := tableBody(hdr)
	overlayID := vm.ns.PushOverlay()

	p := newParser(vm, data)
	if aerr := p.parseTermList(vm.ns.root, uint32(len(data))); aerr != nil {
		vm.ns.DeinitOverlay(overlayID)
		return aerr
	}

	vm.ns.CommitOverlay(overlayID)
	vm.patchUp.ResolveAll(vm.ns)
	return nil
}

// tableBody returns the AML byte payload following an SDTHeader. Real
// table bytes live contiguously after the header in the buffer the
// resolver handed back; since this module is hosted rather than walking
// raw physical memory, the resolver is expected to have already copied the
// whole table, header included, into one []byte, with the header pointer
// aliasing its start.
func tableBody(hdr *table.SDTHeader) []byte {
	return tableBytesOf(hdr)[sdtHeaderSize:]
}

const sdtHeaderSize = 36

// NewInteger builds an Integer Object suitable for passing as a Method
// argument to Invoke; exported so a host embedding this package (or the
// amldump CLI) doesn't need package-internal access to build call arguments.
func (vm *VM) NewInteger(v uint64) *Object { return vm.newInteger(v) }

// NewString builds a String Object suitable for passing as a Method
// argument to Invoke.
func (vm *VM) NewString(s string) *Object { return vm.newString(s) }

// --- Object constructors ---
//
// These centralize Kind + payload wiring so parser.go and eval.go never
// build an Object by hand.

func (vm *VM) newInteger(v uint64) *Object {
	o := newObject(KindInteger)
	o.payload = v & maskForWidth(vm.sizeOfIntInBits)
	return o
}

func (vm *VM) newString(s string) *Object {
	o := newObject(KindString)
	o.payload = s
	return o
}

func (vm *VM) newBuffer(data []byte) *Object {
	o := newObject(KindBuffer)
	o.payload = &Buffer{Data: data}
	return o
}

func (vm *VM) newPackage(elems []*Object) *Object {
	o := newObject(KindPackage)
	o.payload = &PackageData{Elements: elems}
	return o
}

func (vm *VM) newObjectReference(target *Object) *Object {
	o := newObject(KindObjectReference)
	o.payload = &ObjectReferenceData{Target: target}
	return o
}
