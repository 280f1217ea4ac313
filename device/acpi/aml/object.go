package aml

// Kind tags the variant an Object holds. Each variant is modeled as its own
// small record type and Object pattern-matches on Kind to reach the right
// one; common bookkeeping (refcount, name, parent/children, overlay
// linkage) lives once in Object's own fields instead of being duplicated
// per variant.
type Kind uint8

// The object variants defined by ACPI's type system, plus a handful of
// internal-only kinds used while building and resolving the namespace.
const (
	KindUninitialized Kind = iota
	KindBuffer
	KindBufferField
	KindDevice
	KindEvent
	KindFieldUnit
	KindInteger
	KindMethod
	KindMutex
	KindObjectReference
	KindOperationRegion
	KindPackage
	KindPowerResource
	KindProcessor
	KindString
	KindThermalZone

	// Internal-only kinds: never observed by predefined-object callers as
	// a "real" object type, but needed to represent namespace structure
	// and in-flight evaluator state.
	KindAlias
	KindUnresolved
	KindPredefinedScope
	KindArg
	KindLocal
	KindDebug
)

var kindNames = [...]string{
	"Uninitialized", "Buffer", "BufferField", "Device", "Event", "FieldUnit",
	"Integer", "Method", "Mutex", "ObjectReference", "OperationRegion",
	"Package", "PowerResource", "Processor", "String", "ThermalZone",
	"Alias", "Unresolved", "PredefinedScope", "Arg", "Local", "Debug",
}

// String implements fmt.Stringer for Kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// ObjectFlags records bits describing the circumstances of an object's
// creation, consulted by the evaluator's implicit-return and named-object
// write-back rules.
type ObjectFlags uint8

const (
	// FlagNamed marks an object that was entered into the namespace
	// under a fixed name, as opposed to an anonymous intermediate value
	// produced mid-expression.
	FlagNamed ObjectFlags = 1 << iota

	// FlagSerialized marks a Method object declared Serialized, which
	// causes invocation to acquire the method's private mutex.
	FlagSerialized

	// FlagExceptionOnUse marks the default Integer(0) produced by a Method
	// falling off its body without a Return and without any bare
	// expression statement. Nothing in this package checks the flag:
	// reading such a value yields zero and raises no exception.
	FlagExceptionOnUse
)

// Object is the single concrete representation for every value that can
// live in the AML namespace or pass through the evaluator: a tagged union
// over the variant record types below, plus the bookkeeping every variant
// shares.
type Object struct {
	id   uint64
	Kind Kind

	// payload holds one of: *Buffer, *BufferFieldData, *EventData,
	// *FieldUnitData, Integer (uint64, stored boxed), *MethodData,
	// *MutexData, *ObjectReferenceData, *OperationRegionData, *PackageData,
	// *PowerResourceData, *Processor, string, *ThermalZoneData,
	// *AliasData, *UnresolvedData, nil (Device/PredefinedScope carry no
	// payload), int (Arg/Local index).
	payload interface{}

	refCount int32
	flags    ObjectFlags

	name   Name
	parent *Object

	// children is nil for non-scope variants (Integer, String, ...).
	// Keyed by Name so lookups among direct children are O(1); the
	// Namespace overlay map additionally provides O(1) lookup keyed by
	// (parent, name) across the whole namespace.
	children map[Name]*Object

	// overlay is the namespace overlay that owns this object, used when
	// rolling an overlay back (Namespace.DeinitOverlay) to detach every object
	// the overlay introduced.
	overlay *overlayID
}

// overlayID identifies one pushed namespace overlay (see namespace.go).
type overlayID struct {
	seq int
}

// newObject allocates a zero-value Object of the given kind. Objects are
// heap-allocated and reference counted rather than pooled, since this
// module runs hosted under the Go GC rather than in a freestanding kernel.
func newObject(kind Kind) *Object {
	return &Object{Kind: kind, refCount: 1}
}

// IncRef bumps the reference count, returning the object for chaining.
func (o *Object) IncRef() *Object {
	o.refCount++
	return o
}

// DecRef drops the reference count and reports whether it reached zero.
func (o *Object) DecRef() bool {
	o.refCount--
	return o.refCount <= 0
}

// RefCount returns the current reference count, mainly for tests and
// diagnostics.
func (o *Object) RefCount() int32 { return o.refCount }

// Name returns the object's namespace name (zero value for anonymous
// intermediates).
func (o *Object) Name() Name { return o.name }

// Parent returns the object's parent in the namespace tree, or nil at the
// root.
func (o *Object) Parent() *Object { return o.parent }

// Child looks up an immediate child by name.
func (o *Object) Child(n Name) (*Object, bool) {
	c, ok := o.children[n]
	return c, ok
}

// Children returns a snapshot slice of the object's direct children. The
// order is unspecified; callers needing declaration order should track it
// separately (the parser does, via Method/Device body byte ranges).
func (o *Object) Children() []*Object {
	out := make([]*Object, 0, len(o.children))
	for _, c := range o.children {
		out = append(out, c)
	}
	return out
}

// addChild links c as a named child of o, keyed by c.name.
func (o *Object) addChild(c *Object) {
	if o.children == nil {
		o.children = make(map[Name]*Object)
	}
	c.parent = o
	o.children[c.name] = c
}

// removeChild unlinks the child named n, if present.
func (o *Object) removeChild(n Name) {
	delete(o.children, n)
}

// IsDataObject reports whether the Kind is one of the "computational data"
// variants that implicit conversion and Store operate over.
func (o *Object) IsDataObject() bool {
	switch o.Kind {
	case KindInteger, KindString, KindBuffer, KindPackage:
		return true
	default:
		return false
	}
}

// --- Variant payload records ---
//
// Each of these is a small struct holding only the fields unique to that
// variant; the shared bookkeeping (name, parent, children, refcount) lives
// on Object itself per the header/payload split described above.

// Buffer backs the AML Buffer type: a fixed-size byte array.
type Buffer struct {
	Data []byte
}

// BufferFieldData backs CreateXxxField-declared BufferField objects: a
// bit-addressed view into a Buffer.
type BufferFieldData struct {
	Source    *Object // the Buffer (or Index result) being viewed
	BitOffset uint32
	BitWidth  uint32
}

// EventData backs the AML Event synchronization object.
type EventData struct {
	signalCount uint64
}

// FieldUnitData backs Field/IndexField/BankField-declared FieldUnit
// objects: a named view into an OperationRegion (or index/data register
// pair), with the access parameters recorded by DefField.
type FieldUnitData struct {
	Region       *Object // KindOperationRegion, or nil for IndexField's index/data pair
	IndexReg     *Object
	DataReg      *Object
	BankReg      *Object // DefBankField's bank-select FieldUnit, nil outside a BankField
	BankValue    uint64  // constant written to BankReg before each access
	BitOffset    uint32
	BitWidth     uint32
	AccessType   FieldAccessType
	LockRule     bool
	UpdateRule   FieldUpdateRule
	ConnectionID *Object
}

// FieldAccessType enumerates the AccessType encoded in a FieldFlags byte.
type FieldAccessType uint8

const (
	AccessAny FieldAccessType = iota
	AccessByte
	AccessWord
	AccessDWord
	AccessQWord
	AccessBuffer
)

// FieldUpdateRule enumerates the UpdateRule encoded in a FieldFlags byte.
type FieldUpdateRule uint8

const (
	UpdatePreserve FieldUpdateRule = iota
	UpdateWriteAsOnes
	UpdateWriteAsZeros
)

// MethodData backs Method objects: the recorded byte range of the method
// body (re-walked by the evaluator on each invocation rather than compiled
// to an intermediate form), its declared argument count, and its
// concurrency parameters.
type MethodData struct {
	ArgCount   int
	Serialized bool
	SyncLevel  uint8

	// AMLOffset/AMLLength locate the method's TermList within TableData,
	// the owning table's raw byte slice (shared across every method parsed
	// from that table rather than copied per-method).
	AMLOffset uint32
	AMLLength uint32
	TableData []byte

	// Native, when non-nil, overrides AML evaluation entirely; used for
	// host-implemented predefined methods such as \_OSI.
	Native func(vm *VM, args []*Object) (*Object, *Error)

	// syncObj is a synthetic KindMutex object guarding invocation when
	// Serialized is set, pushed/popped on the caller's mutexStack exactly
	// like an AML-declared Mutex would be.
	syncObj *Object
}

// MutexData backs Mutex objects and their entry in an execution context's
// mutex stack.
type MutexData struct {
	SyncLevel uint8
	state     mutexState
}

// mutexState tracks the (possibly recursive under re-entry) acquisition
// state of a single mutex. Held separately from MutexData so both Mutex
// objects and a Serialized Method's mutex (MethodData.syncObj, built once
// at parse time) can share the acquire/release logic in mutex.go.
type mutexState struct {
	held       bool
	holderTag  uint64 // an opaque execution-context identifier
	acquireCnt int
}

// ObjectReferenceData backs RefOf/Index results and Arg-passing semantics:
// a reference to another Object, optionally additionally indexed (Index on
// a Package/Buffer/String yields a reference to an element, not the
// container itself).
type ObjectReferenceData struct {
	Target *Object
}

// RegionSpace enumerates the OperationRegion address space IDs defined by
// ACPI §6.5.1.
type RegionSpace uint8

const (
	RegionSystemMemory RegionSpace = iota
	RegionSystemIO
	RegionPCIConfig
	RegionEmbeddedControl
	RegionSMBus
	RegionSystemCMOS
	RegionPCIBARTarget
	RegionIPMI
	RegionGeneralPurposeIO
	RegionGenericSerialBus
)

// OperationRegionData backs OperationRegion objects: the declared address
// space, base, and length, plus the backend that actually services reads
// and writes (see acpi/region).
type OperationRegionData struct {
	Space   RegionSpace
	Offset  uint64
	Length  uint64
	Backend RegionBackend
}

// RegionBackend is the external collaborator that actually performs
// region reads and writes. Concrete implementations live in the acpi/region
// package so this package stays free of any notion of real memory-mapped
// I/O or port I/O.
type RegionBackend interface {
	Read(space RegionSpace, offset uint64, width int) (uint64, error)
	Write(space RegionSpace, offset uint64, width int, value uint64) error
}

// PackageData backs Package/VarPackage objects: a fixed or variable-length
// array of Objects.
type PackageData struct {
	Elements []*Object
}

// PowerResourceData backs PowerResource objects.
type PowerResourceData struct {
	SystemLevel uint8
	ResourceOrder uint16
}

// Processor backs (deprecated, but still ASL-legal) Processor objects.
type Processor struct {
	ProcID   uint8
	PblkAddr uint32
	PblkLen  uint8
}

// ThermalZoneData backs ThermalZone objects; ThermalZone carries no extra
// fixed-arg data beyond its child namespace, but gets its own record for
// symmetry and future extension.
type ThermalZoneData struct{}

// AliasData backs the internal Alias kind: a transparent redirect to
// another named object, created by DefAlias. Alias objects are flattened
// away during namespace lookups (see namespace.go's resolution of aliases)
// rather than being visible to evaluator code as a distinct Kind.
type AliasData struct {
	Target *Object
}

// UnresolvedData backs a forward reference recorded by the parser for a
// NameString that could not be resolved at parse time; patchup.go retries
// these after every table load.
type UnresolvedData struct {
	Target   NameString
	Resolved *Object
}
