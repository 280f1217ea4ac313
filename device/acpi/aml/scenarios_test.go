package aml

import "testing"

// Byte-encoding helpers for hand-built AML fixtures. Mirrors the style of
// alu_test.go's newTestParser: small, direct, no fixture framework.

func opBytes(op Opcode) []byte {
	if op&extOpBase != 0 {
		return []byte{extOpPrefixByte, byte(op & 0xff)}
	}
	return []byte{byte(op)}
}

func seg(s string) []byte {
	n := NewName(s)
	return append([]byte{}, n[:]...)
}

func byteConst(v byte) []byte {
	return []byte{byte(opBytePrefix), v}
}

func wordConst(v uint16) []byte {
	return []byte{byte(opWordPrefix), byte(v), byte(v >> 8)}
}

// pkg wraps body in a single-byte PkgLength (valid for body shorter than 63
// bytes, ample for these fixtures) and prefixes the opcode bytes.
func pkg(op Opcode, body []byte) []byte {
	total := 1 + len(body)
	if total > 63 {
		panic("scenarios_test: body too large for single-byte PkgLength")
	}
	out := append([]byte{}, opBytes(op)...)
	out = append(out, byte(total))
	out = append(out, body...)
	return out
}

func newScenarioParser(data []byte) *parser {
	vm := NewVM(nil)
	return &parser{vm: vm, s: newStream(data, 0), ctx: newExecContext(vm, nil)}
}

func TestScopeDeclaresNameUnderRoot(t *testing.T) {
	body := append([]byte{'\\'}, append(opBytes(opName), append(seg("X"), byteConst(0x42)...)...)...)
	data := pkg(opScope, body)

	p := newScenarioParser(data)
	if aerr := p.parseTermList(p.vm.ns.Root(), uint32(len(data))); aerr != nil {
		t.Fatalf("parse failed: %v", aerr)
	}

	obj, aerr := p.vm.Lookup("\\X")
	if aerr != nil {
		t.Fatalf("lookup \\X: %v", aerr)
	}
	if obj.Kind != KindInteger || obj.payload.(uint64) != 0x42 {
		t.Fatalf("expected Integer 0x42, got %v %v", obj.Kind, obj.payload)
	}
}

func TestMethodInvocationComputesReturnValue(t *testing.T) {
	add := append(opBytes(opAdd), opBytes(opArg0)...)
	add = append(add, byteConst(1)...)
	add = append(add, 0x00) // no target
	ret := append(opBytes(opReturn), add...)

	body := append(seg("M"), 0x01) // ArgCount=1
	body = append(body, ret...)
	data := pkg(opMethod, body)

	p := newScenarioParser(data)
	if aerr := p.parseTermList(p.vm.ns.Root(), uint32(len(data))); aerr != nil {
		t.Fatalf("parse failed: %v", aerr)
	}

	res, aerr := p.vm.Invoke("\\M", p.vm.NewInteger(5))
	if aerr != nil {
		t.Fatalf("invoke failed: %v", aerr)
	}
	if res.Kind != KindInteger || res.payload.(uint64) != 6 {
		t.Fatalf("expected Integer 6, got %v %v", res.Kind, res.payload)
	}
}

func TestMethodImplicitReturnUsesLastExpressionValue(t *testing.T) {
	store := append(opBytes(opStore), byteConst(7)...)
	store = append(store, opBytes(opLocal0)...)
	bareLocal0 := opBytes(opLocal0)

	body := append(seg("M"), 0x00) // ArgCount=0
	body = append(body, store...)
	body = append(body, bareLocal0...)
	data := pkg(opMethod, body)

	p := newScenarioParser(data)
	if aerr := p.parseTermList(p.vm.ns.Root(), uint32(len(data))); aerr != nil {
		t.Fatalf("parse failed: %v", aerr)
	}

	res, aerr := p.vm.Invoke("\\M")
	if aerr != nil {
		t.Fatalf("invoke failed: %v", aerr)
	}
	if res.Kind != KindInteger || res.payload.(uint64) != 7 {
		t.Fatalf("expected implicit return Integer 7, got %v %v", res.Kind, res.payload)
	}
}

// fakeRegion is a minimal RegionBackend recording every write it receives and
// answering every read with a fixed value, enough to distinguish "the bank
// register got written" from "the field itself got read" without needing the
// real acpi/region package (importing it here would cycle back into this one).
type fakeRegion struct {
	readValue uint64
	writes    []uint64
}

func (f *fakeRegion) Read(space RegionSpace, offset uint64, width int) (uint64, error) {
	return f.readValue, nil
}

func (f *fakeRegion) Write(space RegionSpace, offset uint64, width int, value uint64) error {
	f.writes = append(f.writes, value)
	return nil
}

func TestFieldReadDispatchesThroughRegionBackend(t *testing.T) {
	opRegion := append(opBytes(opOpRegion), seg("R")...)
	opRegion = append(opRegion, 0x00)                // SystemMemory
	opRegion = append(opRegion, byte(opZero))        // Offset = 0
	opRegion = append(opRegion, wordConst(0x100)...) // Length = 0x100

	fieldBody := append(seg("R"), 0x01) // ByteAcc, NoLock, Preserve
	fieldBody = append(fieldBody, seg("F")...)
	fieldBody = append(fieldBody, 0x08) // 8 bits
	field := pkg(opField, fieldBody)

	methodBody := append(seg("G"), 0x00)
	methodBody = append(methodBody, opBytes(opReturn)...)
	methodBody = append(methodBody, seg("F")...)
	method := pkg(opMethod, methodBody)

	data := append(append(append([]byte{}, opRegion...), field...), method...)

	p := newScenarioParser(data)
	backend := &fakeRegion{readValue: 0x5a}
	p.vm.SetRegionBackend(backend)

	if aerr := p.parseTermList(p.vm.ns.Root(), uint32(len(data))); aerr != nil {
		t.Fatalf("parse failed: %v", aerr)
	}

	res, aerr := p.vm.Invoke("\\G")
	if aerr != nil {
		t.Fatalf("invoke failed: %v", aerr)
	}
	if res.Kind != KindInteger || res.payload.(uint64) != 0x5a {
		t.Fatalf("expected Integer 0x5a from backend, got %v %v", res.Kind, res.payload)
	}
}

func TestBankFieldSelectsBankBeforeAccess(t *testing.T) {
	opRegion := append(opBytes(opOpRegion), seg("R")...)
	opRegion = append(opRegion, 0x00)
	opRegion = append(opRegion, byte(opZero))
	opRegion = append(opRegion, wordConst(0x100)...)

	bankRegBody := append(seg("R"), 0x01)
	bankRegBody = append(bankRegBody, seg("BANK")...)
	bankRegBody = append(bankRegBody, 0x08)
	bankReg := pkg(opField, bankRegBody)

	bankFieldBody := append(seg("R"), seg("BANK")...)
	bankFieldBody = append(bankFieldBody, byteConst(1)...)
	bankFieldBody = append(bankFieldBody, 0x01) // ByteAcc, NoLock, Preserve
	bankFieldBody = append(bankFieldBody, seg("F")...)
	bankFieldBody = append(bankFieldBody, 0x08)
	bankField := pkg(opBankField, bankFieldBody)

	methodBody := append(seg("G2"), 0x00)
	methodBody = append(methodBody, opBytes(opReturn)...)
	methodBody = append(methodBody, seg("F")...)
	method := pkg(opMethod, methodBody)

	data := append(append(append(append([]byte{}, opRegion...), bankReg...), bankField...), method...)

	p := newScenarioParser(data)
	backend := &fakeRegion{readValue: 0x77}
	p.vm.SetRegionBackend(backend)

	if aerr := p.parseTermList(p.vm.ns.Root(), uint32(len(data))); aerr != nil {
		t.Fatalf("parse failed: %v", aerr)
	}

	res, aerr := p.vm.Invoke("\\G2")
	if aerr != nil {
		t.Fatalf("invoke failed: %v", aerr)
	}
	if res.Kind != KindInteger || res.payload.(uint64) != 0x77 {
		t.Fatalf("expected Integer 0x77, got %v %v", res.Kind, res.payload)
	}
	if len(backend.writes) != 1 || backend.writes[0] != 1 {
		t.Fatalf("expected a single bank-select write of 1, got %v", backend.writes)
	}
}

func TestNameForwardReferenceResolvesAfterPatchUp(t *testing.T) {
	nameA := append(opBytes(opName), seg("A")...)
	nameA = append(nameA, '\\')
	nameA = append(nameA, seg("B")...)

	nameB := append(opBytes(opName), seg("B")...)
	nameB = append(nameB, byteConst(0x99)...)

	data := append(append([]byte{}, nameA...), nameB...)

	p := newScenarioParser(data)
	if aerr := p.parseTermList(p.vm.ns.Root(), uint32(len(data))); aerr != nil {
		t.Fatalf("parse failed: %v", aerr)
	}

	unresolved, aerr := p.vm.Lookup("\\A")
	if aerr != nil {
		t.Fatalf("lookup \\A: %v", aerr)
	}
	if unresolved.Kind != KindUnresolved {
		t.Fatalf("expected \\A to still be Unresolved before patch-up, got %v", unresolved.Kind)
	}

	p.vm.patchUp.ResolveAll(p.vm.ns)

	resolved, aerr := p.vm.Lookup("\\A")
	if aerr != nil {
		t.Fatalf("lookup \\A after patch-up: %v", aerr)
	}
	if resolved.Kind != KindInteger || resolved.payload.(uint64) != 0x99 {
		t.Fatalf("expected \\A to resolve to Integer 0x99, got %v %v", resolved.Kind, resolved.payload)
	}
}

func TestDeviceReopenedBySecondTableKeepsFirstTableChildren(t *testing.T) {
	nameX := append(opBytes(opName), seg("X")...)
	nameX = append(nameX, byteConst(1)...)
	device1 := pkg(opDevice, append(seg("D"), nameX...))

	nameY := append(opBytes(opName), seg("Y")...)
	nameY = append(nameY, byteConst(2)...)
	device2 := pkg(opDevice, append(seg("D"), nameY...))

	data := append(append([]byte{}, device1...), device2...)

	p := newScenarioParser(data)
	if aerr := p.parseTermList(p.vm.ns.Root(), uint32(len(data))); aerr != nil {
		t.Fatalf("parse failed: %v", aerr)
	}

	x, aerr := p.vm.Lookup("\\D.X")
	if aerr != nil {
		t.Fatalf("lookup \\D.X: %v (Device reopened by a second declaration orphaned its first child)", aerr)
	}
	if x.Kind != KindInteger || x.payload.(uint64) != 1 {
		t.Fatalf("expected \\D.X to be Integer 1, got %v %v", x.Kind, x.payload)
	}

	y, aerr := p.vm.Lookup("\\D.Y")
	if aerr != nil {
		t.Fatalf("lookup \\D.Y: %v", aerr)
	}
	if y.Kind != KindInteger || y.payload.(uint64) != 2 {
		t.Fatalf("expected \\D.Y to be Integer 2, got %v %v", y.Kind, y.payload)
	}
}

func TestMutexAcquireOrderViolation(t *testing.T) {
	mutexM1 := append(opBytes(opMutex), seg("M1")...)
	mutexM1 = append(mutexM1, 0x05)
	mutexM2 := append(opBytes(opMutex), seg("M2")...)
	mutexM2 = append(mutexM2, 0x03)

	acquireM1 := append(opBytes(opAcquire), seg("M1")...)
	acquireM1 = append(acquireM1, 0xff, 0xff) // Timeout is raw WordData
	acquireM2 := append(opBytes(opAcquire), seg("M2")...)
	acquireM2 = append(acquireM2, 0xff, 0xff)
	releaseM2 := append(opBytes(opRelease), seg("M2")...)
	releaseM1 := append(opBytes(opRelease), seg("M1")...)

	methodBody := append(seg("T"), 0x00)
	methodBody = append(methodBody, acquireM1...)
	methodBody = append(methodBody, acquireM2...)
	methodBody = append(methodBody, releaseM2...)
	methodBody = append(methodBody, releaseM1...)
	method := pkg(opMethod, methodBody)

	data := append(append(append([]byte{}, mutexM1...), mutexM2...), method...)

	p := newScenarioParser(data)
	if aerr := p.parseTermList(p.vm.ns.Root(), uint32(len(data))); aerr != nil {
		t.Fatalf("parse failed: %v", aerr)
	}

	_, aerr := p.vm.Invoke("\\T")
	if aerr == nil {
		t.Fatal("expected acquiring a lower-SyncLevel mutex while holding a higher one to fail")
	}
	if aerr.Exception != ExcMutexOrder {
		t.Fatalf("expected ExcMutexOrder, got %v", aerr.Exception)
	}
}

func TestStoreOfPackageIntoPackageDestination(t *testing.T) {
	vm := NewVM(nil)
	ctx := newExecContext(vm, nil)
	src := vm.newPackage([]*Object{vm.newInteger(1), vm.newInteger(2)})
	dst := vm.newPackage([]*Object{vm.newInteger(0)})

	if aerr := vm.store(ctx, dst, src); aerr != nil {
		t.Fatalf("Store of Package into Package destination failed: %v", aerr)
	}
	dstData, ok := dst.payload.(*PackageData)
	if !ok || len(dstData.Elements) != 2 {
		t.Fatalf("expected destination to now hold src's 2 elements, got %#v", dst.payload)
	}
}

func TestIndexPastEndReturnsInvalidIndex(t *testing.T) {
	// Package(){1}
	packageBytes := pkg(opPackage, []byte{0x01, byte(opBytePrefix), 0x01})
	nameP := append(opBytes(opName), seg("P")...)
	nameP = append(nameP, packageBytes...)

	indexStmt := append(opBytes(opIndex), seg("P")...)
	indexStmt = append(indexStmt, byteConst(5)...)
	indexStmt = append(indexStmt, 0x00) // no target

	data := append(append([]byte{}, nameP...), indexStmt...)

	p := newScenarioParser(data)
	aerr := p.parseTermList(p.vm.ns.Root(), uint32(len(data)))
	if aerr == nil {
		t.Fatal("expected an out-of-range Package Index to fail")
	}
	if aerr.Exception != ExcInvalidIndex {
		t.Fatalf("expected ExcInvalidIndex, got %v", aerr.Exception)
	}
}
