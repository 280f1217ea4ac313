package aml

import "testing"

// newTestParser builds a parser directly over data, bypassing LoadTable,
// for exercising evaluator methods in isolation.
func newTestParser(data []byte) *parser {
	vm := NewVM(nil)
	return &parser{vm: vm, s: newStream(data, 0), ctx: newExecContext(vm, nil)}
}

func TestEvalBinaryALU(t *testing.T) {
	specs := []struct {
		op   byte
		lhs  byte
		rhs  byte
		want uint64
	}{
		{byte(opAdd), 2, 3, 5},
		{byte(opSubtract), 5, 3, 2},
		{byte(opMultiply), 4, 5, 20},
		{byte(opAnd), 0x0f, 0x03, 0x03},
		{byte(opOr), 0x0f, 0xf0, 0xff},
		{byte(opXor), 0xff, 0x0f, 0xf0},
	}

	for specIndex, spec := range specs {
		data := []byte{spec.op, byte(opBytePrefix), spec.lhs, byte(opBytePrefix), spec.rhs, 0x00}
		p := newTestParser(data)
		res, aerr := p.evalBinaryALU(p.vm.ns.Root(), Opcode(spec.op))
		if aerr != nil {
			t.Errorf("[spec %d] unexpected error: %s", specIndex, aerr.Error())
			continue
		}
		got, _ := res.payload.(uint64)
		if got != spec.want {
			t.Errorf("[spec %d] expected %d; got %d", specIndex, spec.want, got)
		}
	}
}

func TestEvalBinaryALUModByZero(t *testing.T) {
	data := []byte{byte(opMod), byte(opBytePrefix), 5, byte(opZero), 0x00}
	p := newTestParser(data)
	if _, aerr := p.evalBinaryALU(p.vm.ns.Root(), opMod); aerr == nil {
		t.Fatal("expected a divide-by-zero error for Mod by zero")
	} else if aerr.Exception != ExcDivideByZero {
		t.Fatalf("expected ExcDivideByZero; got %s", aerr.Exception.String())
	}
}

func TestEvalDivide(t *testing.T) {
	data := []byte{byte(opDivide), byte(opBytePrefix), 17, byte(opBytePrefix), 5, 0x00, 0x00}
	p := newTestParser(data)
	quotient, aerr := p.evalDivide(p.vm.ns.Root())
	if aerr != nil {
		t.Fatalf("unexpected error: %s", aerr.Error())
	}
	got, _ := quotient.payload.(uint64)
	if got != 3 {
		t.Fatalf("expected quotient 3; got %d", got)
	}
}

func TestEvalDivideByZero(t *testing.T) {
	data := []byte{byte(opDivide), byte(opBytePrefix), 17, byte(opZero), 0x00, 0x00}
	p := newTestParser(data)
	if _, aerr := p.evalDivide(p.vm.ns.Root()); aerr == nil {
		t.Fatal("expected a divide-by-zero error")
	}
}

func TestEvalUnaryALUNot(t *testing.T) {
	data := []byte{byte(opNot), byte(opBytePrefix), 0x00, 0x00}
	p := newTestParser(data)
	res, aerr := p.evalUnaryALU(p.vm.ns.Root(), opNot)
	if aerr != nil {
		t.Fatalf("unexpected error: %s", aerr.Error())
	}
	got, _ := res.payload.(uint64)
	if got != maskForWidth(64) {
		t.Fatalf("expected Not(0) to be all-ones; got 0x%x", got)
	}
}

func TestFindSetBits(t *testing.T) {
	if got := findSetLeftBit(0b1000, 64); got != 4 {
		t.Fatalf("expected bit index 4; got %d", got)
	}
	if got := findSetRightBit(0b1000); got != 4 {
		t.Fatalf("expected bit index 4; got %d", got)
	}
	if got := findSetLeftBit(0, 64); got != 0 {
		t.Fatalf("expected 0 for a zero value; got %d", got)
	}
}

func TestEvalCompareStrings(t *testing.T) {
	vm := NewVM(nil)
	lhs := vm.newString("abc")
	rhs := vm.newString("abd")
	if got := compareBytes([]byte(lhs.payload.(string)), []byte(rhs.payload.(string))); got >= 0 {
		t.Fatalf("expected \"abc\" < \"abd\"; got cmp=%d", got)
	}
}

func TestBoolToUint(t *testing.T) {
	if boolToUint(true) != maskForWidth(64) {
		t.Fatal("expected true to render as all-ones")
	}
	if boolToUint(false) != 0 {
		t.Fatal("expected false to render as zero")
	}
}
